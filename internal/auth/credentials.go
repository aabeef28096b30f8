package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the single operator account allowed to mint write tokens.
type Credentials struct {
	User string
	Hash []byte
}

func (c Credentials) Verify(user, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) == 1

	// Compare the hash even for a wrong user so both paths take the same time.
	if err := bcrypt.CompareHashAndPassword(c.Hash, []byte(password)); err != nil || !userOK {
		return ErrInvalidCredentials
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
