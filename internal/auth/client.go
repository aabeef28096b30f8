package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestToken exchanges operator credentials for a write token at
// baseURL/auth/token.
func RequestToken(ctx context.Context, c *http.Client, baseURL, user, password string) (string, error) {
	body, err := json.Marshal(tokenReq{Username: user, Password: password})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(baseURL, "/") + "/auth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrInvalidCredentials
	default:
		return "", fmt.Errorf("token request: status=%d", resp.StatusCode)
	}

	var tr tokenResp
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	return tr.AccessToken, nil
}
