package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

type Product struct {
	ID    int     `json:"Id"`
	Name  string  `json:"Name"`
	Price float64 `json:"Price"`
}

var (
	ErrNotFound   = errors.New("product not found")
	ErrConflict   = errors.New("product id already exists")
	ErrValidation = errors.New("invalid product")
	ErrCorrupt    = errors.New("catalog data is corrupt")
)

// Store is the product catalog. Get reports absence with ok=false; Update
// and Delete report it with ErrNotFound.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, bool, error)
	Add(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id int) error
	Ping(ctx context.Context) error
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StorageError is returned when the backing file or database cannot be
// read, parsed or written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("catalog %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "Name", Reason: "must not be empty"}
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return &ValidationError{Field: "Price", Reason: "must be a finite number"}
	}
	if p.Price < 0 {
		return &ValidationError{Field: "Price", Reason: "must not be negative"}
	}
	return nil
}

func indexOf(products []Product, id int) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// checkCatalog rejects duplicate ids and invalid products.
func checkCatalog(products []Product) error {
	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate id %d", p.ID)
		}
		seen[p.ID] = struct{}{}

		if err := p.Validate(); err != nil {
			return fmt.Errorf("id %d: %w", p.ID, err)
		}
	}
	return nil
}
