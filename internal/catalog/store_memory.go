package catalog

import (
	"context"
	"fmt"
	"sync"
)

type MemStore struct {
	mu       sync.RWMutex
	products []Product
}

func NewMemStore(seed ...Product) *MemStore {
	s := &MemStore{products: make([]Product, 0, len(seed))}
	s.products = append(s.products, seed...)
	return s
}

// DefaultProducts is the catalog a fresh deployment starts with.
func DefaultProducts() []Product {
	return []Product{
		{ID: 1, Name: "Gerbera", Price: 9.99},
		{ID: 2, Name: "Rose", Price: 19.99},
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return Product{}, false, nil
	}
	return s.products[i], true, nil
}

func (s *MemStore) Add(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.products, p.ID) >= 0 {
		return fmt.Errorf("%w: id=%d", ErrConflict, p.ID)
	}
	s.products = append(s.products, p)
	return nil
}

func (s *MemStore) Update(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.products, p.ID)
	if i < 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, p.ID)
	}
	s.products[i] = p
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	s.products = append(s.products[:i:i], s.products[i+1:]...)
	return nil
}
