package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
)

const filePerm os.FileMode = 0o644

// FileStore keeps the catalog as a single JSON array on disk. Every read
// loads the whole file and every mutation rewrites it through a temp file
// and rename, so readers see either the old or the new catalog.
//
// mu serializes read-modify-write cycles of this process. Other processes
// writing the same file are not coordinated.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Init writes seed as the initial catalog when the file does not exist yet.
// An existing file is left untouched, even if it is empty or corrupt.
func (s *FileStore) Init(ctx context.Context, seed []Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateAll(seed); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "stat", Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: s.path, Err: err}
	}
	return s.write(seed)
}

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.load()
	return err
}

func (s *FileStore) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.load()
}

func (s *FileStore) Get(ctx context.Context, id int) (Product, bool, error) {
	products, err := s.List(ctx)
	if err != nil {
		return Product{}, false, err
	}

	i := indexOf(products, id)
	if i < 0 {
		return Product{}, false, nil
	}
	return products[i], true, nil
}

func (s *FileStore) Add(ctx context.Context, p Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return err
	}
	if indexOf(products, p.ID) >= 0 {
		return fmt.Errorf("%w: id=%d", ErrConflict, p.ID)
	}

	return s.write(append(products, p))
}

func (s *FileStore) Update(ctx context.Context, p Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return err
	}

	i := indexOf(products, p.ID)
	if i < 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, p.ID)
	}
	products[i] = p

	return s.write(products)
}

func (s *FileStore) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return err
	}

	i := indexOf(products, id)
	if i < 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}

	out := make([]Product, 0, len(products)-1)
	out = append(out, products[:i]...)
	out = append(out, products[i+1:]...)

	return s.write(out)
}

// SaveAll replaces the whole catalog with products, in order.
func (s *FileStore) SaveAll(ctx context.Context, products []Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateAll(products); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(products)
}

func (s *FileStore) load() ([]Product, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}

	products, err := decodeCatalog(data)
	if err != nil {
		return nil, &StorageError{Op: "decode", Path: s.path, Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}
	return products, nil
}

func (s *FileStore) write(products []Product) error {
	data, err := encodeCatalog(products)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data, filePerm); err != nil {
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func validateAll(products []Product) error {
	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: id=%d", ErrConflict, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func decodeCatalog(data []byte) ([]Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("expected a JSON array")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var products []Product
	if err := dec.Decode(&products); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("extra data after json array")
	}
	if err := checkCatalog(products); err != nil {
		return nil, err
	}

	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func encodeCatalog(products []Product) ([]byte, error) {
	if products == nil {
		products = []Product{}
	}
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, then fsyncs the directory so the rename survives a crash.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	if err := renameio.WriteFile(path, data, perm, renameio.WithTempDir(dir), renameio.IgnoreUmask()); err != nil {
		return err
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("sync dir: %w", err)
	}
	return d.Close()
}
