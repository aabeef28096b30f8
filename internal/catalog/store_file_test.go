package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T, seed []Product) *FileStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "products.json")
	s := NewFileStore(path)
	require.NoError(t, s.Init(context.Background(), seed))
	return s
}

func TestFileStore_Contract(t *testing.T) {
	testStoreContract(t, func(t *testing.T, seed []Product) Store {
		return newTestFileStore(t, seed)
	})
}

func TestMemStore_Contract(t *testing.T) {
	testStoreContract(t, func(_ *testing.T, seed []Product) Store {
		return NewMemStore(seed...)
	})
}

func TestFileStore_FileLayout(t *testing.T) {
	s := newTestFileStore(t, seedProducts())

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"Id": 1, "Name": "Gerbera", "Price": 9.99},
		{"Id": 2, "Name": "Rose", "Price": 19.99}
	]`, string(raw))
}

func TestFileStore_ReadsEveryCall(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, seedProducts())

	require.NoError(t, os.WriteFile(s.Path(), []byte(`[{"Id":7,"Name":"Iris","Price":3.5}]`), 0o644))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Product{{ID: 7, Name: "Iris", Price: 3.5}}, all)
}

func TestFileStore_FailedMutationsLeaveFileUntouched(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, seedProducts())

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Add(ctx, Product{ID: 1, Name: "Dup", Price: 1}), ErrConflict)
	assert.ErrorIs(t, s.Add(ctx, Product{ID: 9, Name: "", Price: 1}), ErrValidation)
	assert.ErrorIs(t, s.Update(ctx, Product{ID: 9, Name: "Ghost", Price: 1}), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 9), ErrNotFound)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func rawEntries(t *testing.T, path string) []json.RawMessage {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestFileStore_UpdateKeepsOtherEntriesByteIdentical(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, []Product{
		{ID: 1, Name: "Gerbera", Price: 9.99},
		{ID: 2, Name: "Rose", Price: 19.99},
		{ID: 3, Name: "Tulip", Price: 29.99},
	})

	before := rawEntries(t, s.Path())
	require.Len(t, before, 3)

	require.NoError(t, s.Update(ctx, Product{ID: 2, Name: "Rose", Price: 24.99}))

	after := rawEntries(t, s.Path())
	require.Len(t, after, 3)

	assert.Equal(t, string(before[0]), string(after[0]))
	assert.Equal(t, string(before[2]), string(after[2]))
	assert.NotEqual(t, string(before[1]), string(after[1]))
	assert.JSONEq(t, `{"Id":2,"Name":"Rose","Price":24.99}`, string(after[1]))
}

func TestFileStore_SaveAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, []Product{
		{ID: 1, Name: "Gerbera", Price: 9.99},
		{ID: 2, Name: "Rosé \"special\"", Price: 0.1 + 0.2},
		{ID: 3, Name: "Tulip", Price: 1e-7},
		{ID: 4, Name: "Lotus", Price: math.MaxFloat64},
	})

	before, err := s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveAll(ctx, before))

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_SaveAllValidates(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, seedProducts())

	err := s.SaveAll(ctx, []Product{{ID: 1, Name: "A", Price: 1}, {ID: 1, Name: "B", Price: 2}})
	assert.ErrorIs(t, err, ErrConflict)

	err = s.SaveAll(ctx, []Product{{ID: 1, Name: "A", Price: math.NaN()}})
	assert.ErrorIs(t, err, ErrValidation)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, seedProducts(), all)
}

func TestFileStore_SaveAllEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, seedProducts())

	require.NoError(t, s.SaveAll(ctx, nil))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	_, err := s.List(context.Background())

	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "read", serr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = s.Get(context.Background(), 1)
	assert.ErrorAs(t, err, &serr)

	assert.Error(t, s.Ping(context.Background()))
}

func TestFileStore_MalformedData(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"whitespace", "   \n"},
		{"null", "null"},
		{"object", `{"Id":1,"Name":"Gerbera","Price":9.99}`},
		{"truncated", `[{"Id":1,"Name":"Gerb`},
		{"trailing data", `[] []`},
		{"unknown field", `[{"Id":1,"Name":"Gerbera","Price":9.99,"Color":"red"}]`},
		{"wrong type", `[{"Id":"1","Name":"Gerbera","Price":9.99}]`},
		{"duplicate ids", `[{"Id":1,"Name":"A","Price":1},{"Id":1,"Name":"B","Price":2}]`},
		{"negative price", `[{"Id":1,"Name":"A","Price":-1}]`},
		{"missing name", `[{"Id":1,"Price":1}]`},
		{"null element", `[null]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "products.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			s := NewFileStore(path)

			all, err := s.List(ctx)
			assert.Nil(t, all)

			var serr *StorageError
			require.ErrorAs(t, err, &serr)
			assert.ErrorIs(t, err, ErrCorrupt)

			assert.ErrorIs(t, s.Add(ctx, Product{ID: 50, Name: "New", Price: 1}), ErrCorrupt)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.content, string(raw), "corrupt file must not be overwritten")
		})
	}
}

func TestFileStore_EmptyArrayIsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(" [ ]\n"), 0o644))

	all, err := NewFileStore(path).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_InitKeepsExistingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "products.json")
	s := NewFileStore(path)

	require.NoError(t, s.Init(ctx, seedProducts()))
	require.NoError(t, s.Add(ctx, Product{ID: 3, Name: "Tulip", Price: 29.99}))

	require.NoError(t, s.Init(ctx, nil))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(all))
}

func TestFileStore_InitRejectsInvalidSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	s := NewFileStore(path)

	err := s.Init(context.Background(), []Product{{ID: 1, Name: "A", Price: 1}, {ID: 1, Name: "B", Price: 1}})
	assert.ErrorIs(t, err, ErrConflict)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, seedProducts())

	require.NoError(t, s.Add(ctx, Product{ID: 3, Name: "Tulip", Price: 29.99}))
	require.NoError(t, s.Update(ctx, Product{ID: 3, Name: "Tulip", Price: 30}))
	require.NoError(t, s.Delete(ctx, 1))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "products.json", entries[0].Name())
}

func TestFileStore_WrittenFileMode(t *testing.T) {
	s := newTestFileStore(t, seedProducts())
	require.NoError(t, s.Add(context.Background(), Product{ID: 3, Name: "Tulip", Price: 29.99}))

	fi, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, filePerm, fi.Mode().Perm())
}

func TestSyncDir_ReportsErrors(t *testing.T) {
	assert.NoError(t, syncDir(t.TempDir()))
	assert.Error(t, syncDir(filepath.Join(t.TempDir(), "gone")))
}

func TestFileStore_WriteIntoMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := NewFileStore(filepath.Join(dir, "products.json"))
	require.NoError(t, s.Init(context.Background(), seedProducts()))
	require.NoError(t, os.RemoveAll(dir))

	err := s.SaveAll(context.Background(), seedProducts())

	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "write", serr.Op)
}

func TestFileStore_WriteFailureKeepsPreviousCatalog(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	ctx := context.Background()
	s := newTestFileStore(t, seedProducts())
	dir := filepath.Dir(s.Path())

	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := s.Add(ctx, Product{ID: 3, Name: "Tulip", Price: 29.99})

	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "write", serr.Op)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, seedProducts(), all)
}

func TestFileStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t, nil)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Add(ctx, Product{ID: i, Name: fmt.Sprintf("flower-%d", i), Price: float64(i)})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestFileStore_CanceledContext(t *testing.T) {
	s := newTestFileStore(t, seedProducts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Add(ctx, Product{ID: 3, Name: "Tulip", Price: 1}), context.Canceled)
}
