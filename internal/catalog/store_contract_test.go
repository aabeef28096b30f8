package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T, seed []Product) Store

func seedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Gerbera", Price: 9.99},
		{ID: 2, Name: "Rose", Price: 19.99},
	}
}

// testStoreContract runs the behaviour every Store implementation shares.
func testStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("scenario", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		require.NoError(t, s.Add(ctx, Product{ID: 3, Name: "Tulip", Price: 29.99}))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Product{
			{ID: 1, Name: "Gerbera", Price: 9.99},
			{ID: 2, Name: "Rose", Price: 19.99},
			{ID: 3, Name: "Tulip", Price: 29.99},
		}, all)

		require.NoError(t, s.Update(ctx, Product{ID: 2, Name: "Rose", Price: 24.99}))
		p, ok, err := s.Get(ctx, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 24.99, p.Price)

		require.NoError(t, s.Delete(ctx, 1))
		all, err = s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3}, ids(all))

		_, ok, err = s.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("add then get returns identical fields", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, nil)

		for _, p := range []Product{
			{ID: 10, Name: "Lily", Price: 0},
			{ID: -4, Name: "Orchid", Price: 123456.789},
			{ID: 0, Name: " Daisy ", Price: 0.1},
		} {
			require.NoError(t, s.Add(ctx, p))

			got, ok, err := s.Get(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, p, got)
		}
	})

	t.Run("ids beyond 32 bits round trip", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, nil)

		big := math.MaxInt32
		big++
		for _, id := range []int{big, -big - 1, math.MaxInt} {
			p := Product{ID: id, Name: "Baobab", Price: 5}
			require.NoError(t, s.Add(ctx, p))

			got, ok, err := s.Get(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, p, got)

			require.NoError(t, s.Update(ctx, Product{ID: id, Name: "Baobab", Price: 6}))
			require.NoError(t, s.Delete(ctx, id))
		}
	})

	t.Run("duplicate add is a conflict and changes nothing", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		err := s.Add(ctx, Product{ID: 2, Name: "Other", Price: 1})
		require.ErrorIs(t, err, ErrConflict)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, seedProducts(), all)
	})

	t.Run("update replaces only the matching entry", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		require.NoError(t, s.Update(ctx, Product{ID: 1, Name: "Pink Gerbera", Price: 11}))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Product{
			{ID: 1, Name: "Pink Gerbera", Price: 11},
			{ID: 2, Name: "Rose", Price: 19.99},
		}, all)
	})

	t.Run("delete removes exactly one entry", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		require.NoError(t, s.Delete(ctx, 2))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, len(seedProducts())-1)
		assert.Equal(t, []int{1}, ids(all))
	})

	t.Run("absent id", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		_, ok, err := s.Get(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, s.Update(ctx, Product{ID: 99, Name: "Ghost", Price: 1}), ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, 99), ErrNotFound)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, seedProducts(), all)
	})

	t.Run("invalid products are rejected", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		for _, p := range []Product{
			{ID: 5, Name: "", Price: 1},
			{ID: 5, Name: "   ", Price: 1},
			{ID: 5, Name: "Thorn", Price: -0.01},
		} {
			err := s.Add(ctx, p)
			assert.ErrorIs(t, err, ErrValidation, "add %+v", p)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		}

		assert.ErrorIs(t, s.Update(ctx, Product{ID: 1, Name: "", Price: 1}), ErrValidation)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, seedProducts(), all)
	})

	t.Run("list result is not aliased", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t, seedProducts())

		all, err := s.List(ctx)
		require.NoError(t, err)
		all[0].Name = "mutated"

		p, ok, err := s.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Gerbera", p.Name)
	})
}

func ids(ps []Product) []int {
	out := make([]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
