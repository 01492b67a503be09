package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(key string, price float64) *Record {
	return &Record{
		NaturalKey:     key,
		Make:           "Toyota",
		Model:          "Corolla",
		Year:           2021,
		Price:          price,
		FuelType:       FuelGas,
		Transmission:   TransmissionAutomatic,
		Cylinders:      4,
		Displacement:   1.8,
		CityMPG:        30,
		HighwayMPG:     38,
		CombinationMPG: 33,
		Description:    "2021 Toyota Corolla",
		ImageURL:       "https://example.com/corolla.jpg",
		IsAvailable:    true,
	}
}

// stores runs fn against every Catalog implementation
func stores(t *testing.T, fn func(t *testing.T, s Catalog)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestStore_InsertAndFind(t *testing.T) {
	stores(t, func(t *testing.T, s Catalog) {
		ctx := context.Background()

		_, err := s.FindByNaturalKey(ctx, "toy-1")
		assert.ErrorIs(t, err, ErrNotFound)

		r := sampleRecord("toy-1", 21000)
		require.NoError(t, s.Insert(ctx, r))
		assert.NotZero(t, r.ID)
		assert.False(t, r.CreatedAt.IsZero())

		got, err := s.FindByNaturalKey(ctx, "toy-1")
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)
		assert.Equal(t, "Corolla", got.Model)
		assert.Equal(t, FuelGas, got.FuelType)
		assert.Equal(t, TransmissionAutomatic, got.Transmission)
		assert.Equal(t, 1.8, got.Displacement)
		assert.True(t, got.IsAvailable)

		byID, err := s.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "toy-1", byID.NaturalKey)

		_, err = s.Get(ctx, r.ID+100)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_InsertDuplicateKeyFails(t *testing.T) {
	stores(t, func(t *testing.T, s Catalog) {
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, sampleRecord("dup", 1)))
		assert.Error(t, s.Insert(ctx, sampleRecord("dup", 2)))
	})
}

func TestStore_UpdateByNaturalKey(t *testing.T) {
	stores(t, func(t *testing.T, s Catalog) {
		ctx := context.Background()
		original := sampleRecord("toy-1", 21000)
		require.NoError(t, s.Insert(ctx, original))

		updated := sampleRecord("toy-1", 19500)
		updated.IsAvailable = false
		require.NoError(t, s.UpdateByNaturalKey(ctx, "toy-1", updated))

		got, err := s.FindByNaturalKey(ctx, "toy-1")
		require.NoError(t, err)
		assert.Equal(t, original.ID, got.ID)
		assert.Equal(t, 19500.0, got.Price)
		assert.False(t, got.IsAvailable)

		err = s.UpdateByNaturalKey(ctx, "missing", sampleRecord("missing", 1))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_UpsertCollapsesOnNaturalKey(t *testing.T) {
	stores(t, func(t *testing.T, s Catalog) {
		ctx := context.Background()

		created, err := Upsert(ctx, s, sampleRecord("k", 100))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = Upsert(ctx, s, sampleRecord("k", 200))
		require.NoError(t, err)
		assert.False(t, created)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := s.FindByNaturalKey(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 200.0, got.Price)
	})
}

func TestStore_ListFilters(t *testing.T) {
	stores(t, func(t *testing.T, s Catalog) {
		ctx := context.Background()

		civic := sampleRecord("civic", 24000)
		civic.Make, civic.Model, civic.Year = "Honda", "Civic", 2019
		leaf := sampleRecord("leaf", 28000)
		leaf.Make, leaf.Model, leaf.FuelType = "Nissan", "Leaf", FuelElectricity
		leaf.IsAvailable = false
		corolla := sampleRecord("corolla", 21000)

		for _, r := range []*Record{civic, leaf, corolla} {
			require.NoError(t, s.Insert(ctx, r))
		}

		all, err := s.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "civic", all[0].NaturalKey)

		honda, err := s.List(ctx, Filter{Make: "honda"})
		require.NoError(t, err)
		require.Len(t, honda, 1)
		assert.Equal(t, "Civic", honda[0].Model)

		ev, err := s.List(ctx, Filter{FuelType: FuelElectricity})
		require.NoError(t, err)
		require.Len(t, ev, 1)

		recent, err := s.List(ctx, Filter{MinYear: 2020})
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		available := true
		inStock, err := s.List(ctx, Filter{Available: &available})
		require.NoError(t, err)
		assert.Len(t, inStock, 2)

		page, err := s.List(ctx, Filter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "leaf", page[0].NaturalKey)

		empty, err := s.List(ctx, Filter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, FuelHybrid.Valid())
	assert.False(t, FuelType("hydrogen").Valid())
	assert.True(t, TransmissionManual.Valid())
	assert.False(t, Transmission("cvt").Valid())
}
