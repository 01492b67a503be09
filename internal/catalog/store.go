package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("catalog: record not found")

// Store is the persistence contract the importer reconciles against
type Store interface {
	// FindByNaturalKey returns ErrNotFound when no record has key
	FindByNaturalKey(ctx context.Context, key string) (*Record, error)
	Insert(ctx context.Context, record *Record) error
	UpdateByNaturalKey(ctx context.Context, key string, record *Record) error
}

// Reader serves the read API
type Reader interface {
	Get(ctx context.Context, id int64) (*Record, error)
	List(ctx context.Context, filter Filter) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// Catalog is a full store
type Catalog interface {
	Store
	Reader
	Close() error
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Make      string
	Model     string
	FuelType  FuelType
	MinYear   int
	MaxYear   int
	Available *bool
	Limit     int
	Offset    int
}

// DefaultListLimit caps List when the filter does not set a limit
const DefaultListLimit = 100

// Matches reports whether r satisfies the filter (ignoring paging)
func (f Filter) Matches(r *Record) bool {
	if f.Make != "" && !strings.EqualFold(f.Make, r.Make) {
		return false
	}
	if f.Model != "" && !strings.EqualFold(f.Model, r.Model) {
		return false
	}
	if f.FuelType != "" && f.FuelType != r.FuelType {
		return false
	}
	if f.MinYear > 0 && r.Year < f.MinYear {
		return false
	}
	if f.MaxYear > 0 && r.Year > f.MaxYear {
		return false
	}
	if f.Available != nil && *f.Available != r.IsAvailable {
		return false
	}
	return true
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Upsert inserts record or replaces the record sharing its natural key
func Upsert(ctx context.Context, s Store, record *Record) (created bool, err error) {
	existing, err := s.FindByNaturalKey(ctx, record.NaturalKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}

	if existing == nil {
		return true, s.Insert(ctx, record)
	}
	return false, s.UpdateByNaturalKey(ctx, record.NaturalKey, record)
}
