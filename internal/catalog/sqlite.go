package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the catalog in a SQLite database
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure SQLiteStore implements Catalog
var _ Catalog = (*SQLiteStore)(nil)

// Open opens (creating if needed) the catalog database at path
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY during imports
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:  db,
		now: time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return store, nil
}

// Close closes the catalog database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const recordColumns = `id, natural_key, make, model, year, price, fuel_type, transmission,
	cylinders, displacement, city_mpg, highway_mpg, combination_mpg,
	description, image_url, is_available, created_at, updated_at`

// FindByNaturalKey retrieves a record by its natural key
func (s *SQLiteStore) FindByNaturalKey(ctx context.Context, key string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM cars WHERE natural_key = ?`, key)
	return scanRecord(row)
}

// Get retrieves a record by its store identifier
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM cars WHERE id = ?`, id)
	return scanRecord(row)
}

// Insert stores a new record and sets its ID and timestamps
func (s *SQLiteStore) Insert(ctx context.Context, r *Record) error {
	now := s.now().UTC()

	query := `
		INSERT INTO cars
		(natural_key, make, model, year, price, fuel_type, transmission,
		 cylinders, displacement, city_mpg, highway_mpg, combination_mpg,
		 description, image_url, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		r.NaturalKey, r.Make, r.Model, r.Year, r.Price, string(r.FuelType), string(r.Transmission),
		r.Cylinders, r.Displacement, r.CityMPG, r.HighwayMPG, r.CombinationMPG,
		r.Description, r.ImageURL, r.IsAvailable, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert car: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}

	r.ID = id
	r.CreatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	r.UpdatedAt = r.CreatedAt
	return nil
}

// UpdateByNaturalKey replaces every field of the record with natural key
// key. The store identifier and creation time are kept.
func (s *SQLiteStore) UpdateByNaturalKey(ctx context.Context, key string, r *Record) error {
	now := s.now().UTC()

	query := `
		UPDATE cars SET
			natural_key = ?, make = ?, model = ?, year = ?, price = ?, fuel_type = ?, transmission = ?,
			cylinders = ?, displacement = ?, city_mpg = ?, highway_mpg = ?, combination_mpg = ?,
			description = ?, image_url = ?, is_available = ?, updated_at = ?
		WHERE natural_key = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		r.NaturalKey, r.Make, r.Model, r.Year, r.Price, string(r.FuelType), string(r.Transmission),
		r.Cylinders, r.Displacement, r.CityMPG, r.HighwayMPG, r.CombinationMPG,
		r.Description, r.ImageURL, r.IsAvailable, now.UnixMilli(),
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to update car: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	r.UpdatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	return nil
}

// List returns records matching filter ordered by id
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)

	if filter.Make != "" {
		where = append(where, "make = ? COLLATE NOCASE")
		args = append(args, filter.Make)
	}
	if filter.Model != "" {
		where = append(where, "model = ? COLLATE NOCASE")
		args = append(args, filter.Model)
	}
	if filter.FuelType != "" {
		where = append(where, "fuel_type = ?")
		args = append(args, string(filter.FuelType))
	}
	if filter.MinYear > 0 {
		where = append(where, "year >= ?")
		args = append(args, filter.MinYear)
	}
	if filter.MaxYear > 0 {
		where = append(where, "year <= ?")
		args = append(args, filter.MaxYear)
	}
	if filter.Available != nil {
		where = append(where, "is_available = ?")
		args = append(args, *filter.Available)
	}

	query := `SELECT ` + recordColumns + ` FROM cars`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, filter.limit(), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}

	return records, nil
}

// Count returns the number of cars in the catalog
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cars").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return n, nil
}

// initSchema creates the cars table if it doesn't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			natural_key TEXT NOT NULL UNIQUE,
			make TEXT NOT NULL,
			model TEXT NOT NULL,
			year INTEGER NOT NULL,
			price REAL NOT NULL CHECK (price >= 0),
			fuel_type TEXT NOT NULL,
			transmission TEXT NOT NULL,
			cylinders INTEGER NOT NULL,
			displacement REAL NOT NULL,
			city_mpg INTEGER NOT NULL,
			highway_mpg INTEGER NOT NULL,
			combination_mpg INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			is_available INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cars_make_model ON cars(make, model);
		CREATE INDEX IF NOT EXISTS idx_cars_year ON cars(year);
	`

	_, err := s.db.Exec(schema)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r                    Record
		fuel, transmission   string
		createdAt, updatedAt int64
	)

	err := row.Scan(
		&r.ID, &r.NaturalKey, &r.Make, &r.Model, &r.Year, &r.Price, &fuel, &transmission,
		&r.Cylinders, &r.Displacement, &r.CityMPG, &r.HighwayMPG, &r.CombinationMPG,
		&r.Description, &r.ImageURL, &r.IsAvailable, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read car: %w", err)
	}

	r.FuelType = FuelType(fuel)
	r.Transmission = Transmission(transmission)
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	r.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return &r, nil
}
