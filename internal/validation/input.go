package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"carcat/internal/catalog"
)

const MinYear = 1900

var naturalKeyPattern = regexp.MustCompile(`^[^\s\p{Cc}](?:[^\p{Cc}]*[^\s\p{Cc}])?$`)

// MaxYear returns the latest model year accepted at now
func MaxYear(now time.Time) int {
	return now.Year() + 2
}

// ValidateRecord checks a normalized record before it reaches the store
func ValidateRecord(r *catalog.Record, now time.Time) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	if err := ValidateNaturalKey(r.NaturalKey); err != nil {
		return fmt.Errorf("invalid natural key: %w", err)
	}

	if strings.TrimSpace(r.Make) == "" {
		return fmt.Errorf("make cannot be empty")
	}

	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if r.Year < MinYear || r.Year > MaxYear(now) {
		return fmt.Errorf("year must be between %d and %d, got %d", MinYear, MaxYear(now), r.Year)
	}

	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price < 0 {
		return fmt.Errorf("price must be a non-negative number, got %v", r.Price)
	}

	if !r.FuelType.Valid() {
		return fmt.Errorf("unknown fuel type %q", r.FuelType)
	}

	if !r.Transmission.Valid() {
		return fmt.Errorf("unknown transmission %q", r.Transmission)
	}

	return nil
}

// ValidateNaturalKey validates a catalog natural key
func ValidateNaturalKey(key string) error {
	if key == "" {
		return fmt.Errorf("natural key cannot be empty")
	}

	if len(key) > 255 {
		return fmt.Errorf("natural key length cannot exceed 255 characters, got %d", len(key))
	}

	if !naturalKeyPattern.MatchString(key) {
		return fmt.Errorf("natural key must not contain control characters or surrounding whitespace")
	}

	return nil
}

// ValidateSourceURL validates a remote import endpoint
func ValidateSourceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("url must include a host")
	}

	return nil
}
