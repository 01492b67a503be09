package utils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carcat/internal/catalog"
	"carcat/internal/config"
	"carcat/internal/observability"
)

func TestNewCacheUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.DefaultTTL = time.Hour

	c := NewCache(cfg, observability.Discard())
	defer c.Close()

	c.Set("k", []byte("v"), nil)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected a hit right after Set")
	}
}

func TestOpenCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "catalog.db")

	store, err := OpenCatalog(cfg)
	if err != nil {
		t.Fatalf("OpenCatalog failed: %v", err)
	}
	defer store.Close()

	car := catalog.Record{NaturalKey: "k1", Make: "Mazda", Model: "MX-5", Year: 2022, Price: 29000,
		FuelType: catalog.FuelGas, Transmission: catalog.TransmissionManual}
	if err := store.Insert(context.Background(), &car); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := store.Count(context.Background())
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v; want 1", n, err)
	}
}
