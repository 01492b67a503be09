package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carcat/internal/cache"
	"carcat/internal/catalog"
	catalogerrors "carcat/internal/errors"
	"carcat/internal/server"
)

func newAdminTestServer(t *testing.T, token string) (*httptest.Server, *cache.Cache) {
	t.Helper()

	store := catalog.NewMemoryStore()
	car := catalog.Record{NaturalKey: "honda-civic", Make: "Honda", Model: "Civic", Year: 2023, Price: 24000, FuelType: catalog.FuelGas}
	require.NoError(t, store.Insert(context.Background(), &car))

	c := cache.New()
	srv := httptest.NewServer(server.New(store, c, server.WithAdminToken(token)))
	t.Cleanup(srv.Close)

	return srv, c
}

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", serverURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000", serverURL("127.0.0.1:9000"))
}

func TestAdminClientRoundTrip(t *testing.T) {
	srv, c := newAdminTestServer(t, "secret")
	ctx := context.Background()

	// Warm the cache through the read API
	resp, err := http.Get(srv.URL + "/api/cars/1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	client := newAdminClient(srv.URL+"/", "secret")
	assert.Equal(t, srv.URL, client.baseURL)

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalItems)
	assert.Positive(t, stats.TotalSize)
	require.NotNil(t, stats.OldestItemAge)
	assert.Equal(t, uint64(1), stats.Misses)

	deleted, err := client.Delete(ctx, cache.Key(http.MethodGet, "/api/cars/1"))
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.Delete(ctx, "GET:/missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	c.Set("a", []byte("x"), nil)
	require.NoError(t, client.Clear(ctx))
	assert.Equal(t, 0, c.Stats().TotalItems)

	removed, err := client.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	stats, err = client.Stats(ctx)
	require.NoError(t, err)
	assert.Nil(t, stats.OldestItemAge)
}

func TestAdminClientRejectedToken(t *testing.T) {
	srv, _ := newAdminTestServer(t, "secret")

	client := newAdminClient(srv.URL, "wrong")
	_, err := client.Stats(context.Background())
	require.Error(t, err)

	var catErr *catalogerrors.CatalogError
	require.True(t, errors.As(err, &catErr))
	assert.False(t, catErr.IsRetryable())
	assert.Equal(t, "401", catErr.Context["status"])
}

func TestRenderCarTable(t *testing.T) {
	var empty bytes.Buffer
	renderCarTable(&empty, nil)
	assert.Equal(t, "No cars found\n", empty.String())

	var buf bytes.Buffer
	renderCarTable(&buf, []catalog.Record{
		{ID: 1, NaturalKey: "toyota-camry", Make: "Toyota", Model: "Camry", Year: 2024, Price: 28000,
			FuelType: catalog.FuelGas, Transmission: catalog.TransmissionAutomatic, CityMPG: 28, HighwayMPG: 39, IsAvailable: true},
	})

	out := buf.String()
	assert.Contains(t, out, "toyota-camry")
	assert.Contains(t, out, "$28,000")
	assert.Contains(t, out, "28/39")
	assert.Contains(t, out, "TOTAL")
}

func TestListFilterFlags(t *testing.T) {
	defer func() {
		listFuel, listMinYear, listAvailable = "", "", false
	}()

	listFuel = "Hybrid"
	listMinYear = "2020"
	listAvailable = true

	filter, err := listFilter()
	require.NoError(t, err)
	assert.Equal(t, catalog.FuelHybrid, filter.FuelType)
	assert.Equal(t, 2020, filter.MinYear)
	require.NotNil(t, filter.Available)
	assert.True(t, *filter.Available)

	listMinYear = "soon"
	_, err = listFilter()
	assert.Error(t, err)
}
