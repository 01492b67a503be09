package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"carcat/internal/cache"
	"carcat/internal/catalog"
	catalogerrors "carcat/internal/errors"
	"carcat/internal/importer"
)

// ListResponse is the body of GET /api/cars
type ListResponse struct {
	Cars  []catalog.Record `json:"cars"`
	Count int              `json:"count"`
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	sendError(w, http.StatusNotFound, "not found")
}

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	cars, err := s.catalog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list cars", "request_id", RequestID(r.Context()), "error", err)
		sendError(w, http.StatusInternalServerError, "failed to list cars")
		return
	}
	if cars == nil {
		cars = []catalog.Record{}
	}

	sendJSON(w, http.StatusOK, ListResponse{Cars: cars, Count: len(cars)})
}

// handleGetCar serves one car through cache.Wrap. Errors are not cached,
// so a car imported after a 404 becomes visible on the next request.
func (s *Server) handleGetCar(ttl *time.Duration) http.HandlerFunc {
	load := cache.Wrap(s.cache, func(r *http.Request) ([]byte, error) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			return nil, errBadID
		}

		car, err := s.catalog.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(car)
	}, ttl)

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := load(r)
		switch {
		case errors.Is(err, errBadID):
			sendError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, catalog.ErrNotFound):
			sendError(w, http.StatusNotFound, "car not found")
		case err != nil:
			s.logger.Error("failed to get car", "request_id", RequestID(r.Context()), "error", err)
			sendError(w, http.StatusInternalServerError, "failed to get car")
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
		}
	}
}

var errBadID = errors.New("car id must be a positive integer")

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.cache.Stats())
}

// handleCacheClear deletes one entry when ?key= is given, otherwise
// everything
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		sendJSON(w, http.StatusOK, map[string]bool{"deleted": s.cache.Delete(key)})
		return
	}

	s.cache.Clear()
	s.metrics.CacheClears.Inc()
	s.logger.Info("response cache cleared", "request_id", RequestID(r.Context()))
	sendJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	removed := s.cache.Cleanup()
	sendJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// handleImport imports a JSON body and then clears the response cache so
// readers see the new catalog
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBody)

	outcome, err := s.importer.ImportJSON(r.Context(), body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, http.StatusRequestEntityTooLarge, "import body too large")
			return
		}
		var catErr *catalogerrors.CatalogError
		if errors.As(err, &catErr) {
			sendError(w, http.StatusBadRequest, catErr.UserFriendlyMessage())
			return
		}
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.recordImport(outcome)

	s.cache.Clear()
	s.metrics.CacheClears.Inc()

	s.logger.Info("import via API finished",
		"request_id", RequestID(r.Context()),
		"success", outcome.Success,
		"failed", outcome.Failed,
		"rejected", outcome.Rejected)

	sendJSON(w, http.StatusOK, outcome)
}

func (s *Server) recordImport(o *importer.Outcome) {
	s.metrics.ImportedRecords.WithLabelValues("success").Add(float64(o.Success))
	s.metrics.ImportedRecords.WithLabelValues("failed").Add(float64(o.Failed))
	s.metrics.ImportedRecords.WithLabelValues("rejected").Add(float64(o.Rejected))
}

// ParseFilter builds a catalog filter from list query parameters
func ParseFilter(q url.Values) (catalog.Filter, error) {
	filter := catalog.Filter{
		Make:  q.Get("make"),
		Model: q.Get("model"),
	}

	if v := q.Get("fuelType"); v != "" {
		fuel := catalog.FuelType(strings.ToLower(v))
		if !fuel.Valid() {
			return filter, fmt.Errorf("unknown fuelType %q", v)
		}
		filter.FuelType = fuel
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"minYear", &filter.MinYear},
		{"maxYear", &filter.MaxYear},
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("%s must be a non-negative integer", p.name)
		}
		*p.dst = n
	}

	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("available must be true or false")
		}
		filter.Available = &available
	}

	return filter, nil
}
