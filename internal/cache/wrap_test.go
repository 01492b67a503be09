package cache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "GET:/api/cars?make=Honda", Key("GET", "/api/cars?make=Honda"))

	req := httptest.NewRequest(http.MethodGet, "/api/cars?make=Honda&limit=5", nil)
	assert.Equal(t, "GET:/api/cars?make=Honda&limit=5", requestKey(req))
}

func TestWrap_HitAndMiss(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	var calls int32
	h := func(r *http.Request) ([]byte, error) {
		n := atomic.AddInt32(&calls, 1)
		return []byte(fmt.Sprintf(`{"call":%d}`, n)), nil
	}
	wrapped := Wrap(c, h, ttl(time.Second))

	req := httptest.NewRequest(http.MethodGet, "/api/cars?make=Honda", nil)

	body, err := wrapped(req)
	require.NoError(t, err)
	assert.Equal(t, `{"call":1}`, string(body))

	clock.Advance(500 * time.Millisecond)
	body, err = wrapped(req)
	require.NoError(t, err)
	assert.Equal(t, `{"call":1}`, string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	clock.Advance(501 * time.Millisecond)
	body, err = wrapped(req)
	require.NoError(t, err)
	assert.Equal(t, `{"call":2}`, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWrap_DistinctQueriesAreDistinctKeys(t *testing.T) {
	c := New()
	var calls int32
	wrapped := Wrap(c, func(r *http.Request) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(r.URL.RawQuery), nil
	}, nil)

	wrapped(httptest.NewRequest(http.MethodGet, "/api/cars?make=Honda", nil))
	wrapped(httptest.NewRequest(http.MethodGet, "/api/cars?make=Ford", nil))
	wrapped(httptest.NewRequest(http.MethodHead, "/api/cars?make=Ford", nil))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, c.Stats().TotalItems)
}

func TestWrap_ErrorsAreNotCached(t *testing.T) {
	c := New()
	var calls int32
	wrapped := Wrap(c, func(r *http.Request) ([]byte, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, fmt.Errorf("store unavailable")
		}
		return []byte("ok"), nil
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cars/1", nil)

	_, err := wrapped(req)
	require.Error(t, err)
	assert.Equal(t, 0, c.Stats().TotalItems)

	body, err := wrapped(req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWrap_ForeignValueDegradesToMiss(t *testing.T) {
	c := New()
	c.Set(Key("GET", "/api/cars"), 42, nil)

	wrapped := Wrap(c, func(r *http.Request) ([]byte, error) {
		return []byte("fresh"), nil
	}, nil)

	body, err := wrapped(httptest.NewRequest(http.MethodGet, "/api/cars", nil))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))
}

func TestMiddleware_CachesSuccessfulGets(t *testing.T) {
	c := New()
	var calls int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cars":[]}`))
	})
	h := Middleware(c, nil)(next)

	for i, want := range []string{"MISS", "HIT"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cars", nil))

		assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, `{"cars":[]}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, want, w.Header().Get("X-Cache"))
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMiddleware_DoesNotCacheErrors(t *testing.T) {
	c := New()
	var calls int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})
	h := Middleware(c, nil)(next)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cars/99", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, c.Stats().TotalItems)
}

func TestMiddleware_PassesThroughWrites(t *testing.T) {
	c := New()
	var calls int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusAccepted)
	})
	h := Middleware(c, nil)(next)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/import", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// blockingHandler parks every call until release is closed, then fails if
// the request context it was given has been cancelled
type blockingHandler struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingHandler) call(r *http.Request) ([]byte, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	if err := r.Context().Err(); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func TestWrap_LeaderCancellationDoesNotFailWaiters(t *testing.T) {
	c := New()
	h := newBlockingHandler()
	wrapped := Wrap(c, h.call, nil)

	ctx, cancel := context.WithCancel(context.Background())
	leader := httptest.NewRequest(http.MethodGet, "/api/cars/7", nil).WithContext(ctx)
	waiter := httptest.NewRequest(http.MethodGet, "/api/cars/7", nil)

	var wg sync.WaitGroup
	var leaderErr, waiterErr error
	var waiterBody []byte

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, leaderErr = wrapped(leader)
	}()
	<-h.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		waiterBody, waiterErr = wrapped(waiter)
	}()

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(h.release)
	wg.Wait()

	require.NoError(t, waiterErr)
	assert.Equal(t, `{"ok":true}`, string(waiterBody))
	assert.NoError(t, leaderErr)

	_, ok := c.Get(Key(http.MethodGet, "/api/cars/7"))
	assert.True(t, ok, "result of the shared call should be cached")
}

func TestMiddleware_LeaderCancellationDoesNotFailWaiters(t *testing.T) {
	c := New()
	h := newBlockingHandler()
	handler := Middleware(c, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := h.call(r)
		if err != nil {
			http.Error(w, "failed to list cars", http.StatusInternalServerError)
			return
		}
		w.Write(body)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	leader := httptest.NewRequest(http.MethodGet, "/api/cars", nil).WithContext(ctx)
	waiter := httptest.NewRequest(http.MethodGet, "/api/cars", nil)
	leaderRec, waiterRec := httptest.NewRecorder(), httptest.NewRecorder()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(leaderRec, leader)
	}()
	<-h.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.ServeHTTP(waiterRec, waiter)
	}()

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(h.release)
	wg.Wait()

	assert.Equal(t, http.StatusOK, waiterRec.Code)
	assert.Equal(t, `{"ok":true}`, waiterRec.Body.String())
	assert.Equal(t, http.StatusOK, leaderRec.Code)
}
