package cache

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"carcat/internal/config"
)

// HandlerFunc produces a response body for a read request
type HandlerFunc func(r *http.Request) ([]byte, error)

// Key derives the cache key for a request: "{METHOD}:{path?query}"
func Key(method, requestURI string) string {
	return method + ":" + requestURI
}

func requestKey(r *http.Request) string {
	return Key(r.Method, r.URL.RequestURI())
}

func wrapTTL(ttl *time.Duration) *time.Duration {
	if ttl != nil {
		return ttl
	}
	d := config.ResponseTTL
	return &d
}

// Wrap memoizes fn in svc. A live hit is returned without calling fn; on a
// miss fn runs once (concurrent misses on the same key share one call) and
// only a successful result is stored. A nil ttl means config.ResponseTTL.
// The shared call is detached from the leading request's cancellation so a
// disconnecting client cannot fail the requests waiting on it.
func Wrap(svc Service, fn HandlerFunc, ttl *time.Duration) HandlerFunc {
	ttl = wrapTTL(ttl)
	var group singleflight.Group

	return func(r *http.Request) ([]byte, error) {
		key := requestKey(r)

		if v, ok := svc.Get(key); ok {
			if body, ok := v.([]byte); ok {
				return body, nil
			}
			// Foreign value under our key: treat as a miss
		}

		v, err, _ := group.Do(key, func() (any, error) {
			body, err := fn(detach(r))
			if err != nil {
				return nil, err
			}
			svc.Set(key, body, ttl)
			return body, nil
		})
		if err != nil {
			return nil, err
		}

		return v.([]byte), nil
	}
}

// detach keeps r's values but drops its cancellation and deadline
func detach(r *http.Request) *http.Request {
	return r.WithContext(context.WithoutCancel(r.Context()))
}

// Response is a recorded HTTP response held by Middleware
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Size implements Sizer
func (r *Response) Size() int {
	size := len(r.Body)
	for k, vs := range r.Header {
		for _, v := range vs {
			size += len(k) + len(v)
		}
	}
	return size
}

func (r *Response) writeTo(w http.ResponseWriter, cacheStatus string) {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(r.Status)
	w.Write(r.Body)
}

// Middleware is the net/http form of Wrap. GET and HEAD requests are served
// from svc when possible; a downstream response is stored only when its
// status is 2xx. Other methods pass through untouched.
func Middleware(svc Service, ttl *time.Duration) func(http.Handler) http.Handler {
	ttl = wrapTTL(ttl)
	var group singleflight.Group

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			key := requestKey(r)

			if v, ok := svc.Get(key); ok {
				if resp, ok := v.(*Response); ok {
					resp.writeTo(w, "HIT")
					return
				}
			}

			v, _, _ := group.Do(key, func() (any, error) {
				rec := newRecorder()
				next.ServeHTTP(rec, detach(r))

				resp := &Response{
					Status: rec.status,
					Header: rec.header.Clone(),
					Body:   rec.body.Bytes(),
				}
				if resp.Status >= 200 && resp.Status < 300 {
					svc.Set(key, resp, ttl)
				}
				return resp, nil
			})

			v.(*Response).writeTo(w, "MISS")
		})
	}
}

// recorder captures a downstream response so it can be stored and replayed
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(p)
}
