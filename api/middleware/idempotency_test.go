package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fitpulse/checkout-gateway/pkg/logger"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "fp:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func confirmRouter(store *fakeStore, hits *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, testLogger()))
	r.Post("/api/v1/checkout/sessions/{sessionID}/confirm", func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"state":"succeeded"}}`))
	})
	return r
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	hits := 0
	router := confirmRouter(store, &hits)

	body := `{"payment_method_id":"pm_1"}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/abc/confirm", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d status = %d", i, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "succeeded") {
			t.Fatalf("attempt %d body = %s", i, rec.Body.String())
		}
	}
	if hits != 1 {
		t.Fatalf("handler hit %d times, want 1", hits)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	hits := 0
	router := confirmRouter(store, &hits)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/abc/confirm", strings.NewReader(`{"payment_method_id":"pm_1"}`))
	first.Header.Set("Idempotency-Key", "key-1")
	router.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/abc/confirm", strings.NewReader(`{"payment_method_id":"pm_2"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, second)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if hits != 1 {
		t.Fatalf("handler hit %d times, want 1", hits)
	}
}

func TestIdempotencyRequiresKeyOnGuardedRoutes(t *testing.T) {
	router := confirmRouter(newFakeStore(), new(int))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/abc/confirm", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newFakeStore()
	r := chi.NewRouter()
	r.Use(Idempotency(store, testLogger()))
	hits := 0
	r.Get("/api/v1/checkout/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/sessions/abc", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if hits != 2 {
		t.Fatalf("handler hit %d times, want 2", hits)
	}
}

func TestConfirmRouteUsesCriticalTTL(t *testing.T) {
	ttl, ok := routeTTL(http.MethodPost, "/api/v1/checkout/sessions/7b8e7f9a-9e8f-4c2a-9a61-2f57a1a1a1a1/confirm")
	if !ok || ttl != criticalIdempotencyTTL {
		t.Fatalf("ttl = %v ok = %v", ttl, ok)
	}
	ttl, ok = routeTTL(http.MethodPost, "/api/v1/checkout/sessions")
	if !ok || ttl != defaultIdempotencyTTL {
		t.Fatalf("ttl = %v ok = %v", ttl, ok)
	}
}
