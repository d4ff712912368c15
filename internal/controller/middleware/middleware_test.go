package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"quantplane/internal/auth"
	"quantplane/internal/store"
)

// fakeTenantStore resolves a single known API key hash.
type fakeTenantStore struct {
	hash   string
	tenant *store.Tenant
}

func (f *fakeTenantStore) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	return nil
}

func (f *fakeTenantStore) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	if hash == f.hash {
		return f.tenant, nil
	}
	return nil, store.ErrNotFound
}

func echoTenant(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := TenantFromContext(r.Context())
		if !ok {
			t.Error("handler reached without tenant in context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(tenant.ID))
	})
}

func TestAuthMiddleware(t *testing.T) {
	tenants := &fakeTenantStore{
		hash:   auth.HashKey("qp_valid"),
		tenant: &store.Tenant{ID: "tn_1", Name: "acme"},
	}
	handler := AuthMiddleware(tenants)(echoTenant(t))

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown key", "Bearer qp_unknown", http.StatusUnauthorized},
		{"valid key", "Bearer qp_valid", http.StatusOK},
		{"case insensitive scheme", "bearer qp_valid", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/datasets", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK && rec.Body.String() != "tn_1" {
				t.Errorf("tenant in context = %q, want tn_1", rec.Body.String())
			}
		})
	}
}

func withTenant(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), tenantKey{}, &store.Tenant{ID: id})
	return r.WithContext(ctx)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RateLimitMiddleware(1, 2)(ok)

	// Burst of 2 for tenant A, then limited.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/", nil), "tn_a"))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/", nil), "tn_a"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("over burst: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// A different tenant has its own bucket.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/", nil), "tn_b"))
	if rec.Code != http.StatusNoContent {
		t.Errorf("other tenant: status = %d, want 204", rec.Code)
	}
}

func TestRateLimitRequiresTenant(t *testing.T) {
	handler := RateLimitMiddleware(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without tenant")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}

	// A caller-supplied request ID is echoed back unchanged.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
}
