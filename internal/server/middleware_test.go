package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/storelane/storelane/internal/tenant/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const provisionBody = `{
	"name": "Acme Retail",
	"email": "owner@acme.test",
	"routing_key": "acme",
	"admin_username": "acme_admin",
	"admin_password": "s3cret-password"
}`

func provisionTenant(t *testing.T, srv *Server) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tenants", strings.NewReader(provisionBody))
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("provision returned %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateTenantEndpoint(t *testing.T) {
	srv, _, store := newTestServer(t)
	provisionTenant(t, srv)

	if !store.created["acme"] {
		t.Fatalf("expected partition to be created")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tenants", strings.NewReader(provisionBody))
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate key, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"error":"Routing key already in use"}` {
		t.Fatalf("unexpected conflict body: %s", w.Body.String())
	}
}

func TestCreateTenantRejectsMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tenants", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCompanyByOverrideHeader(t *testing.T) {
	srv, _, store := newTestServer(t)
	provisionTenant(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var company tenantdomain.Company
	if err := json.Unmarshal(w.Body.Bytes(), &company); err != nil {
		t.Fatalf("failed to decode company: %v", err)
	}
	if company.Name != "Acme Retail" {
		t.Fatalf("unexpected company: %+v", company)
	}

	scope := store.lastScope(t)
	if !scope.closed || !scope.commited {
		t.Fatalf("expected scope committed and closed, got %+v", scope)
	}
}

func TestCompanyByShortKeyHeader(t *testing.T) {
	srv, _, _ := newTestServer(t)
	provisionTenant(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Header.Set("X-Retailer-Domain", "acme")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected short key to resolve via local suffix, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCompanyByRequestHost(t *testing.T) {
	srv, _, _ := newTestServer(t)
	provisionTenant(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Host = "acme.example.com:8443"
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected host-based resolution, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUnknownTenantBody(t *testing.T) {
	srv, _, store := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Header.Set("X-Retailer-Domain", "ghost.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w.Body.String() != `{"error":"Tenant not found"}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if len(store.scopes) != 0 {
		t.Fatalf("no scope may be opened for an unresolved tenant")
	}
}

func TestTenantWithoutCompanyBody(t *testing.T) {
	srv, db, store := newTestServer(t)
	provisionTenant(t, srv)

	if err := db.Exec(`DELETE FROM companies`).Error; err != nil {
		t.Fatalf("failed to corrupt registry: %v", err)
	}
	srv.resolver.Invalidate("acme.example.com")

	opened := len(store.scopes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"error":"Company not found"}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if len(store.scopes) != opened {
		t.Fatalf("no scope may be opened for a corrupt registry entry")
	}
}

func TestRegistryFailureBody(t *testing.T) {
	srv := newFailingServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Body.String() != `{"error":"Internal server error"}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestScopeRolledBackOnPanic(t *testing.T) {
	srv, _, store := newTestServer(t)
	provisionTenant(t, srv)

	srv.Engine().GET("/api/boom", srv.TenantContext(), func(c *gin.Context) {
		panic("handler exploded")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/boom", nil)
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", w.Code)
	}

	scope := store.lastScope(t)
	if !scope.closed {
		t.Fatalf("expected scope to be closed during panic unwind")
	}
	if scope.commited {
		t.Fatalf("a panicking request must roll back, not commit")
	}
}

func TestScopeCloseFailureIsLogged(t *testing.T) {
	srv, _, store := newTestServer(t)
	provisionTenant(t, srv)
	store.failClose = true

	core, logs := observer.New(zap.ErrorLevel)
	prev := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(prev)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/store/config", strings.NewReader(`{"tagline":"gone"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	// The response is already written when the commit fails; the only trace
	// of the lost write is the log line.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	entries := logs.FilterMessage("partition scope close failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one close-failure log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["partition"] != "acme" {
		t.Fatalf("expected the log entry to name the partition, got %v", fields)
	}
}

func TestStoreConfigWithoutScope(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// A route wired without the tenant middleware never carries a scope; the
	// handler must treat that as a server fault, not bad client input.
	srv.Engine().GET("/api/naked/config", srv.GetStoreConfig)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/naked/config", nil)
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"error":"Internal server error"}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestStoreConfigRoundTrip(t *testing.T) {
	srv, db, _ := newTestServer(t)
	provisionTenant(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/store/config", nil)
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cfg map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if cfg["tagline"] != "Your Trusted Store" || cfg["theme"] != "modern" {
		t.Fatalf("unexpected seed config: %v", cfg)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/store/config",
		strings.NewReader(`{"tagline":"Everything for your workshop","theme":"classic"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Table("store_config").
		Where("tagline = ? AND theme = ? AND store_name = ?", "Everything for your workshop", "classic", "Acme Retail").
		Count(&count).Error; err != nil {
		t.Fatalf("failed to read config back: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the update to persist exactly one row, got %d", count)
	}
}

func TestStoreConfigRejectsEmptyStoreName(t *testing.T) {
	srv, _, store := newTestServer(t)
	provisionTenant(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/store/config", strings.NewReader(`{"store_name":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	scope := store.lastScope(t)
	if scope.commited {
		t.Fatalf("a rejected update must roll back")
	}
}

func TestDeleteTenantEndpoint(t *testing.T) {
	srv, db, store := newTestServer(t)
	provisionTenant(t, srv)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/tenants/acme", nil)
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if store.created["acme"] {
		t.Fatalf("expected partition to be dropped")
	}

	var count int64
	if err := db.Model(&tenantdomain.Tenant{}).Count(&count).Error; err != nil {
		t.Fatalf("count tenants: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected registry to be empty, got %d tenants", count)
	}

	// The resolver cache was invalidated, so the old hostname 404s right away.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/company", nil)
	req.Header.Set("X-Retailer-Domain", "acme.example.com")
	srv.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected deleted tenant to stop resolving, got %d", w.Code)
	}
}
