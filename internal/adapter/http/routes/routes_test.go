package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestAddAuditRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	addAuditRoutes(r.Group("/v1"), handlers.NewAuditHandler(nil, nil))

	want := map[string]bool{
		"GET /v1/audits":             false,
		"POST /v1/audits":            false,
		"GET /v1/audits/:id":         false,
		"PUT /v1/audits/:id":         false,
		"DELETE /v1/audits/:id":      false,
		"GET /v1/audits/:id/results": false,
		"GET /v1/audits/:id/report":  false,
	}
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Fatalf("route %s not registered", k)
		}
	}
}

func TestAddPingRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	addPingRoutes(r, r.Group("/v1"))

	for _, path := range []string{"/health", "/v1/ping"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestNewCleanupScheduler(t *testing.T) {
	c, err := newCleanupScheduler("", nil, zap.NewNop())
	if err != nil || c != nil {
		t.Fatalf("expected no scheduler, got %v %v", c, err)
	}

	if _, err := newCleanupScheduler("not a cron", nil, zap.NewNop()); err == nil {
		t.Fatalf("expected invalid spec error")
	}

	c, err = newCleanupScheduler("@every 1h", nil, zap.NewNop())
	if err != nil || c == nil || len(c.Entries()) != 1 {
		t.Fatalf("expected one scheduled entry, got %v", err)
	}
}
