package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/handlers/mocks"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(uc usecase.IAuthUseCase) *gin.Engine {
		r := gin.New()
		r.Use(Auth(uc))
		r.GET("/me", func(c *gin.Context) {
			id, _ := IdentityFrom(c)
			c.String(http.StatusOK, id.ID)
		})
		return r
	}

	t.Run("missing header", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		r := newRouter(mocks.NewMockIAuthUseCase(ctrl))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong scheme", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		r := newRouter(mocks.NewMockIAuthUseCase(ctrl))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIAuthUseCase(ctrl)
		uc.EXPECT().Authenticate(gomock.Any(), "tok").Return(entities.Identity{}, usecase.ErrAccountDisabled)
		r := newRouter(uc)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIAuthUseCase(ctrl)
		uc.EXPECT().Authenticate(gomock.Any(), "tok").Return(entities.Identity{ID: "u-1", Role: entities.RoleAuditor}, nil)
		r := newRouter(uc)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != "u-1" {
			t.Fatalf("expected 200 u-1, got %d %q", w.Code, w.Body.String())
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(id entities.Identity) int {
		r := gin.New()
		r.Use(func(c *gin.Context) { SetIdentity(c, id) }, RequireAdmin())
		r.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
		return w.Code
	}

	if code := run(entities.Identity{ID: "u-1", Role: entities.RoleAuditor}); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := run(entities.Identity{ID: "a-1", Role: entities.RoleAdmin}); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.allowed, s.err }

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(l stubLimiter) int {
		r := gin.New()
		r.Use(RateLimit(l, zap.NewNop()))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w.Code
	}

	if code := run(stubLimiter{allowed: false}); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := run(stubLimiter{err: context.DeadlineExceeded}); code != http.StatusOK {
		t.Fatalf("expected limiter failure to fail open, got %d", code)
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", w.Code)
	}
}
