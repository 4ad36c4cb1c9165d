package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	imocks "github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces/mocks"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

func TestCatalogHandler_GetCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		src := imocks.NewMockICatalogSource(ctrl)
		src.EXPECT().LoadCategories(gomock.Any()).Return([]entities.AuditCategory{{ID: "cat-0", Name: "Locaux"}}, nil)
		h := NewCatalogHandler(src)

		r := gin.New()
		r.GET("/v1/catalog", h.GetCatalog)

		w := serve(r, http.MethodGet, "/v1/catalog", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Locaux") {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("source failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		src := imocks.NewMockICatalogSource(ctrl)
		src.EXPECT().LoadCategories(gomock.Any()).Return(nil, errors.New("broken"))
		h := NewCatalogHandler(src)

		r := gin.New()
		r.GET("/v1/catalog", h.GetCatalog)

		w := serve(r, http.MethodGet, "/v1/catalog", "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}
