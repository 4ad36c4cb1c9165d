package handlers

import (
	"net/http"

	response "github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/response"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces"
	"github.com/Sarrabentardeit/Auditalex/pkg"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	source interfaces.ICatalogSource
}

func NewCatalogHandler(source interfaces.ICatalogSource) *CatalogHandler {
	return &CatalogHandler{source: source}
}

// GetCatalog godoc
// @Summary      Blank audit categories
// @Tags         catalog
// @Produce      json
// @Security     Bearer
// @Success      200  {object}  response.CatalogResponse
// @Router       /catalog [get]
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	cats, err := h.source.LoadCategories(c.Request.Context())
	if err != nil {
		appErr := pkg.NewDomainError("CATALOG_UNAVAILABLE", "Catalog unavailable", err, http.StatusInternalServerError)
		_ = c.Error(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.CatalogResponse{Categories: cats})
}
