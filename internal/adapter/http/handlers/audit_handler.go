package handlers

import (
	"errors"
	"net/http"

	request "github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/request"
	response "github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/response"
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/middleware"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/report"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"
	"github.com/Sarrabentardeit/Auditalex/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidAuditPayload = pkg.NewDomainErrorSimple("INVALID_AUDIT_INPUT", "Invalid audit payload", http.StatusBadRequest)
	errUnauthenticated     = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
)

// AuditHandler serves the audit document endpoints.
type AuditHandler struct {
	usecase   usecase.IAuditUseCase
	formatter *report.Formatter
}

func NewAuditHandler(uc usecase.IAuditUseCase, formatter *report.Formatter) *AuditHandler {
	if formatter == nil {
		formatter = report.NewFormatter()
	}
	return &AuditHandler{usecase: uc, formatter: formatter}
}

// CreateAudit godoc
// @Summary      Create an audit
// @Tags         audits
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        audit  body      request.CreateAuditRequest  true  "Audit"
// @Success      201    {object}  response.AuditResponse
// @Failure      400    {object}  pkg.HTTPError
// @Router       /audits [post]
func (h *AuditHandler) CreateAudit(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var payload request.CreateAuditRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidAuditPayload.HTTPStatus, errInvalidAuditPayload.ToHTTPError())
		return
	}
	if err := payload.Validate(); err != nil {
		appErr := pkg.NewDomainError("INVALID_AUDIT_INPUT", err.Error(), err, http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	audit, err := h.usecase.Create(c.Request.Context(), caller, payload.ToInput())
	if err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromAudit(audit))
}

// ListAudits godoc
// @Summary      List audits visible to the caller
// @Tags         audits
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  response.AuditResponse
// @Router       /audits [get]
func (h *AuditHandler) ListAudits(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	audits, err := h.usecase.List(c.Request.Context(), caller)
	if err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromAudits(audits))
}

// GetAudit godoc
// @Summary      Get an audit
// @Tags         audits
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Audit ID"
// @Success      200  {object}  response.AuditResponse
// @Failure      404  {object}  pkg.HTTPError
// @Router       /audits/{id} [get]
func (h *AuditHandler) GetAudit(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	audit, err := h.usecase.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromAudit(audit))
}

// UpdateAudit godoc
// @Summary      Partially update an audit
// @Tags         audits
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id     path      string                      true  "Audit ID"
// @Param        audit  body      request.UpdateAuditRequest  true  "Fields to change"
// @Success      200    {object}  response.AuditResponse
// @Failure      409    {object}  pkg.HTTPError
// @Router       /audits/{id} [put]
func (h *AuditHandler) UpdateAudit(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var payload request.UpdateAuditRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidAuditPayload.HTTPStatus, errInvalidAuditPayload.ToHTTPError())
		return
	}
	if err := payload.Validate(); err != nil {
		appErr := pkg.NewDomainError("INVALID_AUDIT_INPUT", err.Error(), err, http.StatusBadRequest)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	audit, err := h.usecase.Update(c.Request.Context(), caller, c.Param("id"), payload.ToPatch())
	if err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromAudit(audit))
}

// DeleteAudit godoc
// @Summary      Delete an audit
// @Tags         audits
// @Security     Bearer
// @Param        id   path  string  true  "Audit ID"
// @Success      204
// @Failure      404  {object}  pkg.HTTPError
// @Router       /audits/{id} [delete]
func (h *AuditHandler) DeleteAudit(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	if err := h.usecase.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAuditResults godoc
// @Summary      Score an audit
// @Tags         audits
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "Audit ID"
// @Success      200  {object}  response.ResultsResponse
// @Router       /audits/{id}/results [get]
func (h *AuditHandler) GetAuditResults(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	audit, results, err := h.usecase.Results(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromResults(audit, results))
}

// GetAuditReport godoc
// @Summary      Render the printable report of an audit
// @Tags         audits
// @Produce      html
// @Security     Bearer
// @Param        id   path  string  true  "Audit ID"
// @Success      200  {string}  string
// @Router       /audits/{id}/report [get]
func (h *AuditHandler) GetAuditReport(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	audit, results, err := h.usecase.Results(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		appErr := mapAuditError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	doc, err := h.formatter.Render(audit, results)
	if err != nil {
		appErr := pkg.NewDomainError("REPORT_FAILED", "Could not render the report", err, http.StatusInternalServerError)
		_ = c.Error(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML()))
}

func callerFrom(c *gin.Context) (entities.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.ID == "" {
		c.JSON(errUnauthenticated.HTTPStatus, errUnauthenticated.ToHTTPError())
		return entities.Identity{}, false
	}
	return id, true
}

func mapAuditError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return errUnauthenticated
	case errors.Is(err, usecase.ErrInvalidAuditID),
		errors.Is(err, usecase.ErrInvalidAuditDate),
		errors.Is(err, usecase.ErrInvalidAuditStatus),
		errors.Is(err, usecase.ErrInvalidAuditItem),
		errors.Is(err, usecase.ErrEmptyAuditPatch):
		return pkg.NewDomainError("INVALID_REQUEST", err.Error(), err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvalidStatusTransition):
		return pkg.NewDomainErrorSimple("INVALID_STATUS_TRANSITION", "A completed audit cannot go back to in progress", http.StatusConflict)
	case errors.Is(err, usecase.ErrAuditNotFound):
		return pkg.NewDomainErrorSimple("AUDIT_NOT_FOUND", "Audit not found", http.StatusNotFound)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
