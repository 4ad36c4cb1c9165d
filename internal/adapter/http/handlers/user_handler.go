package handlers

import (
	"errors"
	"net/http"

	request "github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/request"
	response "github.com/Sarrabentardeit/Auditalex/internal/adapter/http/dto/response"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"
	"github.com/Sarrabentardeit/Auditalex/pkg"

	"github.com/gin-gonic/gin"
)

var errInvalidUserPayload = pkg.NewDomainErrorSimple("INVALID_USER_INPUT", "Invalid user payload", http.StatusBadRequest)

// UserHandler serves account administration. Every route is admin only.
type UserHandler struct {
	usecase usecase.IUserUseCase
}

func NewUserHandler(uc usecase.IUserUseCase) *UserHandler {
	return &UserHandler{usecase: uc}
}

// ListUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  response.UserResponse
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.usecase.List(c.Request.Context())
	if err != nil {
		appErr := mapUserError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromUsers(users))
}

// GetUser godoc
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.UserResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapUserError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

// CreateUser godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        user  body      request.CreateUserRequest  true  "User"
// @Success      201   {object}  response.UserResponse
// @Failure      409   {object}  pkg.HTTPError
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var payload request.CreateUserRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidUserPayload.HTTPStatus, errInvalidUserPayload.ToHTTPError())
		return
	}

	user, err := h.usecase.Create(c.Request.Context(), payload.ToInput())
	if err != nil {
		appErr := mapUserError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusCreated, response.FromUser(user))
}

// UpdateUser godoc
// @Summary      Partially update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        id    path      string                     true  "User ID"
// @Param        user  body      request.UpdateUserRequest  true  "Fields to change"
// @Success      200   {object}  response.UserResponse
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var payload request.UpdateUserRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidUserPayload.HTTPStatus, errInvalidUserPayload.ToHTTPError())
		return
	}

	user, err := h.usecase.Update(c.Request.Context(), caller, c.Param("id"), payload.ToInput())
	if err != nil {
		appErr := mapUserError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

// DeleteUser godoc
// @Summary      Delete a user
// @Tags         users
// @Security     Bearer
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	if err := h.usecase.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		appErr := mapUserError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleUserActive godoc
// @Summary      Enable or disable a user
// @Tags         users
// @Produce      json
// @Security     Bearer
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.UserResponse
// @Router       /users/{id}/toggle-active [patch]
func (h *UserHandler) ToggleUserActive(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	user, err := h.usecase.ToggleActive(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		appErr := mapUserError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

func mapUserError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidUserID),
		errors.Is(err, usecase.ErrInvalidEmail),
		errors.Is(err, usecase.ErrInvalidName),
		errors.Is(err, usecase.ErrInvalidRole),
		errors.Is(err, usecase.ErrWeakPassword),
		errors.Is(err, usecase.ErrEmptyUserPatch):
		return pkg.NewDomainError("INVALID_REQUEST", err.Error(), err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrSelfModification):
		return pkg.NewDomainErrorSimple("SELF_MODIFICATION", "You cannot delete or disable your own account", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		return pkg.NewDomainErrorSimple("EMAIL_ALREADY_EXISTS", "Email already in use", http.StatusConflict)
	case errors.Is(err, usecase.ErrUserNotFound):
		return pkg.NewDomainErrorSimple("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
