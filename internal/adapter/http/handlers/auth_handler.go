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

var errInvalidCredentialsPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Email and password are required", http.StatusBadRequest)

type AuthHandler struct {
	usecase usecase.IAuthUseCase
}

func NewAuthHandler(uc usecase.IAuthUseCase) *AuthHandler {
	return &AuthHandler{usecase: uc}
}

// Login godoc
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      request.LoginRequest  true  "Credentials"
// @Success      200          {object}  response.SessionResponse
// @Failure      401          {object}  pkg.HTTPError
// @Failure      403          {object}  pkg.HTTPError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var payload request.LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidCredentialsPayload.HTTPStatus, errInvalidCredentialsPayload.ToHTTPError())
		return
	}

	session, err := h.usecase.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		appErr := mapAuthError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromSession(session))
}

// Register godoc
// @Summary      Create an auditor account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        account  body      request.RegisterRequest  true  "Account"
// @Success      201      {object}  response.SessionResponse
// @Failure      409      {object}  pkg.HTTPError
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var payload request.RegisterRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidUserPayload.HTTPStatus, errInvalidUserPayload.ToHTTPError())
		return
	}

	session, err := h.usecase.Register(c.Request.Context(), payload.ToInput())
	if err != nil {
		appErr := mapAuthError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusCreated, response.FromSession(session))
}

// Me godoc
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     Bearer
// @Success      200  {object}  response.UserResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	user, err := h.usecase.Me(c.Request.Context(), caller)
	if err != nil {
		appErr := mapAuthError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

func mapAuthError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return pkg.NewDomainErrorSimple("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrAccountDisabled):
		return pkg.NewDomainErrorSimple("ACCOUNT_DISABLED", "Account disabled", http.StatusForbidden)
	case errors.Is(err, usecase.ErrUnauthenticated), errors.Is(err, usecase.ErrInvalidToken):
		return errUnauthenticated
	default:
		return mapUserError(err)
	}
}
