package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"
	"github.com/Sarrabentardeit/Auditalex/pkg"

	"github.com/gin-gonic/gin"
)

const identityKey = "auditalex.identity"

var (
	errMissingToken = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or malformed bearer token", http.StatusUnauthorized)
	errBadToken     = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Invalid or expired token", http.StatusUnauthorized)
	errDisabled     = pkg.NewDomainErrorSimple("ACCOUNT_DISABLED", "Account disabled", http.StatusForbidden)
	errForbidden    = pkg.NewDomainErrorSimple("FORBIDDEN", "Admin role required", http.StatusForbidden)
)

// Auth resolves the bearer token into an Identity stored on the context.
func Auth(auth usecase.IAuthUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(errMissingToken.HTTPStatus, errMissingToken.ToHTTPError())
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrAccountDisabled):
				c.AbortWithStatusJSON(errDisabled.HTTPStatus, errDisabled.ToHTTPError())
			case errors.Is(err, usecase.ErrInvalidToken):
				c.AbortWithStatusJSON(errBadToken.HTTPStatus, errBadToken.ToHTTPError())
			default:
				appErr := pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
				_ = c.Error(err)
				c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			}
			return
		}

		SetIdentity(c, id)
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(errForbidden.HTTPStatus, errForbidden.ToHTTPError())
			return
		}
		c.Next()
	}
}

func SetIdentity(c *gin.Context, id entities.Identity) {
	c.Set(identityKey, id)
}

func IdentityFrom(c *gin.Context) (entities.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return entities.Identity{}, false
	}
	id, ok := v.(entities.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
