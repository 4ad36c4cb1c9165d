package routes

import (
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/handlers"
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/middleware"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/ratelimit"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	PathUsers = "/users"
	PathAuth  = "/auth"
)

// addUserRoutes expects rg to already authenticate the caller.
func addUserRoutes(rg *gin.RouterGroup, userHandler *handlers.UserHandler) {
	users := rg.Group(PathUsers)
	users.Use(middleware.RequireAdmin())
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
		users.PATCH("/:id/toggle-active", userHandler.ToggleUserActive)
	}
}

func addAuthRoutes(rg *gin.RouterGroup, authHandler *handlers.AuthHandler, authUseCase usecase.IAuthUseCase, loginLimiter ratelimit.Limiter, logger *zap.Logger) {
	auth := rg.Group(PathAuth)
	{
		auth.POST("/login", middleware.RateLimit(loginLimiter, logger), authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/me", middleware.Auth(authUseCase), authHandler.Me)
	}
}
