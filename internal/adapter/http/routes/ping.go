package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func addPingRoutes(root *gin.Engine, rg *gin.RouterGroup) {
	root.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	rg.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}
