package main

import (
	_ "github.com/Sarrabentardeit/Auditalex/docs"
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/routes"

	_ "github.com/joho/godotenv/autoload"
)

// @title           Auditalex API
// @version         1.0
// @description     Food-hygiene audits, scoring and reports backed by DynamoDB.

// @host localhost:8080

// @BasePath  /v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	routes.Run()
}
