package main

import (
	"os"

	"github.com/Sarrabentardeit/Auditalex/internal/adapter/cli"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
