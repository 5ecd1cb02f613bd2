package main

import (
	"log"

	"github.com/MrSnakeDoc/dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("❌ dashboard: %v", err)
	}
}
