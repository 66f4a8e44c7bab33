package main

import (
	"log"

	"github.com/MrSnakeDoc/snoozzd/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ snoozzd failed to start: %v", err)
	}
}
