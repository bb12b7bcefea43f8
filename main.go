package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"near-intents/cmd"
)

func main() {
	// A .env file is a convenience for local use, not a requirement.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
