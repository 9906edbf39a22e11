package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional for the client; only complain when one
	// exists but can't be read.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("error: %v", err)
	}
}
