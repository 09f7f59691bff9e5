// Package main is the entry point for the price sync worker.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/sosanhsach/pricesync/cmd/pricesync/app"
)

func main() {
	// A missing .env is fine; explicit files are loaded by the run
	// command's --env-file flag.
	_ = godotenv.Load()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
