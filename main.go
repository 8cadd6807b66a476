package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/secmon-lab/smartresolve/pkg/cli"
)

var version = "dev"

func main() {
	// Values from .env never override variables already set
	_ = godotenv.Load()

	if err := cli.Run(context.Background(), os.Args, version); err != nil {
		os.Exit(1)
	}
}
