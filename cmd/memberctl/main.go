package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rpattn/memberload/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment and config.yaml still apply.
	_ = godotenv.Load()

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
