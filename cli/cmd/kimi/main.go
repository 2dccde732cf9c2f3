// Kimi CLI - command-line client for the Kimi web API.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/muran-prog/kimi-go/cli/commands"
)

// ExitCoder is an interface for errors that have an exit code.
type ExitCoder interface {
	ExitCode() int
}

func main() {
	// A local .env may carry KIMI_* overrides; absence is fine.
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		if ec, ok := err.(ExitCoder); ok {
			os.Exit(ec.ExitCode())
		}
		os.Exit(1)
	}
}
