package main

import (
	"events-api/cmd"
	"log/slog"
	"os"
)

func main() {
	if err := cmd.Execute(); err != nil {
		slog.Error("events-api failed", "error", err)
		os.Exit(1)
	}
}
