// migrate applies the Postgres migrations for persisted state; SQLite creates its schema on open.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"accessibility-insights/background/internal/config"
	"accessibility-insights/background/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if !cfg.UsesPostgres() {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; SQLite persisted state needs no migrations")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
