// Command migrate manages the database schema for the treasury
// research service.
//
// Usage:
//
//	migrate [-dir path] up
//	migrate [-dir path] down
//	migrate [-dir path] steps <n>
//	migrate [-dir path] version
//	migrate [-dir path] force <version>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/config"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/database"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/observability"
)

const connectTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dir := fs.String("dir", "", "migrations directory (defaults to the configured path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: migrate [-dir path] up|down|steps <n>|version|force <version>")
	}
	command := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}).With().Str("component", "migrate").Logger()

	migrationDir := cfg.Database.MigrationPath
	if *dir != "" {
		migrationDir = *dir
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrationDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	switch command {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "steps":
		n, err := intArg(fs, 1, "steps")
		if err != nil {
			return err
		}
		return migrator.Steps(n)
	case "version":
		v, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
		return nil
	case "force":
		v, err := intArg(fs, 1, "force")
		if err != nil {
			return err
		}
		return migrator.Force(v)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(fs *flag.FlagSet, pos int, command string) (int, error) {
	if fs.NArg() <= pos {
		return 0, fmt.Errorf("%s requires a numeric argument", command)
	}
	n, err := strconv.Atoi(fs.Arg(pos))
	if err != nil {
		return 0, fmt.Errorf("%s argument %q is not a number", command, fs.Arg(pos))
	}
	return n, nil
}
