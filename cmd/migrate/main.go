package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/liamcoop/creditreports/internal/logger"
	"github.com/liamcoop/creditreports/migrations"
)

// migrator is the subset of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() (source error, database error)
}

var openMigrator = newMigrator

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code. The migrator is closed before it returns so
// the database connection and lock are released on failure too.
func run(args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	databaseURL := fs.String("database", "", "Database URL (defaults to DATABASE_URL)")
	migrationsPath := fs.String("path", "", "Path to a migrations directory (defaults to the embedded migrations)")
	command := fs.String("command", "up", "Migration command: up, down, steps, version, force")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *databaseURL == "" {
		*databaseURL = os.Getenv("DATABASE_URL")
	}
	if *databaseURL == "" {
		logger.Error("database URL is required; use -database or DATABASE_URL")
		return 2
	}

	m, err := openMigrator(*databaseURL, *migrationsPath)
	if err != nil {
		logger.Error("failed to create migration instance", "error", err)
		return 1
	}

	status := 0
	if err := execute(m, *command, fs.Args()); err != nil {
		logger.Error("migration failed", "command", *command, "error", err)
		status = 1
	}

	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Error("failed to close migration instance", "source_error", srcErr, "database_error", dbErr)
		status = 1
	}
	return status
}

func newMigrator(databaseURL, path string) (migrator, error) {
	if path == "" {
		logger.Info("using embedded migrations")
		return migrations.New(databaseURL)
	}

	logger.Info("using migrations directory", "path", path)
	return migrate.New(fmt.Sprintf("file://%s", path), databaseURL)
}

func execute(m migrator, command string, args []string) error {
	switch command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to run (database is up to date)")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("migrations completed")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		logger.Info("rollback completed")

	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			return err
		}
		if err := m.Steps(n); err != nil {
			return err
		}
		logger.Info("applied migration steps", "steps", n)

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("current version", "version", version, "dirty", dirty)

	case "force":
		version, err := intArg(args, "force")
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return err
		}
		logger.Info("forced version", "version", version)

	default:
		return fmt.Errorf("unknown command %q (use: up, down, steps, version, force)", command)
	}

	return nil
}

func intArg(args []string, command string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s requires a number: -command %s <n>", command, command)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}
