// Command migrate manages the coupons table for the PostgreSQL store.
//
//	migrate [-dsn URL] up|down|version
//	migrate [-dsn URL] steps N
//	migrate [-dsn URL] force VERSION
//
// Without -dsn the connection comes from WARDEN_DB_DSN, or is built from the
// same WARDEN_DB_* variables the server reads.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "WARDEN_DB_DSN"

func main() {
	dsn := flag.String("dsn", "", "postgres:// connection URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatalf("resolve connection: %v", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("open embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer m.Close()

	msg, err := apply(m, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(msg)
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg := database.Config{Name: "warden", User: "warden", Password: "warden"}
	if err := cfg.Finalize(config.DatabaseEnv); err != nil {
		return "", err
	}
	return cfg.URL(), nil
}

func apply(m *migrate.Migrate, args []string) (string, error) {
	ignoreNoChange := func(err error) error {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}

	switch args[0] {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return "", fmt.Errorf("up: %w", err)
		}
		return "coupons schema is current", nil
	case "down":
		if err := ignoreNoChange(m.Down()); err != nil {
			return "", fmt.Errorf("down: %w", err)
		}
		return "coupons schema removed", nil
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return "", fmt.Errorf("version: %w", err)
		}
		return fmt.Sprintf("version %d (dirty: %t)", v, dirty), nil
	case "steps", "force":
		if len(args) < 2 {
			return "", fmt.Errorf("%s requires a number", args[0])
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("%s: %w", args[0], err)
		}
		if args[0] == "force" {
			if err := m.Force(n); err != nil {
				return "", fmt.Errorf("force: %w", err)
			}
			return fmt.Sprintf("forced to version %d", n), nil
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return "", fmt.Errorf("steps: %w", err)
		}
		return fmt.Sprintf("applied %d steps", n), nil
	default:
		return "", fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-dsn URL] up|down|version|steps N|force VERSION")
	flag.PrintDefaults()
}
