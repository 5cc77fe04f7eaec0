package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sahilchouksey/curriculum-tracker/config"
	"github.com/sahilchouksey/curriculum-tracker/database"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if err := run(command); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(command string) error {
	switch command {
	case "up", "down", "status":
	default:
		return errors.New(usage)
	}

	if err := config.LoadENV(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", database.DSN(env))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("check whether PostgreSQL is running: %w", err)
	}
	return database.Migrate(ctx, db, command)
}
