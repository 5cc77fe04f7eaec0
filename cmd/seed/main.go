package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sahilchouksey/curriculum-tracker/app"
	"github.com/sahilchouksey/curriculum-tracker/config"
	"github.com/sahilchouksey/curriculum-tracker/services"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seeding failed:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables
	if err := config.LoadENV(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}

	logs, err := logging.Init(env.LOG_LEVEL, env.GO_ENV)
	if err != nil {
		return err
	}
	defer logs.Closer()

	ctx := context.Background()
	store, err := app.OpenStore(ctx, env, logs.Base)
	if err != nil {
		return err
	}
	defer store.Close()

	logs.Base.Info("seeding database", zap.String("driver", env.DB_DRIVER))
	return services.NewSeeder(store, logs.Base).SeedAll(ctx, env.ADMIN_EMAIL, env.ADMIN_PASSWORD)
}
