//go:build testutil

package testdb

import (
	"context"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// Handle is a migrated GORM store backed by a throwaway PostgreSQL container
type Handle struct {
	Store  *database.GORMStore
	cancel func()
	stop   func(context.Context) error
}

func (h *Handle) Close() {
	if h.Store != nil {
		_ = h.Store.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start boots postgres, connects the store and applies every migration
func Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("curriculum"),
		postgres.WithUsername("curriculum"),
		postgres.WithPassword("curriculum"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	store, err := database.OpenGORM(dsn, "test", zap.NewNop())
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &Handle{
		Store:  store,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}
