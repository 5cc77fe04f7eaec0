package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
)

func TestMemoryStore(t *testing.T) {
	runStorageContract(t, database.NewMemoryStore())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()

	user := &model.User{Name: "A", Email: "a@example.com", Role: model.RoleMentee, CompletedWeeks: []int64{1}}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.CompletedWeeks[0] = 99
	got.Name = "changed"

	again, _ := store.GetUserByID(ctx, user.ID)
	if again.Name != "A" || again.CompletedWeeks[0] != 1 {
		t.Fatalf("store leaked internal state: %+v", again)
	}
}

func TestMemoryStoreTransactionRespectsCancelledContext(t *testing.T) {
	store := database.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	err := store.Transaction(ctx, func(tx database.Storage) error {
		cancel()
		return tx.RevokeToken(ctx, &model.JWTTokenBlacklist{TokenID: "t", ExpiresAt: time.Now().Add(time.Hour)})
	})
	if err == nil {
		t.Fatal("expected cancelled transaction to fail")
	}
	revoked, _ := store.IsTokenRevoked(context.Background(), "t", time.Now())
	if revoked {
		t.Fatal("cancelled transaction must not commit")
	}
}
