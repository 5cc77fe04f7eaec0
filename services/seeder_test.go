package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
)

func TestSeederIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	seeder := NewSeeder(store, logging.Nop().Base)

	for i := 0; i < 2; i++ {
		if err := seeder.SeedAll(ctx, "root@example.com", testPassword); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	admins, err := store.CountUsers(ctx, database.UserFilter{Role: model.RoleAdmin})
	if err != nil || admins != 1 {
		t.Fatalf("admins: %v %d", err, admins)
	}
	weeks, err := store.ListWeeks(ctx, 0)
	if err != nil || len(weeks) != model.TotalWeeks {
		t.Fatalf("weeks: %v %d", err, len(weeks))
	}
	if weeks[12].BlocNumber != 2 {
		t.Fatalf("week 13 bloc = %d", weeks[12].BlocNumber)
	}

	created, err := seeder.SeedCurriculum(ctx)
	if err != nil || created != 0 {
		t.Fatalf("reseed created %d: %v", created, err)
	}
}

func TestSeederSkipsAdminWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	if err := NewSeeder(store, logging.Nop().Base).SeedAdminUser(ctx, "", ""); err != nil {
		t.Fatal(err)
	}
	n, _ := store.CountUsers(ctx, database.UserFilter{})
	if n != 0 {
		t.Fatalf("expected no users, got %d", n)
	}
}
