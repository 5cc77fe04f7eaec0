package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/database"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name      string
		cache     Pinger
		wantState string
		wantCache string
	}{
		{"no cache", nil, "ok", "disabled"},
		{"cache up", fakePinger{}, "ok", "ok"},
		{"cache down", fakePinger{err: errors.New("refused")}, "degraded", "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(database.NewMemoryStore(), tt.cache, "test")
			app := fiber.New()
			app.Get("/health", h.Health)

			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["status"] != tt.wantState || body["cache"] != tt.wantCache || body["database"] != "ok" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}
