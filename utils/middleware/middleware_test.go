package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLockoutFor(t *testing.T) {
	tests := []struct {
		attempts int64
		want     time.Duration
	}{
		{0, 0},
		{4, 0},
		{5, 2 * time.Minute},
		{9, 2 * time.Minute},
		{10, time.Hour},
		{24, time.Hour},
		{25, 24 * time.Hour},
		{100, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := LockoutFor(tt.attempts); got != tt.want {
			t.Errorf("LockoutFor(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestBruteForceWithoutRedisPassesThrough(t *testing.T) {
	bfp := NewBruteForceProtection(nil, logging.Nop().Base)
	app := fiber.New()
	app.Post("/login", bfp.CheckLockout(), func(c *fiber.Ctx) error {
		bfp.RecordFailedAttempt(c.UserContext(), c.IP())
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRequireCapability(t *testing.T) {
	withUser := func(u *model.User) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if u != nil {
				c.Locals(localsUser, u)
			}
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	tests := []struct {
		name string
		user *model.User
		want int
	}{
		{"no user", nil, fiber.StatusUnauthorized},
		{"mentee", &model.User{Role: model.RoleMentee}, fiber.StatusForbidden},
		{"mentor", &model.User{Role: model.RoleMentor}, fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", withUser(tt.user), RequireCapability(model.ActionReviewWeek), ok)
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "*"},
		{" , ", "*"},
		{"https://a.example", "https://a.example"},
		{" https://a.example/ ,https://b.example", "https://a.example,https://b.example"},
	}
	for _, tt := range tests {
		if got := ParseOrigins(tt.raw); got != tt.want {
			t.Errorf("ParseOrigins(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New()
	app.Use(AccessLog(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusServiceUnavailable, "down") })

	for _, path := range []string{"/ok", "/boom"} {
		if _, err := app.Test(httptest.NewRequest("GET", path, nil)); err != nil {
			t.Fatal(err)
		}
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["status"] != int64(fiber.StatusNoContent) {
		t.Fatalf("unexpected ok entry: %+v", entries[0].ContextMap())
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].ContextMap()["status"] != int64(fiber.StatusServiceUnavailable) {
		t.Fatalf("unexpected failure entry: %+v", entries[1].ContextMap())
	}
}
