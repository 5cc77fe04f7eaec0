package services

import (
	"context"
	"os"
	"testing"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/auth"
	"github.com/sahilchouksey/curriculum-tracker/utils/logging"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

// fixture wires every service over one in-memory store
type fixture struct {
	store     *database.MemoryStore
	users     *UserService
	approvals *ApprovalService
	messages  *MessageService
	notes     *NotificationService
	analytics *AnalyticsService
	admin     *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := database.NewMemoryStore()
	log := logging.Nop().Base
	f := &fixture{
		store:     store,
		users:     NewUserService(store, log),
		approvals: NewApprovalService(store, log),
		messages:  NewMessageService(store, log),
		notes:     NewNotificationService(store, log),
		analytics: NewAnalyticsService(store, nil, 0, log),
	}
	admin, err := f.users.CreateFirstAdmin(context.Background(), CreateUserInput{
		Name: "Admin", Email: "admin@example.com", Password: testPassword,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	f.admin = admin
	return f
}

func (f *fixture) register(t *testing.T, role model.Role, email string) *model.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), CreateUserInput{
		Name: email, Email: email, Password: testPassword, Role: role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

// pair registers a mentee and a mentor and assigns one to the other
func (f *fixture) pair(t *testing.T, mentee, mentor string) (*model.User, *model.User) {
	t.Helper()
	a := f.register(t, model.RoleMentee, mentee)
	b := f.register(t, model.RoleMentor, mentor)
	if err := f.users.Assign(context.Background(), f.admin, a.ID, b.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return f.reload(t, a.ID), f.reload(t, b.ID)
}

func (f *fixture) reload(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := f.store.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload %s: %v", id, err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func expectKind(t *testing.T, err, kind error) {
	t.Helper()
	if !IsKind(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
