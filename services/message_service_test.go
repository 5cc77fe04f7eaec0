package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
)

func TestSendAndRespond(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := f.register(t, model.RoleParent, "parent@example.com")
	mentor := f.register(t, model.RoleMentor, "mentor@example.com")
	week := 3

	sent, err := f.messages.Send(ctx, parent, SendInput{
		ToID:       mentor.ID,
		Subject:    "Progress",
		Content:    "How is week 3 going?",
		Type:       model.MessageTypeParentToMentor,
		WeekNumber: &week,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Status != model.MessageStatusAwaitingResponse || sent.FromName != parent.Name || sent.ToName != mentor.Name {
		t.Fatalf("unexpected sent message %+v", sent)
	}

	_, err = f.messages.Respond(ctx, parent, sent.ID, "answering myself")
	expectKind(t, err, ErrForbidden)

	answered, err := f.messages.Respond(ctx, mentor, sent.ID, "Going well")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if answered.Status != model.MessageStatusResponded || answered.Response == nil || *answered.Response != "Going well" || answered.RespondedAt == nil {
		t.Fatalf("original not updated: %+v", answered)
	}

	inbox, err := f.messages.ListReceived(ctx, parent)
	if err != nil {
		t.Fatalf("received: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected one reply, got %d", len(inbox))
	}
	reply := inbox[0]
	if reply.Subject != "Re: Progress" || reply.Type != model.MessageTypeMentorToParent {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if reply.WeekNumber == nil || *reply.WeekNumber != 3 {
		t.Fatalf("reply lost week number: %v", reply.WeekNumber)
	}
	if reply.ParentMessageID == nil || *reply.ParentMessageID != sent.ID {
		t.Fatalf("reply not linked to original: %v", reply.ParentMessageID)
	}

	all, err := f.messages.ListAll(ctx, mentor, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v %d", err, len(all))
	}
	waiting, err := f.messages.ListAll(ctx, mentor, model.MessageStatusAwaitingResponse)
	if err != nil || len(waiting) != 0 {
		t.Fatalf("awaiting: %v %d", err, len(waiting))
	}
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := f.register(t, model.RoleParent, "parent@example.com")
	bad := 40

	tests := []struct {
		name string
		in   SendInput
		kind error
	}{
		{"empty subject", SendInput{ToID: f.admin.ID, Content: "x"}, ErrValidation},
		{"week out of range", SendInput{ToID: f.admin.ID, Subject: "s", Content: "x", WeekNumber: &bad}, ErrValidation},
		{"to yourself", SendInput{ToID: parent.ID, Subject: "s", Content: "x"}, ErrValidation},
		{"unknown recipient", SendInput{ToID: "missing", Subject: "s", Content: "x"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.messages.Send(ctx, parent, tt.in)
			expectKind(t, err, tt.kind)
		})
	}
}

func TestMessageAccessAndUnknownNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := f.register(t, model.RoleParent, "parent@example.com")
	mentor := f.register(t, model.RoleMentor, "mentor@example.com")
	outsider := f.register(t, model.RoleParent, "outsider@example.com")

	sent, err := f.messages.Send(ctx, parent, SendInput{ToID: mentor.ID, Subject: "Hi", Content: "Hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	_, err = f.messages.Get(ctx, outsider, sent.ID)
	expectKind(t, err, ErrForbidden)

	// a deleted counterpart resolves to the placeholder name
	if err := f.store.DeleteUser(ctx, parent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := f.messages.Get(ctx, mentor, sent.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FromName != model.UnknownUserName || got.ToName != mentor.Name {
		t.Fatalf("names = %q/%q", got.FromName, got.ToName)
	}
}

func TestNameResolverCaches(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	u := &model.User{Name: "Cached", Email: "c@example.com", Role: model.RoleMentor}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	r := newNameResolver(store)
	if n, _ := r.name(ctx, u.ID); n != "Cached" {
		t.Fatalf("got %q", n)
	}
	if err := store.DeleteUser(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := r.name(ctx, u.ID); n != "Cached" {
		t.Fatalf("expected cached name, got %q", n)
	}
}
