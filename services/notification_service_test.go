package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/curriculum-tracker/model"
)

func TestNotificationsPerRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.pair(t, "a@example.com", "b@example.com")
	parent := f.register(t, model.RoleParent, "parent@example.com")

	first, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.messages.Send(ctx, parent, SendInput{ToID: b.ID, Subject: "Question", Content: "?"}); err != nil {
		t.Fatal(err)
	}

	mentorNotes, err := f.notes.List(ctx, b)
	if err != nil {
		t.Fatalf("mentor notifications: %v", err)
	}
	if len(mentorNotes) != 3 {
		t.Fatalf("expected 2 pending weeks and 1 message, got %+v", mentorNotes)
	}
	for i := 1; i < len(mentorNotes); i++ {
		if mentorNotes[i].CreatedAt.After(mentorNotes[i-1].CreatedAt) {
			t.Fatal("notifications not newest first")
		}
	}
	var sawMessage bool
	for _, n := range mentorNotes {
		if n.Read {
			t.Fatal("derived notifications are never read")
		}
		if n.Type == model.NotificationTypeMessage {
			sawMessage = true
			if n.Title != "New message from "+parent.Name || n.Message != "Question" {
				t.Fatalf("unexpected message notification %+v", n)
			}
		}
	}
	if !sawMessage {
		t.Fatal("missing message notification")
	}

	adminNotes, err := f.notes.List(ctx, f.admin)
	if err != nil || len(adminNotes) != 3 {
		t.Fatalf("admin notifications: %v %d", err, len(adminNotes))
	}

	if _, err := f.approvals.Approve(ctx, b, first.ID, nil); err != nil {
		t.Fatal(err)
	}
	menteeNotes, err := f.notes.List(ctx, a)
	if err != nil {
		t.Fatalf("mentee notifications: %v", err)
	}
	if len(menteeNotes) != 1 || menteeNotes[0].Title != "Week approved" || menteeNotes[0].Message != "Week 1 has been approved" {
		t.Fatalf("unexpected mentee notifications %+v", menteeNotes)
	}

	parentNotes, err := f.notes.List(ctx, parent)
	if err != nil || len(parentNotes) != 0 {
		t.Fatalf("parent notifications: %v %+v", err, parentNotes)
	}
}

func TestMenteeNotificationsLimited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.pair(t, "a@example.com", "b@example.com")

	for week := 1; week <= recentApprovalsLimit+2; week++ {
		approval, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: week})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.approvals.Approve(ctx, b, approval.ID, nil); err != nil {
			t.Fatal(err)
		}
	}
	notes, err := f.notes.List(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != recentApprovalsLimit {
		t.Fatalf("got %d notifications, want %d", len(notes), recentApprovalsLimit)
	}
}

func TestPendingItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, b := f.pair(t, "a@example.com", "b@example.com")
	_, d := f.pair(t, "c@example.com", "d@example.com")

	if _, err := f.approvals.Submit(ctx, a, SubmitInput{WeekNumber: 1}); err != nil {
		t.Fatal(err)
	}

	own, err := f.notes.Pending(ctx, b)
	if err != nil || len(own.Approvals) != 1 {
		t.Fatalf("mentor pending: %v %+v", err, own)
	}
	none, err := f.notes.Pending(ctx, d)
	if err != nil || len(none.Approvals) != 0 {
		t.Fatalf("other mentor pending: %v %+v", err, none)
	}
	all, err := f.notes.Pending(ctx, f.admin)
	if err != nil || len(all.Approvals) != 1 {
		t.Fatalf("admin pending: %v %+v", err, all)
	}
	empty, err := f.notes.Pending(ctx, a)
	if err != nil || empty.Approvals == nil || empty.Messages == nil || len(empty.Approvals) != 0 {
		t.Fatalf("mentee pending should be empty lists: %v %+v", err, empty)
	}
}
