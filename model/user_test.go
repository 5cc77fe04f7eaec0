package model

import (
	"reflect"
	"testing"

	"github.com/lib/pq"
)

func TestCompleteWeek(t *testing.T) {
	u := &User{Role: RoleMentee, CurrentWeek: 1, CompletedWeeks: pq.Int64Array{}}

	u.CompleteWeek(1)
	if !reflect.DeepEqual(u.CompletedWeeks, pq.Int64Array{1}) || u.CurrentWeek != 2 {
		t.Fatalf("after week 1: completed=%v current=%d", u.CompletedWeeks, u.CurrentWeek)
	}

	u.CompleteWeek(5)
	if u.CurrentWeek != 6 {
		t.Fatalf("expected current week 6, got %d", u.CurrentWeek)
	}

	// earlier week never moves current_week backwards
	u.CompleteWeek(3)
	if !reflect.DeepEqual(u.CompletedWeeks, pq.Int64Array{1, 3, 5}) || u.CurrentWeek != 6 {
		t.Fatalf("after week 3: completed=%v current=%d", u.CompletedWeeks, u.CurrentWeek)
	}

	// repeating a week keeps set semantics
	u.CompleteWeek(3)
	if len(u.CompletedWeeks) != 3 {
		t.Fatalf("duplicate week recorded: %v", u.CompletedWeeks)
	}
}

func TestCompleteWeekFromZero(t *testing.T) {
	u := &User{Role: RoleMentee}
	u.CompleteWeek(1)
	if u.CurrentWeek != 2 || !u.HasCompleted(1) {
		t.Fatalf("got current=%d completed=%v", u.CurrentWeek, u.CompletedWeeks)
	}
}

func TestAssignedMenteesSetSemantics(t *testing.T) {
	u := &User{Role: RoleMentor}
	u.AddMentee("a")
	u.AddMentee("b")
	u.AddMentee("a")
	if !reflect.DeepEqual(u.AssignedMentees, pq.StringArray{"a", "b"}) {
		t.Fatalf("got %v", u.AssignedMentees)
	}
	u.RemoveMentee("a")
	u.RemoveMentee("missing")
	if !reflect.DeepEqual(u.AssignedMentees, pq.StringArray{"b"}) {
		t.Fatalf("got %v", u.AssignedMentees)
	}
}

func TestProgressPercent(t *testing.T) {
	u := &User{CompletedWeeks: pq.Int64Array{1, 2, 3}}
	if got := u.ProgressPercent(); got != 8 {
		t.Fatalf("3/36 should round to 8, got %d", got)
	}
	if got := (&User{}).ProgressPercent(); got != 0 {
		t.Fatalf("empty progress should be 0, got %d", got)
	}
}
