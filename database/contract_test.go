package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
)

// runStorageContract exercises behaviour every Storage implementation must share
func runStorageContract(t *testing.T, store database.Storage) {
	ctx := context.Background()

	mentor := &model.User{Name: "Mentor", Email: "mentor@example.com", PasswordHash: "x", Role: model.RoleMentor}
	if err := store.CreateUser(ctx, mentor); err != nil {
		t.Fatalf("create mentor: %v", err)
	}
	if mentor.ID == "" {
		t.Fatal("expected CreateUser to assign an id")
	}
	mentee := &model.User{
		Name:           "Mentee",
		Email:          "mentee@example.com",
		PasswordHash:   "x",
		Role:           model.RoleMentee,
		CurrentWeek:    1,
		CompletedWeeks: pq.Int64Array{},
		MentorID:       &mentor.ID,
		ParentEmail:    "parent@example.com",
	}
	if err := store.CreateUser(ctx, mentee); err != nil {
		t.Fatalf("create mentee: %v", err)
	}

	t.Run("users", func(t *testing.T) {
		dup := &model.User{Name: "Other", Email: "mentor@example.com", PasswordHash: "x", Role: model.RoleParent}
		if err := store.CreateUser(ctx, dup); !errors.Is(err, database.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for reused email, got %v", err)
		}

		got, err := store.GetUserByEmail(ctx, "mentee@example.com")
		if err != nil {
			t.Fatalf("get by email: %v", err)
		}
		if got.ID != mentee.ID || got.MentorID == nil || *got.MentorID != mentor.ID {
			t.Fatalf("unexpected mentee %+v", got)
		}

		if _, err := store.GetUserByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		mentees, err := store.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee, MentorID: mentor.ID})
		if err != nil || len(mentees) != 1 {
			t.Fatalf("list by mentor: %v %d", err, len(mentees))
		}
		children, err := store.ListUsers(ctx, database.UserFilter{ParentEmail: "parent@example.com"})
		if err != nil || len(children) != 1 {
			t.Fatalf("list by parent email: %v %d", err, len(children))
		}
		count, err := store.CountUsers(ctx, database.UserFilter{})
		if err != nil || count != 2 {
			t.Fatalf("count users: %v %d", err, count)
		}
	})

	t.Run("member numbers", func(t *testing.T) {
		first := &model.User{Name: "One", Email: "one@example.com", PasswordHash: "x", Role: model.RoleMentee,
			MenteeNumber: "MN900", CompletedWeeks: pq.Int64Array{}}
		if err := store.CreateUser(ctx, first); err != nil {
			t.Fatalf("create numbered mentee: %v", err)
		}
		defer store.DeleteUser(ctx, first.ID)

		again := &model.User{Name: "Two", Email: "two@example.com", PasswordHash: "x", Role: model.RoleMentee,
			MenteeNumber: "MN900", CompletedWeeks: pq.Int64Array{}}
		if err := store.CreateUser(ctx, again); !errors.Is(err, database.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for reused mentee number, got %v", err)
		}

		mentor2 := &model.User{Name: "M2", Email: "m2@example.com", PasswordHash: "x", Role: model.RoleMentor,
			MembershipNumber: "MEM900", AssignedMentees: pq.StringArray{}}
		if err := store.CreateUser(ctx, mentor2); err != nil {
			t.Fatalf("create numbered mentor: %v", err)
		}
		defer store.DeleteUser(ctx, mentor2.ID)
		mentor3 := &model.User{Name: "M3", Email: "m3@example.com", PasswordHash: "x", Role: model.RoleMentor,
			MembershipNumber: "MEM900", AssignedMentees: pq.StringArray{}}
		if err := store.CreateUser(ctx, mentor3); !errors.Is(err, database.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for reused membership number, got %v", err)
		}

		// empty numbers never clash
		p1 := &model.User{Name: "P1", Email: "p1@example.com", PasswordHash: "x", Role: model.RoleParent, Children: pq.StringArray{}}
		p2 := &model.User{Name: "P2", Email: "p2@example.com", PasswordHash: "x", Role: model.RoleParent, Children: pq.StringArray{}}
		for _, p := range []*model.User{p1, p2} {
			if err := store.CreateUser(ctx, p); err != nil {
				t.Fatalf("create parent %s: %v", p.Email, err)
			}
			defer store.DeleteUser(ctx, p.ID)
		}
	})

	t.Run("curriculum", func(t *testing.T) {
		for _, week := range []int{13, 2, 1} {
			activity := &model.WeekActivity{
				Week:             week,
				BlocNumber:       model.BlocForWeek(week),
				SubTheme:         "Theme",
				ActivityName:     "Activity",
				LearningOutcome:  "Outcome",
				Description:      "Description",
				Digitization:     "Digitization",
				TalentIndicators: []string{"focus"},
			}
			if err := store.CreateWeek(ctx, activity); err != nil {
				t.Fatalf("create week %d: %v", week, err)
			}
		}
		dup := &model.WeekActivity{Week: 1, BlocNumber: 1, TalentIndicators: []string{}}
		if err := store.CreateWeek(ctx, dup); !errors.Is(err, database.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		weeks, err := store.ListWeeks(ctx, 0)
		if err != nil {
			t.Fatalf("list weeks: %v", err)
		}
		if len(weeks) != 3 || weeks[0].Week != 1 || weeks[2].Week != 13 {
			t.Fatalf("expected weeks ordered 1,2,13, got %+v", weeks)
		}
		bloc1, err := store.ListWeeks(ctx, 1)
		if err != nil || len(bloc1) != 2 {
			t.Fatalf("list bloc 1: %v %d", err, len(bloc1))
		}

		if err := store.DeleteWeek(ctx, 2); err != nil {
			t.Fatalf("delete week: %v", err)
		}
		if _, err := store.GetWeek(ctx, 2); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("expected deleted week to be gone, got %v", err)
		}
	})

	t.Run("approvals", func(t *testing.T) {
		first := &model.WeekApproval{
			MenteeID:    mentee.ID,
			MentorID:    mentor.ID,
			WeekNumber:  1,
			Status:      model.ApprovalStatusPending,
			SubmittedAt: time.Now().UTC().Add(-time.Hour),
		}
		if err := store.CreateApproval(ctx, first); err != nil {
			t.Fatalf("create approval: %v", err)
		}
		again := &model.WeekApproval{
			MenteeID:    mentee.ID,
			MentorID:    mentor.ID,
			WeekNumber:  1,
			Status:      model.ApprovalStatusPending,
			SubmittedAt: time.Now().UTC(),
		}
		if err := store.CreateApproval(ctx, again); !errors.Is(err, database.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for same mentee/week, got %v", err)
		}
		second := &model.WeekApproval{
			MenteeID:    mentee.ID,
			MentorID:    mentor.ID,
			WeekNumber:  2,
			Status:      model.ApprovalStatusPending,
			SubmittedAt: time.Now().UTC(),
		}
		if err := store.CreateApproval(ctx, second); err != nil {
			t.Fatalf("create second approval: %v", err)
		}

		approvedAt := time.Now().UTC()
		first.Status = model.ApprovalStatusApproved
		first.ApprovedAt = &approvedAt
		if err := store.UpdateApproval(ctx, first); err != nil {
			t.Fatalf("update approval: %v", err)
		}

		pending, err := store.CountApprovals(ctx, database.ApprovalFilter{MentorID: mentor.ID, Status: model.ApprovalStatusPending})
		if err != nil || pending != 1 {
			t.Fatalf("count pending: %v %d", err, pending)
		}
		all, err := store.ListApprovals(ctx, database.ApprovalFilter{MenteeID: mentee.ID})
		if err != nil || len(all) != 2 || all[0].WeekNumber != 2 {
			t.Fatalf("expected newest submission first, got %v %+v", err, all)
		}
		limited, err := store.ListApprovals(ctx, database.ApprovalFilter{MenteeID: mentee.ID, OrderByApprovedAt: true, Limit: 1})
		if err != nil || len(limited) != 1 || limited[0].WeekNumber != 1 {
			t.Fatalf("expected the approved week first, got %v %+v", err, limited)
		}

		found, err := store.FindApproval(ctx, mentee.ID, 2)
		if err != nil || found.ID != second.ID {
			t.Fatalf("find approval: %v", err)
		}
	})

	t.Run("messages", func(t *testing.T) {
		msg := &model.Message{
			FromID:  mentee.ID,
			ToID:    mentor.ID,
			Subject: "Hello",
			Content: "Question",
			Type:    model.MessageTypeParentToMentor,
			Status:  model.MessageStatusAwaitingResponse,
		}
		if err := store.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("create message: %v", err)
		}

		err := store.Transaction(ctx, func(tx database.Storage) error {
			text := "Answer"
			now := time.Now().UTC()
			msg.Status = model.MessageStatusResponded
			msg.Response = &text
			msg.RespondedAt = &now
			if err := tx.UpdateMessage(ctx, msg); err != nil {
				return err
			}
			return tx.CreateMessage(ctx, &model.Message{
				FromID:          mentor.ID,
				ToID:            mentee.ID,
				Subject:         "Re: Hello",
				Content:         text,
				Type:            model.MessageTypeMentorToParent,
				Status:          model.MessageStatusResponded,
				ParentMessageID: &msg.ID,
			})
		})
		if err != nil {
			t.Fatalf("transaction: %v", err)
		}

		both, err := store.ListMessages(ctx, database.MessageFilter{Participant: mentee.ID})
		if err != nil || len(both) != 2 {
			t.Fatalf("list by participant: %v %d", err, len(both))
		}
		waiting, err := store.ListMessages(ctx, database.MessageFilter{ToID: mentor.ID, Status: model.MessageStatusAwaitingResponse})
		if err != nil || len(waiting) != 0 {
			t.Fatalf("expected no unanswered messages, got %v %d", err, len(waiting))
		}
	})

	t.Run("rolled back transaction leaves no trace", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Transaction(ctx, func(tx database.Storage) error {
			if err := tx.CreateUser(ctx, &model.User{Name: "Ghost", Email: "ghost@example.com", PasswordHash: "x", Role: model.RoleParent}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := store.GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("expected rollback, got %v", err)
		}
	})

	t.Run("token blacklist", func(t *testing.T) {
		now := time.Now().UTC()
		live := &model.JWTTokenBlacklist{TokenID: "live", UserID: mentee.ID, Reason: "logout", ExpiresAt: now.Add(time.Hour)}
		stale := &model.JWTTokenBlacklist{TokenID: "stale", UserID: mentee.ID, Reason: "logout", ExpiresAt: now.Add(-time.Hour)}
		for _, e := range []*model.JWTTokenBlacklist{live, stale} {
			if err := store.RevokeToken(ctx, e); err != nil {
				t.Fatalf("revoke %s: %v", e.TokenID, err)
			}
		}
		if err := store.RevokeToken(ctx, &model.JWTTokenBlacklist{TokenID: "live", UserID: mentee.ID, ExpiresAt: now.Add(time.Hour)}); err != nil {
			t.Fatalf("revoking twice should be a no-op: %v", err)
		}

		revoked, err := store.IsTokenRevoked(ctx, "live", now)
		if err != nil || !revoked {
			t.Fatalf("expected live token revoked: %v", err)
		}
		revoked, err = store.IsTokenRevoked(ctx, "stale", now)
		if err != nil || revoked {
			t.Fatalf("expected expired entry to be ignored: %v", err)
		}
		n, err := store.DeleteExpiredTokens(ctx, now)
		if err != nil || n != 1 {
			t.Fatalf("cleanup: %v %d", err, n)
		}
	})

	t.Run("deleting a mentor detaches mentees", func(t *testing.T) {
		if err := store.DeleteUser(ctx, mentor.ID); err != nil {
			t.Fatalf("delete mentor: %v", err)
		}
		got, err := store.GetUserByID(ctx, mentee.ID)
		if err != nil {
			t.Fatalf("get mentee: %v", err)
		}
		if got.MentorID != nil {
			t.Fatalf("expected mentor link cleared, got %v", *got.MentorID)
		}
		n, err := store.CountApprovals(ctx, database.ApprovalFilter{MenteeID: mentee.ID})
		if err != nil || n != 0 {
			t.Fatalf("expected approvals removed with the mentor: %v %d", err, n)
		}
		if err := store.DeleteUser(ctx, mentor.ID); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}
