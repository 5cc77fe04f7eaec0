package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"go.uber.org/zap"
)

// MessageService handles direct messages and their one-level replies
type MessageService struct {
	store database.Storage
	log   *zap.Logger
	now   func() time.Time
}

func NewMessageService(store database.Storage, log *zap.Logger) *MessageService {
	return &MessageService{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

type SendInput struct {
	ToID       string
	Subject    string
	Content    string
	Type       string
	WeekNumber *int
}

// Send delivers a new message awaiting a response
func (s *MessageService) Send(ctx context.Context, actor *model.User, in SendInput) (*model.MessageResponse, error) {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, invalid("Subject and content are required")
	}
	if in.WeekNumber != nil && !model.ValidWeek(*in.WeekNumber) {
		return nil, invalid("Week number must be between 1 and %d", model.TotalWeeks)
	}
	if in.ToID == actor.ID {
		return nil, invalid("You cannot send a message to yourself")
	}
	recipient, err := s.store.GetUserByID(ctx, in.ToID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Recipient not found")
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}

	message := &model.Message{
		FromID:     actor.ID,
		ToID:       recipient.ID,
		Subject:    in.Subject,
		Content:    in.Content,
		Type:       in.Type,
		Status:     model.MessageStatusAwaitingResponse,
		WeekNumber: in.WeekNumber,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.log.Info("message sent",
		zap.String("message_id", message.ID),
		zap.String("from", actor.ID),
		zap.String("to", recipient.ID))
	return &model.MessageResponse{Message: *message, FromName: actor.Name, ToName: recipient.Name}, nil
}

// Respond answers a message addressed to actor. The original is marked responded
// and a reply travels back to its sender. Returns the updated original.
func (s *MessageService) Respond(ctx context.Context, actor *model.User, id, text string) (*model.MessageResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalid("Response is required")
	}

	var original *model.Message
	err := s.store.Transaction(ctx, func(tx database.Storage) error {
		msg, err := tx.GetMessage(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFound("Message not found")
			}
			return fmt.Errorf("failed to load message: %w", err)
		}
		if msg.ToID != actor.ID {
			return forbidden("You can only respond to messages sent to you")
		}

		now := s.now()
		msg.Status = model.MessageStatusResponded
		msg.Response = &text
		msg.RespondedAt = &now
		if err := tx.UpdateMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}

		parentID := msg.ID
		reply := &model.Message{
			FromID:          actor.ID,
			ToID:            msg.FromID,
			Subject:         "Re: " + msg.Subject,
			Content:         text,
			Type:            model.ReplyType(msg.Type),
			Status:          model.MessageStatusResponded,
			WeekNumber:      msg.WeekNumber,
			ParentMessageID: &parentID,
			CreatedAt:       now,
		}
		if err := tx.CreateMessage(ctx, reply); err != nil {
			return fmt.Errorf("failed to create reply: %w", err)
		}
		original = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("message answered", zap.String("message_id", original.ID), zap.String("by", actor.ID))
	views, err := s.withNames(ctx, []model.Message{*original})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Get returns a message to its sender or recipient
func (s *MessageService) Get(ctx context.Context, actor *model.User, id string) (*model.MessageResponse, error) {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Message not found")
		}
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg.FromID != actor.ID && msg.ToID != actor.ID {
		return nil, forbidden("Not enough permissions")
	}
	views, err := s.withNames(ctx, []model.Message{*msg})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListAll returns every message the actor sent or received, optionally by status
func (s *MessageService) ListAll(ctx context.Context, actor *model.User, status model.MessageStatus) ([]model.MessageResponse, error) {
	return s.list(ctx, database.MessageFilter{Participant: actor.ID, Status: status})
}

func (s *MessageService) ListSent(ctx context.Context, actor *model.User) ([]model.MessageResponse, error) {
	return s.list(ctx, database.MessageFilter{FromID: actor.ID})
}

func (s *MessageService) ListReceived(ctx context.Context, actor *model.User) ([]model.MessageResponse, error) {
	return s.list(ctx, database.MessageFilter{ToID: actor.ID})
}

func (s *MessageService) list(ctx context.Context, filter database.MessageFilter) ([]model.MessageResponse, error) {
	messages, err := s.store.ListMessages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return s.withNames(ctx, messages)
}

// withNames resolves both counterpart names, caching lookups per call. A user that
// no longer exists shows up as "Unknown".
func (s *MessageService) withNames(ctx context.Context, messages []model.Message) ([]model.MessageResponse, error) {
	resolver := newNameResolver(s.store)
	out := make([]model.MessageResponse, 0, len(messages))
	for _, m := range messages {
		from, err := resolver.name(ctx, m.FromID)
		if err != nil {
			return nil, err
		}
		to, err := resolver.name(ctx, m.ToID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.MessageResponse{Message: m, FromName: from, ToName: to})
	}
	return out, nil
}

type nameResolver struct {
	users database.UserRepository
	cache map[string]string
}

func newNameResolver(users database.UserRepository) *nameResolver {
	return &nameResolver{users: users, cache: map[string]string{}}
}

func (r *nameResolver) name(ctx context.Context, id string) (string, error) {
	if n, ok := r.cache[id]; ok {
		return n, nil
	}
	u, err := r.users.GetUserByID(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		r.cache[id] = model.UnknownUserName
	case err != nil:
		return "", fmt.Errorf("failed to resolve user name: %w", err)
	default:
		r.cache[id] = u.Name
	}
	return r.cache[id], nil
}
