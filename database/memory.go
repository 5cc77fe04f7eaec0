package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"gorm.io/datatypes"
)

// MemoryStore keeps every table in process memory. It backs DB_DRIVER=memory and the
// service and handler tests.
type MemoryStore struct {
	mu   *sync.RWMutex
	data *memoryTables
}

type memoryTables struct {
	users     map[string]*model.User
	weeks     map[int]*model.WeekActivity
	approvals map[string]*model.WeekApproval
	messages  map[string]*model.Message
	blacklist map[string]*model.JWTTokenBlacklist
	seq       uint
}

func newMemoryTables() *memoryTables {
	return &memoryTables{
		users:     map[string]*model.User{},
		weeks:     map[int]*model.WeekActivity{},
		approvals: map[string]*model.WeekApproval{},
		messages:  map[string]*model.Message{},
		blacklist: map[string]*model.JWTTokenBlacklist{},
	}
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.RWMutex{}, data: newMemoryTables()}
}

func (s *MemoryStore) Init(context.Context) error            { return nil }
func (s *MemoryStore) Close() error                          { return nil }
func (s *MemoryStore) HealthCheck(ctx context.Context) error { return ctx.Err() }

// Transaction runs fn against a private copy of the tables and swaps it in on
// success. Other writers wait until the transaction finishes.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Storage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: &sync.RWMutex{}, data: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (t *memoryTables) clone() *memoryTables {
	c := newMemoryTables()
	for k, v := range t.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range t.weeks {
		c.weeks[k] = copyWeek(v)
	}
	for k, v := range t.approvals {
		a := *v
		c.approvals[k] = &a
	}
	for k, v := range t.messages {
		m := *v
		c.messages[k] = &m
	}
	for k, v := range t.blacklist {
		b := *v
		c.blacklist[k] = &b
	}
	c.seq = t.seq
	return c
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.CompletedWeeks != nil {
		c.CompletedWeeks = append(pq.Int64Array{}, u.CompletedWeeks...)
	}
	if u.AssignedMentees != nil {
		c.AssignedMentees = append(pq.StringArray{}, u.AssignedMentees...)
	}
	if u.Children != nil {
		c.Children = append(pq.StringArray{}, u.Children...)
	}
	if u.MentorID != nil {
		id := *u.MentorID
		c.MentorID = &id
	}
	return &c
}

func copyWeek(w *model.WeekActivity) *model.WeekActivity {
	c := *w
	if w.TalentIndicators != nil {
		c.TalentIndicators = append(datatypes.JSONSlice[string]{}, w.TalentIndicators...)
	}
	return &c
}

// Users

func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.data.users {
		if clashes(u, user) {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := s.data.users[user.ID]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.data.users[user.ID] = copyUser(user)
	return nil
}

// clashes mirrors the unique indexes on users: email, and the member numbers when set
func clashes(a, b *model.User) bool {
	return a.Email == b.Email ||
		(a.MenteeNumber != "" && a.MenteeNumber == b.MenteeNumber) ||
		(a.MembershipNumber != "" && a.MembershipNumber == b.MembershipNumber)
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.data.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.data.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, ok := s.data.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for _, u := range s.data.users {
		if u.ID != user.ID && clashes(u, user) {
			return ErrDuplicate
		}
	}
	user.CreatedAt = orig.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	s.data.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.data.users, id)
	// mirror the foreign keys: mentees lose their mentor, approvals go with either side
	for _, u := range s.data.users {
		if u.MentorID != nil && *u.MentorID == id {
			u.MentorID = nil
		}
	}
	for k, a := range s.data.approvals {
		if a.MenteeID == id || a.MentorID == id {
			delete(s.data.approvals, k)
		}
	}
	return nil
}

func (f UserFilter) match(u *model.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.MentorID != "" && (u.MentorID == nil || *u.MentorID != f.MentorID) {
		return false
	}
	if f.ParentEmail != "" && u.ParentEmail != f.ParentEmail {
		return false
	}
	return true
}

func (s *MemoryStore) ListUsers(_ context.Context, filter UserFilter) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []model.User{}
	for _, u := range s.data.users {
		if filter.match(u) {
			users = append(users, *copyUser(u))
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) CountUsers(ctx context.Context, filter UserFilter) (int64, error) {
	users, err := s.ListUsers(ctx, filter)
	return int64(len(users)), err
}

// Curriculum

func (s *MemoryStore) ListWeeks(_ context.Context, bloc int) ([]model.WeekActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weeks := []model.WeekActivity{}
	for _, w := range s.data.weeks {
		if bloc == 0 || w.BlocNumber == bloc {
			weeks = append(weeks, *copyWeek(w))
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Week < weeks[j].Week })
	return weeks, nil
}

func (s *MemoryStore) GetWeek(_ context.Context, week int) (*model.WeekActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.data.weeks[week]; ok {
		return copyWeek(w), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateWeek(_ context.Context, activity *model.WeekActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.weeks[activity.Week]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	activity.CreatedAt, activity.UpdatedAt = now, now
	s.data.weeks[activity.Week] = copyWeek(activity)
	return nil
}

func (s *MemoryStore) UpdateWeek(_ context.Context, activity *model.WeekActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, ok := s.data.weeks[activity.Week]
	if !ok {
		return ErrNotFound
	}
	activity.CreatedAt = orig.CreatedAt
	activity.UpdatedAt = time.Now().UTC()
	s.data.weeks[activity.Week] = copyWeek(activity)
	return nil
}

func (s *MemoryStore) DeleteWeek(_ context.Context, week int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.weeks[week]; !ok {
		return ErrNotFound
	}
	delete(s.data.weeks, week)
	return nil
}

// Approvals

func (s *MemoryStore) CreateApproval(_ context.Context, approval *model.WeekApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.data.approvals {
		if a.MenteeID == approval.MenteeID && a.WeekNumber == approval.WeekNumber {
			return ErrDuplicate
		}
	}
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	a := *approval
	s.data.approvals[a.ID] = &a
	return nil
}

func (s *MemoryStore) GetApproval(_ context.Context, id string) (*model.WeekApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.data.approvals[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindApproval(_ context.Context, menteeID string, week int) (*model.WeekApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.data.approvals {
		if a.MenteeID == menteeID && a.WeekNumber == week {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateApproval(_ context.Context, approval *model.WeekApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.approvals[approval.ID]; !ok {
		return ErrNotFound
	}
	a := *approval
	s.data.approvals[a.ID] = &a
	return nil
}

func (f ApprovalFilter) match(a *model.WeekApproval) bool {
	if f.MenteeID != "" && a.MenteeID != f.MenteeID {
		return false
	}
	if f.MentorID != "" && a.MentorID != f.MentorID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

func (s *MemoryStore) ListApprovals(_ context.Context, filter ApprovalFilter) ([]model.WeekApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	approvals := []model.WeekApproval{}
	for _, a := range s.data.approvals {
		if filter.match(a) {
			approvals = append(approvals, *a)
		}
	}
	if filter.OrderByApprovedAt {
		sort.SliceStable(approvals, func(i, j int) bool {
			ai, aj := approvals[i].ApprovedAt, approvals[j].ApprovedAt
			switch {
			case ai == nil:
				return false
			case aj == nil:
				return true
			}
			return ai.After(*aj)
		})
	} else {
		sort.SliceStable(approvals, func(i, j int) bool {
			return approvals[i].SubmittedAt.After(approvals[j].SubmittedAt)
		})
	}
	if filter.Limit > 0 && len(approvals) > filter.Limit {
		approvals = approvals[:filter.Limit]
	}
	return approvals, nil
}

func (s *MemoryStore) CountApprovals(ctx context.Context, filter ApprovalFilter) (int64, error) {
	filter.Limit = 0
	approvals, err := s.ListApprovals(ctx, filter)
	return int64(len(approvals)), err
}

// Messages

func (s *MemoryStore) CreateMessage(_ context.Context, message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if message.Status == "" {
		message.Status = model.MessageStatusAwaitingResponse
	}
	m := *message
	s.data.messages[m.ID] = &m
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.data.messages[id]; ok {
		c := *m
		return &c, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateMessage(_ context.Context, message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, ok := s.data.messages[message.ID]
	if !ok {
		return ErrNotFound
	}
	m := *message
	m.CreatedAt = orig.CreatedAt
	s.data.messages[m.ID] = &m
	return nil
}

func (f MessageFilter) match(m *model.Message) bool {
	if f.FromID != "" && m.FromID != f.FromID {
		return false
	}
	if f.ToID != "" && m.ToID != f.ToID {
		return false
	}
	if f.Participant != "" && m.FromID != f.Participant && m.ToID != f.Participant {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	return true
}

func (s *MemoryStore) ListMessages(_ context.Context, filter MessageFilter) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := []model.Message{}
	for _, m := range s.data.messages {
		if filter.match(m) {
			messages = append(messages, *m)
		}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return strings.Compare(messages[i].ID, messages[j].ID) > 0
		}
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// Token blacklist

func (s *MemoryStore) RevokeToken(_ context.Context, entry *model.JWTTokenBlacklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.blacklist[entry.TokenID]; ok {
		return nil
	}
	s.data.seq++
	entry.ID = s.data.seq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	e := *entry
	s.data.blacklist[e.TokenID] = &e
	return nil
}

func (s *MemoryStore) IsTokenRevoked(_ context.Context, tokenID string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data.blacklist[tokenID]
	return ok && e.ExpiresAt.After(now), nil
}

func (s *MemoryStore) DeleteExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, e := range s.data.blacklist {
		if e.ExpiresAt.Before(now) {
			delete(s.data.blacklist, k)
			n++
		}
	}
	return n, nil
}

var _ Storage = (*MemoryStore)(nil)
