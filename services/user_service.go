package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"github.com/sahilchouksey/curriculum-tracker/utils/auth"
	"github.com/sahilchouksey/curriculum-tracker/utils/validation"
	"go.uber.org/zap"
)

const (
	menteeNumberPrefix     = "MN"
	membershipNumberPrefix = "MEM"

	// createAttempts bounds retries when a generated number is taken concurrently
	createAttempts = 3
)

var errNumberTaken = errors.New("member number taken")

// UserService owns the user directory and the mentor/mentee/parent links
type UserService struct {
	store     database.Storage
	dashboard *AnalyticsService
	log       *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store database.Storage, log *zap.Logger) *UserService {
	return &UserService{store: store, log: log}
}

// InvalidatesDashboard makes directory writes drop the cached analytics snapshot
func (s *UserService) InvalidatesDashboard(a *AnalyticsService) {
	s.dashboard = a
}

// CreateUserInput is the union of fields accepted at registration and admin creation.
// Fields that do not apply to Role are ignored.
type CreateUserInput struct {
	Name           string
	Email          string
	Password       string
	Role           model.Role
	ProfilePicture string
	Phone          string

	// Mentee
	MenteeNumber   string
	CurrentWeek    int
	CompletedWeeks []int
	MentorID       string
	ParentEmail    string
	ParentName     string
	ParentPhone    string

	// Mentor
	MembershipNumber string
	Specialization   string
	Bio              string

	// Parent
	Children []string
}

// UpdateUserInput carries only the fields the caller sent
type UpdateUserInput struct {
	Name           *string
	Email          *string
	ProfilePicture *string
	ParentEmail    *string
	ParentName     *string
	ParentPhone    *string
	Specialization *string
	Bio            *string
	Phone          *string

	// admin only
	CurrentWeek    *int
	CompletedWeeks *[]int
}

// Register creates a self-service account. Only mentee, mentor and parent are accepted.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if !in.Role.SelfRegistrable() {
		return nil, invalid("Invalid role. Must be 'mentee', 'mentor', or 'parent'")
	}
	// registration only takes the profile fields; links and numbers are assigned by the system
	return s.create(ctx, CreateUserInput{
		Name:           in.Name,
		Email:          in.Email,
		Password:       in.Password,
		Role:           in.Role,
		ProfilePicture: in.ProfilePicture,
		Phone:          in.Phone,
		Specialization: in.Specialization,
		Bio:            in.Bio,
	})
}

// CreateFirstAdmin bootstraps the platform. It fails once any admin exists.
func (s *UserService) CreateFirstAdmin(ctx context.Context, in CreateUserInput) (*model.User, error) {
	count, err := s.store.CountUsers(ctx, database.UserFilter{Role: model.RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil, conflict("An admin user already exists. Use admin endpoints to create additional admins.")
	}
	return s.create(ctx, CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     model.RoleAdmin,
	})
}

// Create adds a user of any role on behalf of an admin
func (s *UserService) Create(ctx context.Context, actor *model.User, in CreateUserInput) (*model.User, error) {
	if !actor.Role.Can(model.ActionManageUsers) {
		return nil, forbidden("Not enough permissions")
	}
	if !in.Role.Valid() {
		return nil, invalid("Invalid role")
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	email := validation.NormalizeEmail(in.Email)
	name := validation.SanitizeString(in.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	if !validation.ValidateEmail(email) {
		return nil, invalid("Invalid email format")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			return nil, invalid("Password must be at least %d characters", auth.MinPasswordLength)
		case errors.Is(err, auth.ErrPasswordTooLong):
			return nil, invalid("Password must be at most %d bytes", auth.MaxPasswordBytes)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           in.Role,
		ProfilePicture: in.ProfilePicture,
		Phone:          in.Phone,
	}

	for attempt := 1; ; attempt++ {
		user.ID = ""
		err = s.store.Transaction(ctx, func(tx database.Storage) error {
			return s.insert(ctx, tx, user, in)
		})
		if !errors.Is(err, errNumberTaken) {
			break
		}
		if attempt == createAttempts {
			return nil, conflict("Could not allocate a member number, please retry")
		}
		s.log.Warn("member number taken, retrying",
			zap.String("role", in.Role.String()),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.dashboard.InvalidateDashboard(ctx)
	s.log.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role.String()))
	return user, nil
}

// insert stores user inside tx, filling role fields and linking the mentor.
// Returns errNumberTaken when a generated number lost a race with another insert.
func (s *UserService) insert(ctx context.Context, tx database.Storage, user *model.User, in CreateUserInput) error {
	if _, err := tx.GetUserByEmail(ctx, user.Email); err == nil {
		return conflict("Email already registered")
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	switch in.Role {
	case model.RoleMentee:
		if err := s.fillMentee(ctx, tx, user, in); err != nil {
			return err
		}
	case model.RoleMentor:
		user.MembershipNumber = in.MembershipNumber
		if user.MembershipNumber == "" {
			next, err := nextNumber(ctx, tx, model.RoleMentor, membershipNumberPrefix)
			if err != nil {
				return err
			}
			user.MembershipNumber = next
		}
		user.Specialization = in.Specialization
		user.Bio = in.Bio
		user.AssignedMentees = pq.StringArray{}
	case model.RoleParent:
		user.Children = pq.StringArray(append([]string{}, in.Children...))
	}

	if err := tx.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("failed to create user: %w", err)
		}
		// the email was free above, so the clash is a number or a concurrent insert
		if generatedNumber(in) {
			return errNumberTaken
		}
		return conflict("Email or member number already in use")
	}

	if user.MentorID != nil {
		mentor, err := tx.GetUserByID(ctx, *user.MentorID)
		if err != nil {
			return fmt.Errorf("failed to load mentor: %w", err)
		}
		mentor.AddMentee(user.ID)
		if err := tx.UpdateUser(ctx, mentor); err != nil {
			return fmt.Errorf("failed to link mentor: %w", err)
		}
	}
	return nil
}

// generatedNumber reports whether create assigns the role's number itself
func generatedNumber(in CreateUserInput) bool {
	switch in.Role {
	case model.RoleMentee:
		return in.MenteeNumber == ""
	case model.RoleMentor:
		return in.MembershipNumber == ""
	}
	return false
}

func (s *UserService) fillMentee(ctx context.Context, tx database.Storage, user *model.User, in CreateUserInput) error {
	user.MenteeNumber = in.MenteeNumber
	if user.MenteeNumber == "" {
		next, err := nextNumber(ctx, tx, model.RoleMentee, menteeNumberPrefix)
		if err != nil {
			return err
		}
		user.MenteeNumber = next
	}

	weeks, err := normalizeWeeks(in.CompletedWeeks)
	if err != nil {
		return err
	}
	user.CompletedWeeks = weeks
	user.CurrentWeek = in.CurrentWeek
	if user.CurrentWeek < 1 {
		user.CurrentWeek = 1
	}
	if !model.ValidWeek(user.CurrentWeek) && user.CurrentWeek != model.TotalWeeks+1 {
		return invalid("current_week must be between 1 and %d", model.TotalWeeks)
	}
	// keeps current_week ahead of every completed week
	for _, w := range weeks {
		user.CompleteWeek(int(w))
	}

	if in.MentorID != "" {
		mentor, err := tx.GetUserByID(ctx, in.MentorID)
		if err != nil || mentor.Role != model.RoleMentor {
			return notFound("Mentor not found")
		}
		id := mentor.ID
		user.MentorID = &id
	}
	user.ParentEmail = validation.NormalizeEmail(in.ParentEmail)
	user.ParentName = in.ParentName
	user.ParentPhone = in.ParentPhone
	return nil
}

// nextNumber returns prefix followed by one more than the highest existing
// number among users of the role, zero padded to three digits
func nextNumber(ctx context.Context, tx database.Storage, role model.Role, prefix string) (string, error) {
	users, err := tx.ListUsers(ctx, database.UserFilter{Role: role})
	if err != nil {
		return "", fmt.Errorf("failed to list %ss: %w", role, err)
	}
	highest := 0
	for _, u := range users {
		value := u.MenteeNumber
		if role == model.RoleMentor {
			value = u.MembershipNumber
		}
		if !strings.HasPrefix(value, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(value, prefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

func normalizeWeeks(weeks []int) (pq.Int64Array, error) {
	seen := map[int]bool{}
	out := pq.Int64Array{}
	for _, w := range weeks {
		if !model.ValidWeek(w) {
			return nil, invalid("Week number must be between 1 and %d", model.TotalWeeks)
		}
		if !seen[w] {
			seen[w] = true
			out = append(out, int64(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Authenticate checks credentials. Unknown email and wrong password look the same to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, unauthorized("Invalid credentials")
	}
	return user, nil
}

// GetByID loads a user without any permission check, for the auth middleware
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Get returns a user to themselves or to an admin
func (s *UserService) Get(ctx context.Context, actor *model.User, id string) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != id && !actor.Role.Can(model.ActionViewAnyUser) {
		return nil, forbidden("Not enough permissions")
	}
	return user, nil
}

// List returns every user, or only those of role when it is set (admin only)
func (s *UserService) List(ctx context.Context, actor *model.User, role model.Role) ([]model.User, error) {
	if !actor.Role.Can(model.ActionViewAnyUser) {
		return nil, forbidden("Not enough permissions")
	}
	users, err := s.store.ListUsers(ctx, database.UserFilter{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// MyMentees lists the mentees whose mentor is the caller
func (s *UserService) MyMentees(ctx context.Context, actor *model.User) ([]model.User, error) {
	if !actor.Role.Can(model.ActionListOwnMentees) {
		return nil, forbidden("Not enough permissions")
	}
	users, err := s.store.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee, MentorID: actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list mentees: %w", err)
	}
	return users, nil
}

// MyChildren lists mentees whose parent_email is the caller's email
func (s *UserService) MyChildren(ctx context.Context, actor *model.User) ([]model.User, error) {
	if !actor.Role.Can(model.ActionListOwnChildren) {
		return nil, forbidden("Not enough permissions")
	}
	users, err := s.store.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee, ParentEmail: actor.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return users, nil
}

// Update applies the provided fields. Progress fields can only be changed by an admin.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, in UpdateUserInput) (*model.User, error) {
	isAdmin := actor.Role.Can(model.ActionManageUsers)
	if actor.ID != id && !isAdmin {
		// existence is checked first so a missing id reads as 404 for everyone
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, forbidden("Not enough permissions")
	}
	if (in.CurrentWeek != nil || in.CompletedWeeks != nil) && !isAdmin {
		return nil, forbidden("Only admins can change curriculum progress")
	}

	var updated *model.User
	err := s.store.Transaction(ctx, func(tx database.Storage) error {
		user, err := tx.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFound("User not found")
			}
			return err
		}

		if in.Name != nil {
			name := validation.SanitizeString(*in.Name)
			if name == "" {
				return invalid("Name is required")
			}
			user.Name = name
		}
		if in.Email != nil {
			email := validation.NormalizeEmail(*in.Email)
			if !validation.ValidateEmail(email) {
				return invalid("Invalid email format")
			}
			if email != user.Email {
				if _, err := tx.GetUserByEmail(ctx, email); err == nil {
					return conflict("Email already registered")
				} else if !errors.Is(err, database.ErrNotFound) {
					return err
				}
			}
			user.Email = email
		}
		if in.ProfilePicture != nil {
			user.ProfilePicture = *in.ProfilePicture
		}
		if in.ParentEmail != nil {
			user.ParentEmail = validation.NormalizeEmail(*in.ParentEmail)
		}
		if in.ParentName != nil {
			user.ParentName = *in.ParentName
		}
		if in.ParentPhone != nil {
			user.ParentPhone = *in.ParentPhone
		}
		if in.Specialization != nil {
			user.Specialization = *in.Specialization
		}
		if in.Bio != nil {
			user.Bio = *in.Bio
		}
		if in.Phone != nil {
			user.Phone = *in.Phone
		}

		if in.CompletedWeeks != nil || in.CurrentWeek != nil {
			if user.Role != model.RoleMentee {
				return invalid("Only mentees have curriculum progress")
			}
			if in.CompletedWeeks != nil {
				weeks, err := normalizeWeeks(*in.CompletedWeeks)
				if err != nil {
					return err
				}
				user.CompletedWeeks = weeks
			}
			if in.CurrentWeek != nil {
				if *in.CurrentWeek < 1 || *in.CurrentWeek > model.TotalWeeks+1 {
					return invalid("current_week must be between 1 and %d", model.TotalWeeks+1)
				}
				user.CurrentWeek = *in.CurrentWeek
			}
			for _, w := range user.CompletedWeeks {
				user.CompleteWeek(int(w))
			}
		}

		if err := tx.UpdateUser(ctx, user); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return conflict("Email already registered")
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dashboard.InvalidateDashboard(ctx)
	return updated, nil
}

// SetProfilePicture stores an uploaded avatar URL for the user
func (s *UserService) SetProfilePicture(ctx context.Context, actor *model.User, id, url string) (*model.User, error) {
	return s.Update(ctx, actor, id, UpdateUserInput{ProfilePicture: &url})
}

// Delete removes a user and detaches every link that pointed at them (admin only)
func (s *UserService) Delete(ctx context.Context, actor *model.User, id string) error {
	if !actor.Role.Can(model.ActionManageUsers) {
		return forbidden("Not enough permissions")
	}
	err := s.store.Transaction(ctx, func(tx database.Storage) error {
		user, err := tx.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFound("User not found")
			}
			return err
		}

		switch user.Role {
		case model.RoleMentee:
			if user.MentorID != nil {
				if mentor, err := tx.GetUserByID(ctx, *user.MentorID); err == nil {
					mentor.RemoveMentee(user.ID)
					if err := tx.UpdateUser(ctx, mentor); err != nil {
						return fmt.Errorf("failed to unlink mentor: %w", err)
					}
				}
			}
			parents, err := tx.ListUsers(ctx, database.UserFilter{Role: model.RoleParent})
			if err != nil {
				return err
			}
			for i := range parents {
				p := &parents[i]
				if !containsString(p.Children, user.ID) {
					continue
				}
				p.Children = removeString(p.Children, user.ID)
				if err := tx.UpdateUser(ctx, p); err != nil {
					return fmt.Errorf("failed to unlink parent: %w", err)
				}
			}
		case model.RoleMentor:
			mentees, err := tx.ListUsers(ctx, database.UserFilter{Role: model.RoleMentee, MentorID: user.ID})
			if err != nil {
				return err
			}
			for i := range mentees {
				mentees[i].MentorID = nil
				if err := tx.UpdateUser(ctx, &mentees[i]); err != nil {
					return fmt.Errorf("failed to unlink mentee: %w", err)
				}
			}
		}

		if err := tx.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dashboard.InvalidateDashboard(ctx)
	s.log.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.ID))
	return nil
}

// Assign links a mentee to a mentor, detaching them from any previous mentor (admin only)
func (s *UserService) Assign(ctx context.Context, actor *model.User, menteeID, mentorID string) error {
	if !actor.Role.Can(model.ActionManageUsers) {
		return forbidden("Not enough permissions")
	}
	return s.store.Transaction(ctx, func(tx database.Storage) error {
		mentee, err := tx.GetUserByID(ctx, menteeID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
		mentor, err2 := tx.GetUserByID(ctx, mentorID)
		if err2 != nil && !errors.Is(err2, database.ErrNotFound) {
			return err2
		}
		if mentee == nil || mentor == nil || mentee.Role != model.RoleMentee || mentor.Role != model.RoleMentor {
			return notFound("Mentee or mentor not found")
		}

		if mentee.MentorID != nil && *mentee.MentorID != mentor.ID {
			if prev, err := tx.GetUserByID(ctx, *mentee.MentorID); err == nil {
				prev.RemoveMentee(mentee.ID)
				if err := tx.UpdateUser(ctx, prev); err != nil {
					return fmt.Errorf("failed to unlink previous mentor: %w", err)
				}
			}
		}

		id := mentor.ID
		mentee.MentorID = &id
		if err := tx.UpdateUser(ctx, mentee); err != nil {
			return fmt.Errorf("failed to update mentee: %w", err)
		}
		mentor.AddMentee(mentee.ID)
		if err := tx.UpdateUser(ctx, mentor); err != nil {
			return fmt.Errorf("failed to update mentor: %w", err)
		}

		s.log.Info("mentee assigned",
			zap.String("mentee_id", mentee.ID),
			zap.String("mentor_id", mentor.ID))
		return nil
	})
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list pq.StringArray, v string) pq.StringArray {
	out := pq.StringArray{}
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
