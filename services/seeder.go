package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"go.uber.org/zap"
)

// Seeder fills a fresh database with the bootstrap admin and the curriculum skeleton.
// Every step is safe to repeat.
type Seeder struct {
	users      *UserService
	curriculum database.CurriculumRepository
	log        *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(store database.Storage, log *zap.Logger) *Seeder {
	return &Seeder{
		users:      NewUserService(store, log),
		curriculum: store,
		log:        log,
	}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll(ctx context.Context, adminEmail, adminPassword string) error {
	if err := s.SeedAdminUser(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if _, err := s.SeedCurriculum(ctx); err != nil {
		return fmt.Errorf("failed to seed curriculum: %w", err)
	}
	return nil
}

// SeedAdminUser creates the default admin unless one exists or no credentials are given
func (s *Seeder) SeedAdminUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		s.log.Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}
	admin, err := s.users.CreateFirstAdmin(ctx, CreateUserInput{
		Name:     "System Administrator",
		Email:    email,
		Password: password,
	})
	if IsKind(err, ErrConflict) {
		s.log.Info("admin user already exists, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("created admin user", zap.String("email", admin.Email))
	return nil
}

// SeedCurriculum inserts a placeholder entry for every missing week and reports how
// many were created. Existing weeks are left untouched.
func (s *Seeder) SeedCurriculum(ctx context.Context) (int, error) {
	created := 0
	for week := 1; week <= model.TotalWeeks; week++ {
		_, err := s.curriculum.GetWeek(ctx, week)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return created, fmt.Errorf("failed to load week %d: %w", week, err)
		}

		activity, err := WeekInput{
			Week:            week,
			SubTheme:        model.BlocName(model.BlocForWeek(week)),
			ActivityName:    fmt.Sprintf("Week %d activity", week),
			LearningOutcome: "To be defined",
			Description:     "To be defined",
			Digitization:    "To be defined",
		}.toModel()
		if err != nil {
			return created, err
		}
		if err := s.curriculum.CreateWeek(ctx, activity); err != nil && !errors.Is(err, database.ErrDuplicate) {
			return created, fmt.Errorf("failed to create week %d: %w", week, err)
		}
		created++
	}
	s.log.Info("curriculum seeded", zap.Int("created", created))
	return created, nil
}
