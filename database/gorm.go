package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/sahilchouksey/curriculum-tracker/config"
	"github.com/sahilchouksey/curriculum-tracker/database/migrations"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// DSN builds the PostgreSQL connection string from the environment
func DSN(env *config.EnvironmentVariables) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(env *config.EnvironmentVariables, log *zap.Logger) (*GORMStore, error) {
	return OpenGORM(DSN(env), env.GO_ENV, log)
}

// OpenGORM connects to the given DSN and configures the connection pool
func OpenGORM(dsn, goEnv string, log *zap.Logger) (*GORMStore, error) {
	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if goEnv == "production" || goEnv == "test" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Error("unable to connect to PostgreSQL", zap.Error(err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL with GORM")

	return &GORMStore{db: db, log: log}, nil
}

// Init applies the embedded goose migrations
func (s *GORMStore) Init(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := Migrate(ctx, sqlDB, "up"); err != nil {
		s.log.Error("migration failed", zap.Error(err))
		return err
	}
	s.log.Info("database migrations applied")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing PostgreSQL connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the GORM handle for callers that need raw queries
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Storage) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx, log: s.log})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// Users

func (s *GORMStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GORMStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GORMStore) UpdateUser(ctx context.Context, user *model.User) error {
	result := s.db.WithContext(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	result := s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) userQuery(ctx context.Context, filter UserFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.MentorID != "" {
		q = q.Where("mentor_id = ?", filter.MentorID)
	}
	if filter.ParentEmail != "" {
		q = q.Where("parent_email = ?", filter.ParentEmail)
	}
	return q
}

func (s *GORMStore) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error) {
	users := []model.User{}
	err := s.userQuery(ctx, filter).Order("created_at ASC").Find(&users).Error
	return users, translate(err)
}

func (s *GORMStore) CountUsers(ctx context.Context, filter UserFilter) (int64, error) {
	var count int64
	err := s.userQuery(ctx, filter).Count(&count).Error
	return count, translate(err)
}

// Curriculum

func (s *GORMStore) ListWeeks(ctx context.Context, bloc int) ([]model.WeekActivity, error) {
	weeks := []model.WeekActivity{}
	q := s.db.WithContext(ctx).Order("week ASC")
	if bloc != 0 {
		q = q.Where("bloc_number = ?", bloc)
	}
	return weeks, translate(q.Find(&weeks).Error)
}

func (s *GORMStore) GetWeek(ctx context.Context, week int) (*model.WeekActivity, error) {
	var activity model.WeekActivity
	if err := s.db.WithContext(ctx).First(&activity, "week = ?", week).Error; err != nil {
		return nil, translate(err)
	}
	return &activity, nil
}

func (s *GORMStore) CreateWeek(ctx context.Context, activity *model.WeekActivity) error {
	return translate(s.db.WithContext(ctx).Create(activity).Error)
}

func (s *GORMStore) UpdateWeek(ctx context.Context, activity *model.WeekActivity) error {
	result := s.db.WithContext(ctx).Model(activity).Select("*").Omit("created_at").Updates(activity)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) DeleteWeek(ctx context.Context, week int) error {
	result := s.db.WithContext(ctx).Delete(&model.WeekActivity{}, "week = ?", week)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Approvals

func (s *GORMStore) CreateApproval(ctx context.Context, approval *model.WeekApproval) error {
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(approval).Error)
}

func (s *GORMStore) GetApproval(ctx context.Context, id string) (*model.WeekApproval, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var approval model.WeekApproval
	if err := s.db.WithContext(ctx).First(&approval, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &approval, nil
}

func (s *GORMStore) FindApproval(ctx context.Context, menteeID string, week int) (*model.WeekApproval, error) {
	var approval model.WeekApproval
	err := s.db.WithContext(ctx).
		Where("mentee_id = ? AND week_number = ?", menteeID, week).
		First(&approval).Error
	if err != nil {
		return nil, translate(err)
	}
	return &approval, nil
}

func (s *GORMStore) UpdateApproval(ctx context.Context, approval *model.WeekApproval) error {
	result := s.db.WithContext(ctx).Model(approval).Select("*").Updates(approval)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) approvalQuery(ctx context.Context, filter ApprovalFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.WeekApproval{})
	if filter.MenteeID != "" {
		q = q.Where("mentee_id = ?", filter.MenteeID)
	}
	if filter.MentorID != "" {
		q = q.Where("mentor_id = ?", filter.MentorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

func (s *GORMStore) ListApprovals(ctx context.Context, filter ApprovalFilter) ([]model.WeekApproval, error) {
	approvals := []model.WeekApproval{}
	q := s.approvalQuery(ctx, filter)
	if filter.OrderByApprovedAt {
		q = q.Order("approved_at DESC NULLS LAST")
	} else {
		q = q.Order("submitted_at DESC")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return approvals, translate(q.Find(&approvals).Error)
}

func (s *GORMStore) CountApprovals(ctx context.Context, filter ApprovalFilter) (int64, error) {
	var count int64
	err := s.approvalQuery(ctx, filter).Count(&count).Error
	return count, translate(err)
}

// Messages

func (s *GORMStore) CreateMessage(ctx context.Context, message *model.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(message).Error)
}

func (s *GORMStore) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var message model.Message
	if err := s.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &message, nil
}

func (s *GORMStore) UpdateMessage(ctx context.Context, message *model.Message) error {
	result := s.db.WithContext(ctx).Model(message).Select("*").Omit("created_at").Updates(message)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GORMStore) ListMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error) {
	messages := []model.Message{}
	q := s.db.WithContext(ctx).Model(&model.Message{})
	if filter.FromID != "" {
		q = q.Where("from_id = ?", filter.FromID)
	}
	if filter.ToID != "" {
		q = q.Where("to_id = ?", filter.ToID)
	}
	if filter.Participant != "" {
		q = q.Where("from_id = ? OR to_id = ?", filter.Participant, filter.Participant)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return messages, translate(q.Order("created_at DESC").Find(&messages).Error)
}

// Token blacklist

func (s *GORMStore) RevokeToken(ctx context.Context, entry *model.JWTTokenBlacklist) error {
	err := translate(s.db.WithContext(ctx).Create(entry).Error)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

func (s *GORMStore) IsTokenRevoked(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("token_id = ? AND expires_at > ?", tokenID, now).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GORMStore) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}

var _ Storage = (*GORMStore)(nil)

// Migrate runs a goose command ("up", "down", "status") against the embedded migrations
func Migrate(ctx context.Context, db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.UpContext(ctx, db, ".")
	case "down":
		return goose.DownContext(ctx, db, ".")
	case "status":
		return goose.StatusContext(ctx, db, ".")
	}
	return fmt.Errorf("unknown migration command %q", command)
}
