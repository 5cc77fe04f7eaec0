package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/curriculum-tracker/database"
	"github.com/sahilchouksey/curriculum-tracker/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CurriculumService serves the 36-week catalog
type CurriculumService struct {
	store database.CurriculumRepository
	log   *zap.Logger
}

func NewCurriculumService(store database.CurriculumRepository, log *zap.Logger) *CurriculumService {
	return &CurriculumService{store: store, log: log}
}

// WeekInput is the writable part of a catalog entry. BlocNumber is optional and,
// when given, must agree with the week.
type WeekInput struct {
	Week             int
	BlocNumber       int
	SubTheme         string
	ActivityName     string
	LearningOutcome  string
	Description      string
	Digitization     string
	TalentIndicators []string
}

func (in WeekInput) toModel() (*model.WeekActivity, error) {
	if !model.ValidWeek(in.Week) {
		return nil, invalid("Week number must be between 1 and %d", model.TotalWeeks)
	}
	bloc := model.BlocForWeek(in.Week)
	if in.BlocNumber != 0 && in.BlocNumber != bloc {
		return nil, invalid("Week %d belongs to bloc %d", in.Week, bloc)
	}
	indicators := datatypes.JSONSlice[string]{}
	indicators = append(indicators, in.TalentIndicators...)
	return &model.WeekActivity{
		Week:             in.Week,
		BlocNumber:       bloc,
		SubTheme:         in.SubTheme,
		ActivityName:     in.ActivityName,
		LearningOutcome:  in.LearningOutcome,
		Description:      in.Description,
		Digitization:     in.Digitization,
		TalentIndicators: indicators,
	}, nil
}

// ListWeeks returns the whole catalog in week order
func (s *CurriculumService) ListWeeks(ctx context.Context) ([]model.WeekActivity, error) {
	weeks, err := s.store.ListWeeks(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}
	return weeks, nil
}

func (s *CurriculumService) GetWeek(ctx context.Context, week int) (*model.WeekActivity, error) {
	activity, err := s.store.GetWeek(ctx, week)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Week %d activity not found", week)
		}
		return nil, fmt.Errorf("failed to load week: %w", err)
	}
	return activity, nil
}

// ListBloc returns the weeks of one bloc
func (s *CurriculumService) ListBloc(ctx context.Context, bloc int) ([]model.WeekActivity, error) {
	if !model.ValidBloc(bloc) {
		return nil, invalid("Bloc number must be 1, 2, or 3")
	}
	weeks, err := s.store.ListWeeks(ctx, bloc)
	if err != nil {
		return nil, fmt.Errorf("failed to list bloc: %w", err)
	}
	return weeks, nil
}

func (s *CurriculumService) CreateWeek(ctx context.Context, actor *model.User, in WeekInput) (*model.WeekActivity, error) {
	if !actor.Role.Can(model.ActionManageCurriculum) {
		return nil, forbidden("Not enough permissions")
	}
	activity, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateWeek(ctx, activity); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, conflict("Week %d already exists", in.Week)
		}
		return nil, fmt.Errorf("failed to create week: %w", err)
	}
	return activity, nil
}

// UpdateWeek replaces the entry for week. The path week wins over any week in the body.
func (s *CurriculumService) UpdateWeek(ctx context.Context, actor *model.User, week int, in WeekInput) (*model.WeekActivity, error) {
	if !actor.Role.Can(model.ActionManageCurriculum) {
		return nil, forbidden("Not enough permissions")
	}
	if in.Week != 0 && in.Week != week {
		return nil, invalid("Week number in body does not match the path")
	}
	in.Week = week
	activity, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateWeek(ctx, activity); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Week %d activity not found", week)
		}
		return nil, fmt.Errorf("failed to update week: %w", err)
	}
	return activity, nil
}

func (s *CurriculumService) DeleteWeek(ctx context.Context, actor *model.User, week int) error {
	if !actor.Role.Can(model.ActionManageCurriculum) {
		return forbidden("Not enough permissions")
	}
	if err := s.store.DeleteWeek(ctx, week); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("Week %d activity not found", week)
		}
		return fmt.Errorf("failed to delete week: %w", err)
	}
	s.log.Info("curriculum week deleted", zap.Int("week", week))
	return nil
}
