package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OverrideInput describes a new override on one day of an assignment.
type OverrideInput struct {
	DayID        primitive.ObjectID    `validate:"required"`
	Action       domain.OverrideAction `validate:"required,oneof=add replace hide"`
	SourceItemID *primitive.ObjectID
	Type         domain.ItemType `validate:"omitempty,oneof=workout exercise meal video text"`
	Title        string          `validate:"max=200"`
	Content      domain.Content
	SortOrder    *int
}

// OverrideUpdate is a partial override edit. Action, day and source item are
// fixed at creation.
type OverrideUpdate struct {
	Type      *domain.ItemType `validate:"omitempty,oneof=workout exercise meal video text"`
	Title     *string          `validate:"omitempty,max=200"`
	Content   domain.Content
	SortOrder *int
}

func (u OverrideUpdate) empty() bool {
	return u.Type == nil && u.Title == nil && u.Content == nil && u.SortOrder == nil
}

// OverrideService manages per-assignment customizations.
type OverrideService interface {
	Create(ctx context.Context, coachID, assignmentID primitive.ObjectID, in OverrideInput) (*domain.ProgramItemOverride, error)
	Update(ctx context.Context, coachID, overrideID primitive.ObjectID, upd OverrideUpdate) (*domain.ProgramItemOverride, error)
	// Delete reverts the day to template behavior and removes completions
	// recorded against the override.
	Delete(ctx context.Context, coachID, overrideID primitive.ObjectID) error
	List(ctx context.Context, coachID, assignmentID primitive.ObjectID) ([]domain.ProgramItemOverride, error)
}

type overrideService struct {
	access         AccessResolver
	dayRepo        repository.ProgramDayRepository
	itemRepo       repository.ProgramItemRepository
	overrideRepo   repository.OverrideRepository
	completionRepo repository.CompletionRepository
	validate       *validator.Validate
}

// NewOverrideService creates a new instance of overrideService.
func NewOverrideService(
	access AccessResolver,
	dayRepo repository.ProgramDayRepository,
	itemRepo repository.ProgramItemRepository,
	overrideRepo repository.OverrideRepository,
	completionRepo repository.CompletionRepository,
) OverrideService {
	return &overrideService{
		access:         access,
		dayRepo:        dayRepo,
		itemRepo:       itemRepo,
		overrideRepo:   overrideRepo,
		completionRepo: completionRepo,
		validate:       validator.New(),
	}
}

// structError turns validator output into a validation *Error naming the
// first failing field.
func (s *overrideService) structError(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return validationError("%s failed %s=%s", lowerFirst(fe.Field()), fe.Tag(), fe.Param())
		}
		return validationError("%s failed %s", lowerFirst(fe.Field()), fe.Tag())
	}
	return validationError("%v", err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func (s *overrideService) Create(ctx context.Context, coachID, assignmentID primitive.ObjectID, in OverrideInput) (*domain.ProgramItemOverride, error) {
	access, err := s.access.CoachAssignment(ctx, coachID, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.structError(in); err != nil {
		return nil, err
	}

	day, err := s.dayRepo.GetByID(ctx, in.DayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	if day.ProgramID != access.Program.ID {
		return nil, ErrDayNotInProgram
	}

	o := &domain.ProgramItemOverride{
		ClientProgramID: access.Assignment.ID,
		ProgramDayID:    day.ID,
		Action:          in.Action,
		Type:            in.Type,
		Title:           strings.TrimSpace(in.Title),
		Content:         in.Content,
		SortOrder:       in.SortOrder,
	}

	switch in.Action {
	case domain.OverrideAdd:
		if in.SourceItemID != nil {
			return nil, ErrSourceItemOnAdd
		}
		if o.Type == "" || o.Title == "" {
			return nil, ErrAddRequiresTitleType
		}
	case domain.OverrideReplace, domain.OverrideHide:
		if in.SourceItemID == nil || in.SourceItemID.IsZero() {
			return nil, ErrSourceItemRequired
		}
		source, err := s.sourceItem(ctx, access.Program.ID, day.ID, *in.SourceItemID)
		if err != nil {
			return nil, err
		}
		o.SourceItemID = &source.ID
		if in.Action == domain.OverrideHide {
			if o.Type != "" || o.Title != "" || o.Content != nil || o.SortOrder != nil {
				return nil, ErrHideTakesNoContent
			}
			break
		}
		if o.SortOrder != nil {
			return nil, ErrReplaceKeepsPosition
		}
		if o.Type == "" {
			o.Type = source.Type
		}
		if o.Title == "" {
			o.Title = source.Title
		}
	}

	if _, err := s.overrideRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// sourceItem checks that a hide/replace target exists, belongs to the
// assignment's program and sits on the overridden day.
func (s *overrideService) sourceItem(ctx context.Context, programID, dayID, itemID primitive.ObjectID) (*domain.ProgramItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if item.ProgramID != programID {
		return nil, ErrCrossProgramItem
	}
	if item.DayID != dayID {
		return nil, ErrItemNotOnDay
	}
	return item, nil
}

func (s *overrideService) Update(ctx context.Context, coachID, overrideID primitive.ObjectID, upd OverrideUpdate) (*domain.ProgramItemOverride, error) {
	access, err := s.access.CoachOverride(ctx, coachID, overrideID)
	if err != nil {
		return nil, err
	}
	if err := s.structError(upd); err != nil {
		return nil, err
	}
	o := access.Override
	if o.Action == domain.OverrideHide {
		if !upd.empty() {
			return nil, ErrHideTakesNoContent
		}
		return o, nil
	}

	if o.Action == domain.OverrideReplace && upd.SortOrder != nil {
		return nil, ErrReplaceKeepsPosition
	}

	if upd.Type != nil {
		o.Type = *upd.Type
	}
	if upd.Title != nil {
		o.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Content != nil {
		o.Content = upd.Content
	}
	if upd.SortOrder != nil {
		o.SortOrder = upd.SortOrder
	}
	if o.Action == domain.OverrideAdd && (o.Type == "" || o.Title == "") {
		return nil, ErrAddRequiresTitleType
	}

	if err := s.overrideRepo.Update(ctx, o); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *overrideService) Delete(ctx context.Context, coachID, overrideID primitive.ObjectID) error {
	access, err := s.access.CoachOverride(ctx, coachID, overrideID)
	if err != nil {
		return err
	}
	// Completions go first so a failure never leaves them orphaned.
	key := domain.OverrideItemTarget(access.Override.ID).Key()
	if err := s.completionRepo.DeleteItemsByTargetKeys(ctx, []string{key}); err != nil {
		return fmt.Errorf("delete completions of override %s: %w", access.Override.ID.Hex(), err)
	}
	if err := s.overrideRepo.Delete(ctx, access.Override.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOverrideNotFound
		}
		return err
	}
	return nil
}

func (s *overrideService) List(ctx context.Context, coachID, assignmentID primitive.ObjectID) ([]domain.ProgramItemOverride, error) {
	access, err := s.access.CoachAssignment(ctx, coachID, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.overrideRepo.GetByClientProgramID(ctx, access.Assignment.ID)
}
