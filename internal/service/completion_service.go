package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress is the set of completion keys live for one assignment.
type Progress struct {
	AssignmentID   primitive.ObjectID   `json:"assignmentId"`
	CompletedDays  map[string]time.Time `json:"completedDays"`  // dayId hex -> completedAt
	CompletedItems map[string]time.Time `json:"completedItems"` // target key -> completedAt
}

// DayDone reports whether the day is completed.
func (p *Progress) DayDone(dayID primitive.ObjectID) (time.Time, bool) {
	t, ok := p.CompletedDays[dayID.Hex()]
	return t, ok
}

// ItemDone reports whether the target is completed.
func (p *Progress) ItemDone(target domain.CompletionTarget) (time.Time, bool) {
	t, ok := p.CompletedItems[target.Key()]
	return t, ok
}

// CompletionService is the completion ledger. Completion is row presence:
// completing upserts, uncompleting deletes, and both are idempotent.
type CompletionService interface {
	SetDayCompletion(ctx context.Context, clientID, assignmentID, dayID primitive.ObjectID, completed bool) error
	SetItemCompletion(ctx context.Context, clientID, assignmentID primitive.ObjectID, target domain.CompletionTarget, completed bool) error
	GetProgress(ctx context.Context, clientID, assignmentID primitive.ObjectID) (*Progress, error)
}

type completionService struct {
	access         AccessResolver
	dayRepo        repository.ProgramDayRepository
	itemRepo       repository.ProgramItemRepository
	overrideRepo   repository.OverrideRepository
	completionRepo repository.CompletionRepository
	now            func() time.Time
}

// NewCompletionService creates a new instance of completionService.
func NewCompletionService(
	access AccessResolver,
	dayRepo repository.ProgramDayRepository,
	itemRepo repository.ProgramItemRepository,
	overrideRepo repository.OverrideRepository,
	completionRepo repository.CompletionRepository,
) CompletionService {
	return &completionService{
		access:         access,
		dayRepo:        dayRepo,
		itemRepo:       itemRepo,
		overrideRepo:   overrideRepo,
		completionRepo: completionRepo,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// activeAssignment resolves the client's capability and requires the
// assignment to still be active.
func (s *completionService) activeAssignment(ctx context.Context, clientID, assignmentID primitive.ObjectID) (*AssignmentAccess, error) {
	access, err := s.access.ClientAssignment(ctx, clientID, assignmentID)
	if err != nil {
		return nil, err
	}
	if !access.Assignment.IsActive {
		return nil, ErrAssignmentInactive
	}
	return access, nil
}

func (s *completionService) SetDayCompletion(ctx context.Context, clientID, assignmentID, dayID primitive.ObjectID, completed bool) error {
	access, err := s.activeAssignment(ctx, clientID, assignmentID)
	if err != nil {
		return err
	}
	day, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDayNotInProgram
		}
		return err
	}
	if day.ProgramID != access.Program.ID {
		return ErrDayNotInProgram
	}

	if !completed {
		return s.completionRepo.DeleteDay(ctx, access.Assignment.ID, day.ID)
	}
	return s.completionRepo.UpsertDay(ctx, &domain.DayCompletion{
		ClientProgramID: access.Assignment.ID,
		ProgramDayID:    day.ID,
		CompletedAt:     s.now(),
	})
}

func (s *completionService) SetItemCompletion(ctx context.Context, clientID, assignmentID primitive.ObjectID, target domain.CompletionTarget, completed bool) error {
	if err := target.Validate(); err != nil {
		return ErrInvalidTarget
	}
	access, err := s.activeAssignment(ctx, clientID, assignmentID)
	if err != nil {
		return err
	}
	dayID, err := s.targetDay(ctx, access, target)
	if err != nil {
		return err
	}

	key := target.Key()
	if !completed {
		return s.completionRepo.DeleteItem(ctx, access.Assignment.ID, key)
	}
	c := &domain.ItemCompletion{
		ClientProgramID: access.Assignment.ID,
		ProgramDayID:    dayID,
		TargetKey:       key,
		CompletedAt:     s.now(),
	}
	if target.IsOverride() {
		c.OverrideID = target.OverrideID
	} else {
		c.ProgramItemID = target.ProgramItemID
	}
	return s.completionRepo.UpsertItem(ctx, c)
}

// targetDay checks the target belongs to the assignment and returns the day
// it sits on. A template item must be in the assignment's program; an
// override must be an add override of this very assignment.
func (s *completionService) targetDay(ctx context.Context, access *AssignmentAccess, target domain.CompletionTarget) (primitive.ObjectID, error) {
	if target.IsOverride() {
		o, err := s.overrideRepo.GetByID(ctx, *target.OverrideID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return primitive.NilObjectID, ErrTargetNotInAssignment
			}
			return primitive.NilObjectID, err
		}
		if o.ClientProgramID != access.Assignment.ID || o.Action != domain.OverrideAdd {
			return primitive.NilObjectID, ErrTargetNotInAssignment
		}
		return o.ProgramDayID, nil
	}

	item, err := s.itemRepo.GetByID(ctx, *target.ProgramItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrTargetNotInAssignment
		}
		return primitive.NilObjectID, err
	}
	if item.ProgramID != access.Program.ID {
		return primitive.NilObjectID, ErrTargetNotInAssignment
	}
	return item.DayID, nil
}

func (s *completionService) GetProgress(ctx context.Context, clientID, assignmentID primitive.ObjectID) (*Progress, error) {
	access, err := s.access.ClientAssignment(ctx, clientID, assignmentID)
	if err != nil {
		return nil, err
	}
	return loadProgress(ctx, s.completionRepo, access.Assignment.ID)
}

func loadProgress(ctx context.Context, completionRepo repository.CompletionRepository, assignmentID primitive.ObjectID) (*Progress, error) {
	days, err := completionRepo.GetDaysByClientProgramID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	items, err := completionRepo.GetItemsByClientProgramID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	p := &Progress{
		AssignmentID:   assignmentID,
		CompletedDays:  make(map[string]time.Time, len(days)),
		CompletedItems: make(map[string]time.Time, len(items)),
	}
	for _, d := range days {
		p.CompletedDays[d.ProgramDayID.Hex()] = d.CompletedAt
	}
	for _, it := range items {
		p.CompletedItems[it.TargetKey] = it.CompletedAt
	}
	return p, nil
}
