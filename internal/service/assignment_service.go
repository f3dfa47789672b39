package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/merge"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ViewItem is a merged item annotated with the assignment's completion state.
type ViewItem struct {
	merge.EffectiveItem
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ViewDay is a merged day with its projected calendar date.
type ViewDay struct {
	Day         domain.ProgramDay `json:"day"`
	Date        time.Time         `json:"date"`
	Completed   bool              `json:"completed"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Items       []ViewItem        `json:"items"`
}

// AssignmentView is one assignment's personalized program.
type AssignmentView struct {
	Assignment domain.ClientProgram `json:"assignment"`
	Program    domain.Program       `json:"program"`
	Days       []ViewDay            `json:"days"`
}

// AssignmentService binds clients to programs and renders their merged view.
type AssignmentService interface {
	// AssignProgram makes the program the client's only active assignment.
	AssignProgram(ctx context.Context, coachID, programID, clientID primitive.ObjectID, startDate time.Time) (*domain.ClientProgram, error)
	ListAssignments(ctx context.Context, coachID, programID primitive.ObjectID) ([]domain.ClientProgram, error)
	DeactivateAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ClientProgram, error)
	// GetClientView renders the client's most recent active assignment with
	// hidden items omitted.
	GetClientView(ctx context.Context, clientID primitive.ObjectID) (*AssignmentView, error)
	GetCoachView(ctx context.Context, coachID, assignmentID primitive.ObjectID, includeHidden bool) (*AssignmentView, error)
}

type assignmentService struct {
	access            AccessResolver
	userRepo          repository.UserRepository
	dayRepo           repository.ProgramDayRepository
	itemRepo          repository.ProgramItemRepository
	clientProgramRepo repository.ClientProgramRepository
	overrideRepo      repository.OverrideRepository
	completionRepo    repository.CompletionRepository
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	access AccessResolver,
	userRepo repository.UserRepository,
	dayRepo repository.ProgramDayRepository,
	itemRepo repository.ProgramItemRepository,
	clientProgramRepo repository.ClientProgramRepository,
	overrideRepo repository.OverrideRepository,
	completionRepo repository.CompletionRepository,
) AssignmentService {
	return &assignmentService{
		access:            access,
		userRepo:          userRepo,
		dayRepo:           dayRepo,
		itemRepo:          itemRepo,
		clientProgramRepo: clientProgramRepo,
		overrideRepo:      overrideRepo,
		completionRepo:    completionRepo,
	}
}

func (s *assignmentService) AssignProgram(ctx context.Context, coachID, programID, clientID primitive.ObjectID, startDate time.Time) (*domain.ClientProgram, error) {
	access, err := s.access.CoachProgram(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotRole
	}
	if !client.IsManagedBy(access.Coach.ID) {
		return nil, ErrClientNotManaged
	}

	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}
	y, m, d := startDate.Date()
	cp := &domain.ClientProgram{
		ClientID:  client.ID,
		ProgramID: access.Program.ID,
		CoachID:   access.Coach.ID,
		StartDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
	if _, err := s.clientProgramRepo.CreateActive(ctx, cp); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrAssignmentRace
		}
		return nil, err
	}
	log.Printf("INFO: Assigned program %s to client %s (assignment %s)", programID.Hex(), clientID.Hex(), cp.ID.Hex())
	return cp, nil
}

func (s *assignmentService) ListAssignments(ctx context.Context, coachID, programID primitive.ObjectID) ([]domain.ClientProgram, error) {
	if _, err := s.access.CoachProgram(ctx, coachID, programID); err != nil {
		return nil, err
	}
	return s.clientProgramRepo.GetByProgramID(ctx, programID)
}

// DeactivateAssignment ends an assignment. Its overrides and completions
// are kept as history.
func (s *assignmentService) DeactivateAssignment(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ClientProgram, error) {
	access, err := s.access.CoachAssignment(ctx, coachID, assignmentID)
	if err != nil {
		return nil, err
	}
	cp := access.Assignment
	if !cp.IsActive {
		return cp, nil
	}
	if err := s.clientProgramRepo.Deactivate(ctx, cp.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	cp.IsActive = false
	return cp, nil
}

func (s *assignmentService) GetClientView(ctx context.Context, clientID primitive.ObjectID) (*AssignmentView, error) {
	client, err := s.access.Client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	cp, err := s.clientProgramRepo.GetActiveByClientID(ctx, client.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveAssignment
		}
		return nil, err
	}
	access, err := s.access.ClientAssignment(ctx, client.ID, cp.ID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, access, false)
}

func (s *assignmentService) GetCoachView(ctx context.Context, coachID, assignmentID primitive.ObjectID, includeHidden bool) (*AssignmentView, error) {
	access, err := s.access.CoachAssignment(ctx, coachID, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, access, includeHidden)
}

// render merges the template with the assignment's overrides and annotates
// the result with dates and completion state.
func (s *assignmentService) render(ctx context.Context, access *AssignmentAccess, includeHidden bool) (*AssignmentView, error) {
	template, err := loadTemplate(ctx, s.dayRepo, s.itemRepo, access.Program.ID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrideRepo.GetByClientProgramID(ctx, access.Assignment.ID)
	if err != nil {
		return nil, err
	}
	progress, err := loadProgress(ctx, s.completionRepo, access.Assignment.ID)
	if err != nil {
		return nil, err
	}

	merged := merge.Merge(template, overrides, merge.Options{IncludeHidden: includeHidden})
	view := &AssignmentView{
		Assignment: *access.Assignment,
		Program:    *access.Program,
		Days:       make([]ViewDay, len(merged)),
	}
	for i, md := range merged {
		vd := ViewDay{
			Day:   md.Day,
			Date:  access.Program.DayDate(access.Assignment.StartDate, md.Day.DayNumber),
			Items: make([]ViewItem, len(md.Items)),
		}
		if at, ok := progress.DayDone(md.Day.ID); ok {
			vd.Completed = true
			vd.CompletedAt = &at
		}
		for j, it := range md.Items {
			vi := ViewItem{EffectiveItem: it}
			if !it.IsHidden {
				if at, ok := progress.ItemDone(it.Target); ok {
					vi.Completed = true
					vi.CompletedAt = &at
				}
			}
			vd.Items[j] = vi
		}
		view.Days[i] = vd
	}
	return view, nil
}
