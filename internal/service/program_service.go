package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/merge"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramInput carries the fields of a new program.
type ProgramInput struct {
	Name          string
	Description   string
	DurationWeeks int
	Color         string
	StartWeekday  domain.Weekday
}

// ProgramUpdate is a partial program edit; nil fields are left unchanged.
type ProgramUpdate struct {
	Name          *string
	Description   *string
	DurationWeeks *int
	Color         *string
	StartWeekday  *domain.Weekday
}

// ItemInput carries the fields of a new template item. A nil SortOrder
// places the item after its day's current last item.
type ItemInput struct {
	Type      domain.ItemType
	Title     string
	Content   domain.Content
	SortOrder *int
}

// ItemUpdate is a partial item edit; nil fields are left unchanged.
type ItemUpdate struct {
	Type      *domain.ItemType
	Title     *string
	Content   domain.Content
	SortOrder *int
}

// ProgramDetail is a program with its days and their sorted items.
type ProgramDetail struct {
	Program domain.Program      `json:"program"`
	Days    []merge.TemplateDay `json:"days"`
}

// ProgramService manages program templates.
type ProgramService interface {
	CreateProgram(ctx context.Context, coachID primitive.ObjectID, in ProgramInput) (*ProgramDetail, error)
	GetProgram(ctx context.Context, coachID, programID primitive.ObjectID) (*ProgramDetail, error)
	ListPrograms(ctx context.Context, coachID primitive.ObjectID) ([]domain.Program, error)
	UpdateProgram(ctx context.Context, coachID, programID primitive.ObjectID, upd ProgramUpdate) (*domain.Program, error)
	// DeleteProgram refuses with a conflict carrying the blocker count while
	// active assignments exist, unless force is set.
	DeleteProgram(ctx context.Context, coachID, programID primitive.ObjectID, force bool) error

	SetDayLabel(ctx context.Context, coachID, programID, dayID primitive.ObjectID, label string) (*domain.ProgramDay, error)
	AddItem(ctx context.Context, coachID, programID, dayID primitive.ObjectID, in ItemInput) (*domain.ProgramItem, error)
	UpdateItem(ctx context.Context, coachID, itemID primitive.ObjectID, upd ItemUpdate) (*domain.ProgramItem, error)
	DeleteItem(ctx context.Context, coachID, itemID primitive.ObjectID) error
}

type programService struct {
	access            AccessResolver
	programRepo       repository.ProgramRepository
	dayRepo           repository.ProgramDayRepository
	itemRepo          repository.ProgramItemRepository
	clientProgramRepo repository.ClientProgramRepository
	overrideRepo      repository.OverrideRepository
	completionRepo    repository.CompletionRepository
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	access AccessResolver,
	programRepo repository.ProgramRepository,
	dayRepo repository.ProgramDayRepository,
	itemRepo repository.ProgramItemRepository,
	clientProgramRepo repository.ClientProgramRepository,
	overrideRepo repository.OverrideRepository,
	completionRepo repository.CompletionRepository,
) ProgramService {
	return &programService{
		access:            access,
		programRepo:       programRepo,
		dayRepo:           dayRepo,
		itemRepo:          itemRepo,
		clientProgramRepo: clientProgramRepo,
		overrideRepo:      overrideRepo,
		completionRepo:    completionRepo,
	}
}

func validateDuration(weeks int) error {
	if weeks < 1 || weeks > domain.MaxDurationWeeks {
		return validationError("durationWeeks must be between 1 and %d", domain.MaxDurationWeeks)
	}
	return nil
}

func validateWeekday(w domain.Weekday) error {
	if !w.Valid() {
		return validationError("invalid startWeekday %q", w)
	}
	return nil
}

func validateItemFields(t domain.ItemType, title string) error {
	if !t.Valid() {
		return validationError("invalid item type %q", t)
	}
	if strings.TrimSpace(title) == "" {
		return validationError("item title is required")
	}
	return nil
}

// newDays builds unsaved days numbered from..to inclusive.
func newDays(programID primitive.ObjectID, from, to int) []domain.ProgramDay {
	days := make([]domain.ProgramDay, 0, to-from+1)
	for n := from; n <= to; n++ {
		days = append(days, domain.ProgramDay{ProgramID: programID, DayNumber: n})
	}
	return days
}

// CreateProgram creates the program root and provisions its days.
func (s *programService) CreateProgram(ctx context.Context, coachID primitive.ObjectID, in ProgramInput) (*ProgramDetail, error) {
	coach, err := s.access.Coach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationError("program name is required")
	}
	if err := validateDuration(in.DurationWeeks); err != nil {
		return nil, err
	}
	if err := validateWeekday(in.StartWeekday); err != nil {
		return nil, err
	}

	program := &domain.Program{
		CoachID:       coach.ID,
		Name:          in.Name,
		Description:   in.Description,
		DurationWeeks: in.DurationWeeks,
		Color:         in.Color,
		StartWeekday:  in.StartWeekday,
	}
	if _, err := s.programRepo.Create(ctx, program); err != nil {
		return nil, err
	}

	days := newDays(program.ID, 1, program.TotalDays())
	if err := s.dayRepo.CreateMany(ctx, days); err != nil {
		// Leave no half-provisioned program behind.
		if delErr := s.programRepo.Delete(ctx, program.ID); delErr != nil {
			log.Printf("ERROR: Failed to roll back program %s after day provisioning error: %v", program.ID.Hex(), delErr)
		}
		_ = s.dayRepo.DeleteByProgramID(ctx, program.ID)
		return nil, err
	}

	detail := &ProgramDetail{Program: *program, Days: make([]merge.TemplateDay, len(days))}
	for i, d := range days {
		detail.Days[i] = merge.TemplateDay{Day: d, Items: []domain.ProgramItem{}}
	}
	return detail, nil
}

func (s *programService) GetProgram(ctx context.Context, coachID, programID primitive.ObjectID) (*ProgramDetail, error) {
	access, err := s.access.CoachProgram(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	days, err := loadTemplate(ctx, s.dayRepo, s.itemRepo, programID)
	if err != nil {
		return nil, err
	}
	return &ProgramDetail{Program: *access.Program, Days: days}, nil
}

func (s *programService) ListPrograms(ctx context.Context, coachID primitive.ObjectID) ([]domain.Program, error) {
	coach, err := s.access.Coach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	return s.programRepo.GetByCoachID(ctx, coach.ID)
}

// UpdateProgram applies a partial edit. Growing the duration provisions the
// new days; shrinking drops trailing days and is refused when those days
// hold items or the program has been assigned.
func (s *programService) UpdateProgram(ctx context.Context, coachID, programID primitive.ObjectID, upd ProgramUpdate) (*domain.Program, error) {
	access, err := s.access.CoachProgram(ctx, coachID, programID)
	if err != nil {
		return nil, err
	}
	program := access.Program

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, validationError("program name is required")
		}
		program.Name = name
	}
	if upd.Description != nil {
		program.Description = *upd.Description
	}
	if upd.Color != nil {
		program.Color = *upd.Color
	}
	if upd.StartWeekday != nil {
		if err := validateWeekday(*upd.StartWeekday); err != nil {
			return nil, err
		}
		program.StartWeekday = *upd.StartWeekday
	}

	oldTotal := program.TotalDays()
	if upd.DurationWeeks != nil {
		if err := validateDuration(*upd.DurationWeeks); err != nil {
			return nil, err
		}
		program.DurationWeeks = *upd.DurationWeeks
	}
	newTotal := program.TotalDays()

	var dropped []primitive.ObjectID
	if newTotal < oldTotal {
		dropped, err = s.droppableDays(ctx, program.ID, newTotal)
		if err != nil {
			return nil, err
		}
	}

	if err := s.programRepo.Update(ctx, program); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	switch {
	case newTotal > oldTotal:
		if err := s.dayRepo.CreateMany(ctx, newDays(program.ID, oldTotal+1, newTotal)); err != nil {
			return nil, err
		}
	case len(dropped) > 0:
		if err := s.dayRepo.DeleteByIDs(ctx, dropped); err != nil {
			return nil, err
		}
	}
	return program, nil
}

// droppableDays returns the ids of days numbered above keep, or an error
// when dropping them would orphan content.
func (s *programService) droppableDays(ctx context.Context, programID primitive.ObjectID, keep int) ([]primitive.ObjectID, error) {
	assignments, err := s.clientProgramRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if len(assignments) > 0 {
		return nil, ErrShrinkWithAssignments
	}
	days, err := s.dayRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	var ids []primitive.ObjectID
	for _, d := range days {
		if d.DayNumber <= keep {
			continue
		}
		items, err := s.itemRepo.GetByDayID(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return nil, ErrShrinkWithItems
		}
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// DeleteProgram cascades completions, overrides, assignments, items, days
// and the root, in that order.
func (s *programService) DeleteProgram(ctx context.Context, coachID, programID primitive.ObjectID, force bool) error {
	if _, err := s.access.CoachProgram(ctx, coachID, programID); err != nil {
		return err
	}
	active, err := s.clientProgramRepo.CountActiveByProgramID(ctx, programID)
	if err != nil {
		return err
	}
	if active > 0 && !force {
		return activeAssignmentsConflict(active)
	}

	assignments, err := s.clientProgramRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return err
	}
	ids := make([]primitive.ObjectID, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ID
	}
	if err := s.completionRepo.DeleteByClientProgramIDs(ctx, ids); err != nil {
		return err
	}
	if err := s.overrideRepo.DeleteByClientProgramIDs(ctx, ids); err != nil {
		return err
	}
	if err := s.clientProgramRepo.DeleteByProgramID(ctx, programID); err != nil {
		return err
	}
	if err := s.itemRepo.DeleteByProgramID(ctx, programID); err != nil {
		return err
	}
	if err := s.dayRepo.DeleteByProgramID(ctx, programID); err != nil {
		return err
	}
	if err := s.programRepo.Delete(ctx, programID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	log.Printf("INFO: Deleted program %s (%d assignments, force=%t)", programID.Hex(), len(ids), force)
	return nil
}

// programDay loads a day and checks it belongs to programID.
func (s *programService) programDay(ctx context.Context, programID, dayID primitive.ObjectID) (*domain.ProgramDay, error) {
	day, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	if day.ProgramID != programID {
		return nil, ErrDayNotInProgram
	}
	return day, nil
}

func (s *programService) SetDayLabel(ctx context.Context, coachID, programID, dayID primitive.ObjectID, label string) (*domain.ProgramDay, error) {
	if _, err := s.access.CoachProgram(ctx, coachID, programID); err != nil {
		return nil, err
	}
	day, err := s.programDay(ctx, programID, dayID)
	if err != nil {
		return nil, err
	}
	label = strings.TrimSpace(label)
	if err := s.dayRepo.UpdateLabel(ctx, day.ID, label); err != nil {
		return nil, err
	}
	day.Label = label
	return day, nil
}

func (s *programService) AddItem(ctx context.Context, coachID, programID, dayID primitive.ObjectID, in ItemInput) (*domain.ProgramItem, error) {
	if _, err := s.access.CoachProgram(ctx, coachID, programID); err != nil {
		return nil, err
	}
	day, err := s.programDay(ctx, programID, dayID)
	if err != nil {
		return nil, err
	}
	if err := validateItemFields(in.Type, in.Title); err != nil {
		return nil, err
	}

	sortOrder := 0
	if in.SortOrder != nil {
		sortOrder = *in.SortOrder
	} else {
		siblings, err := s.itemRepo.GetByDayID(ctx, day.ID)
		if err != nil {
			return nil, err
		}
		for i, it := range siblings {
			if i == 0 || it.SortOrder >= sortOrder {
				sortOrder = it.SortOrder + 1
			}
		}
	}

	item := &domain.ProgramItem{
		ProgramID: programID,
		DayID:     day.ID,
		Type:      in.Type,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		SortOrder: sortOrder,
	}
	if _, err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *programService) UpdateItem(ctx context.Context, coachID, itemID primitive.ObjectID, upd ItemUpdate) (*domain.ProgramItem, error) {
	access, err := s.access.CoachItem(ctx, coachID, itemID)
	if err != nil {
		return nil, err
	}
	item := access.Item
	if upd.Type != nil {
		item.Type = *upd.Type
	}
	if upd.Title != nil {
		item.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Content != nil {
		item.Content = upd.Content
	}
	if upd.SortOrder != nil {
		item.SortOrder = *upd.SortOrder
	}
	if err := validateItemFields(item.Type, item.Title); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// DeleteItem removes the item, the hide/replace overrides that point at it
// and every completion recorded against it.
func (s *programService) DeleteItem(ctx context.Context, coachID, itemID primitive.ObjectID) error {
	access, err := s.access.CoachItem(ctx, coachID, itemID)
	if err != nil {
		return err
	}
	overrideIDs, err := s.overrideRepo.DeleteBySourceItemID(ctx, itemID)
	if err != nil {
		return err
	}
	keys := []string{domain.TemplateItemTarget(itemID).Key()}
	for _, id := range overrideIDs {
		keys = append(keys, domain.OverrideItemTarget(id).Key())
	}
	if err := s.completionRepo.DeleteItemsByTargetKeys(ctx, keys); err != nil {
		return err
	}
	if err := s.itemRepo.Delete(ctx, access.Item.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

// loadTemplate reads a program's days and items and groups items by day.
func loadTemplate(ctx context.Context, dayRepo repository.ProgramDayRepository, itemRepo repository.ProgramItemRepository, programID primitive.ObjectID) ([]merge.TemplateDay, error) {
	days, err := dayRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	items, err := itemRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	byDay := make(map[primitive.ObjectID][]domain.ProgramItem, len(days))
	for _, it := range items {
		byDay[it.DayID] = append(byDay[it.DayID], it)
	}
	out := make([]merge.TemplateDay, len(days))
	for i, d := range days {
		dayItems := byDay[d.ID]
		if dayItems == nil {
			dayItems = []domain.ProgramItem{}
		}
		domain.SortItems(dayItems)
		out[i] = merge.TemplateDay{Day: d, Items: dayItems}
	}
	return out, nil
}
