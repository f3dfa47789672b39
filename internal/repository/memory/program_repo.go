package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type programRepository struct{ s *Store }

// Programs returns the store's ProgramRepository.
func (s *Store) Programs() repository.ProgramRepository { return &programRepository{s} }

func (r *programRepository) Create(_ context.Context, p *domain.Program) (primitive.ObjectID, error) {
	if p.CoachID == primitive.NilObjectID || p.Name == "" {
		return primitive.NilObjectID, errors.New("program requires coachId and name")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = primitive.NewObjectID()
	now := r.s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.programs.put(p.ID, *p)
	return p.ID, nil
}

func (r *programRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.programs.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *programRepository) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Program, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.programs.filter(func(p domain.Program) bool { return p.CoachID == coachID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *programRepository) Update(_ context.Context, p *domain.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.programs.get(p.ID)
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.DurationWeeks = p.DurationWeeks
	existing.Color = p.Color
	existing.StartWeekday = p.StartWeekday
	existing.UpdatedAt = r.s.now()
	r.s.programs.put(p.ID, existing)
	p.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *programRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.programs.deleteWhere(func(p domain.Program) bool { return p.ID == id }) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type programDayRepository struct{ s *Store }

// ProgramDays returns the store's ProgramDayRepository.
func (s *Store) ProgramDays() repository.ProgramDayRepository { return &programDayRepository{s} }

func (r *programDayRepository) CreateMany(_ context.Context, days []domain.ProgramDay) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range days {
		d := days[i]
		dup := r.s.days.filter(func(x domain.ProgramDay) bool {
			return x.ProgramID == d.ProgramID && x.DayNumber == d.DayNumber
		})
		if len(dup) > 0 {
			return repository.ErrDuplicateKey
		}
	}
	for i := range days {
		if days[i].ID.IsZero() {
			days[i].ID = primitive.NewObjectID()
		}
		r.s.days.put(days[i].ID, days[i])
	}
	return nil
}

func (r *programDayRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramDay, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.days.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *programDayRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.ProgramDay, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := idSet(ids)
	return r.s.days.filter(func(d domain.ProgramDay) bool { return set[d.ID] }), nil
}

func (r *programDayRepository) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.ProgramDay, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.days.filter(func(d domain.ProgramDay) bool { return d.ProgramID == programID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })
	return out, nil
}

func (r *programDayRepository) UpdateLabel(_ context.Context, id primitive.ObjectID, label string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.days.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	d.Label = label
	r.s.days.put(id, d)
	return nil
}

func (r *programDayRepository) DeleteByIDs(_ context.Context, ids []primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := idSet(ids)
	r.s.days.deleteWhere(func(d domain.ProgramDay) bool { return set[d.ID] })
	return nil
}

func (r *programDayRepository) DeleteByProgramID(_ context.Context, programID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.days.deleteWhere(func(d domain.ProgramDay) bool { return d.ProgramID == programID })
	return nil
}

type programItemRepository struct{ s *Store }

// ProgramItems returns the store's ProgramItemRepository.
func (s *Store) ProgramItems() repository.ProgramItemRepository { return &programItemRepository{s} }

func (r *programItemRepository) Create(_ context.Context, item *domain.ProgramItem) (primitive.ObjectID, error) {
	if item.DayID == primitive.NilObjectID || item.ProgramID == primitive.NilObjectID || item.Title == "" {
		return primitive.NilObjectID, errors.New("item requires programId, dayId, and title")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = primitive.NewObjectID()
	now := r.s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.items.put(item.ID, *item)
	return item.ID, nil
}

func (r *programItemRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *programItemRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.ProgramItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := idSet(ids)
	return r.s.items.filter(func(it domain.ProgramItem) bool { return set[it.ID] }), nil
}

func (r *programItemRepository) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.ProgramItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.items.filter(func(it domain.ProgramItem) bool { return it.ProgramID == programID })
	domain.SortItems(out)
	return out, nil
}

func (r *programItemRepository) GetByDayID(_ context.Context, dayID primitive.ObjectID) ([]domain.ProgramItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.items.filter(func(it domain.ProgramItem) bool { return it.DayID == dayID })
	domain.SortItems(out)
	return out, nil
}

func (r *programItemRepository) Update(_ context.Context, item *domain.ProgramItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.items.get(item.ID)
	if !ok {
		return repository.ErrNotFound
	}
	existing.Type = item.Type
	existing.Title = item.Title
	existing.Content = item.Content
	existing.SortOrder = item.SortOrder
	existing.UpdatedAt = r.s.now()
	r.s.items.put(item.ID, existing)
	item.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *programItemRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.items.deleteWhere(func(it domain.ProgramItem) bool { return it.ID == id }) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *programItemRepository) DeleteByProgramID(_ context.Context, programID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items.deleteWhere(func(it domain.ProgramItem) bool { return it.ProgramID == programID })
	return nil
}
