package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type overrideRepository struct{ s *Store }

// Overrides returns the store's OverrideRepository.
func (s *Store) Overrides() repository.OverrideRepository { return &overrideRepository{s} }

func (r *overrideRepository) Create(_ context.Context, o *domain.ProgramItemOverride) (primitive.ObjectID, error) {
	if o.ClientProgramID == primitive.NilObjectID || o.ProgramDayID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("override requires clientProgramId and programDayId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o.ID = primitive.NewObjectID()
	now := r.s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.s.overrides.put(o.ID, *o)
	return o.ID, nil
}

func (r *overrideRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramItemOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.overrides.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *overrideRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.ProgramItemOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := idSet(ids)
	return r.s.overrides.filter(func(o domain.ProgramItemOverride) bool { return set[o.ID] }), nil
}

func (r *overrideRepository) GetByClientProgramID(_ context.Context, clientProgramID primitive.ObjectID) ([]domain.ProgramItemOverride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.overrides.filter(func(o domain.ProgramItemOverride) bool { return o.ClientProgramID == clientProgramID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *overrideRepository) Update(_ context.Context, o *domain.ProgramItemOverride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.overrides.get(o.ID)
	if !ok {
		return repository.ErrNotFound
	}
	existing.Type = o.Type
	existing.Title = o.Title
	existing.Content = o.Content
	existing.SortOrder = o.SortOrder
	existing.UpdatedAt = r.s.now()
	r.s.overrides.put(o.ID, existing)
	o.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *overrideRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.overrides.deleteWhere(func(o domain.ProgramItemOverride) bool { return o.ID == id }) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *overrideRepository) DeleteBySourceItemID(_ context.Context, itemID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []primitive.ObjectID
	for _, o := range r.s.overrides.filter(func(o domain.ProgramItemOverride) bool { return o.TargetsItem(itemID) }) {
		ids = append(ids, o.ID)
	}
	set := idSet(ids)
	r.s.overrides.deleteWhere(func(o domain.ProgramItemOverride) bool { return set[o.ID] })
	return ids, nil
}

func (r *overrideRepository) DeleteByClientProgramIDs(_ context.Context, ids []primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := idSet(ids)
	r.s.overrides.deleteWhere(func(o domain.ProgramItemOverride) bool { return set[o.ClientProgramID] })
	return nil
}
