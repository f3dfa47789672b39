package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clientProgramRepository struct{ s *Store }

// ClientPrograms returns the store's ClientProgramRepository.
func (s *Store) ClientPrograms() repository.ClientProgramRepository {
	return &clientProgramRepository{s}
}

func (r *clientProgramRepository) CreateActive(_ context.Context, cp *domain.ClientProgram) (primitive.ObjectID, error) {
	if cp.ClientID == primitive.NilObjectID || cp.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires clientId and programId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for _, other := range r.s.clientPrograms.filter(func(x domain.ClientProgram) bool {
		return x.ClientID == cp.ClientID && x.IsActive
	}) {
		other.IsActive = false
		other.UpdatedAt = now
		r.s.clientPrograms.put(other.ID, other)
	}

	cp.ID = primitive.NewObjectID()
	cp.IsActive = true
	cp.AssignedAt = now
	cp.UpdatedAt = now
	r.s.clientPrograms.put(cp.ID, *cp)
	return cp.ID, nil
}

func (r *clientProgramRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClientProgram, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cp, ok := r.s.clientPrograms.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cp, nil
}

func (r *clientProgramRepository) GetActiveByClientID(_ context.Context, clientID primitive.ObjectID) (*domain.ClientProgram, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	found := r.s.clientPrograms.filter(func(x domain.ClientProgram) bool {
		return x.ClientID == clientID && x.IsActive
	})
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].AssignedAt.After(found[j].AssignedAt) })
	return &found[0], nil
}

func (r *clientProgramRepository) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.ClientProgram, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.clientPrograms.filter(func(x domain.ClientProgram) bool { return x.ProgramID == programID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (r *clientProgramRepository) GetActiveByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.ClientProgram, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.clientPrograms.filter(func(x domain.ClientProgram) bool {
		return x.ProgramID == programID && x.IsActive
	}), nil
}

func (r *clientProgramRepository) CountActiveByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	active, err := r.GetActiveByProgramID(ctx, programID)
	return int64(len(active)), err
}

func (r *clientProgramRepository) HasClientAssignment(_ context.Context, clientID, programID primitive.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	found := r.s.clientPrograms.filter(func(x domain.ClientProgram) bool {
		return x.ClientID == clientID && x.ProgramID == programID
	})
	return len(found) > 0, nil
}

func (r *clientProgramRepository) Deactivate(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp, ok := r.s.clientPrograms.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	cp.IsActive = false
	cp.UpdatedAt = r.s.now()
	r.s.clientPrograms.put(id, cp)
	return nil
}

func (r *clientProgramRepository) DeleteByProgramID(_ context.Context, programID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clientPrograms.deleteWhere(func(x domain.ClientProgram) bool { return x.ProgramID == programID })
	return nil
}
