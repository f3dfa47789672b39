package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct{ s *Store }

// Users returns the store's UserRepository.
func (s *Store) Users() repository.UserRepository { return &userRepository{s} }

func (r *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if len(r.s.users.filter(func(u domain.User) bool { return strings.ToLower(u.Email) == email })) > 0 {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	user.ID = primitive.NewObjectID()
	now := r.s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users.put(user.ID, *user)
	return user.ID, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(email)
	found := r.s.users.filter(func(u domain.User) bool { return strings.ToLower(u.Email) == email })
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := idSet(ids)
	return r.s.users.filter(func(u domain.User) bool { return set[u.ID] }), nil
}

func (r *userRepository) AddClientIDToCoach(_ context.Context, coachID, clientID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	coach, ok := r.s.users.get(coachID)
	if !ok || coach.Role != domain.RoleCoach {
		return repository.ErrNotFound
	}
	for _, id := range coach.ClientIDs {
		if id == clientID {
			return nil
		}
	}
	coach.ClientIDs = append(append([]primitive.ObjectID(nil), coach.ClientIDs...), clientID)
	coach.UpdatedAt = r.s.now()
	r.s.users.put(coachID, coach)
	return nil
}

func (r *userRepository) GetClientsByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	coach, ok := r.s.users.get(coachID)
	if !ok {
		return nil, errors.New("coach not found")
	}
	set := idSet(coach.ClientIDs)
	return r.s.users.filter(func(u domain.User) bool { return set[u.ID] }), nil
}

func (r *userRepository) SetCoachForClient(_ context.Context, clientID, coachID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	client, ok := r.s.users.get(clientID)
	if !ok || client.Role != domain.RoleClient {
		return repository.ErrNotFound
	}
	id := coachID
	client.CoachID = &id
	client.UpdatedAt = r.s.now()
	r.s.users.put(clientID, client)
	return nil
}
