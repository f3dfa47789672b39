package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachService manages the coach -> client links programs are assigned across.
type CoachService interface {
	AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetManagedClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
}

type coachService struct {
	access   AccessResolver
	userRepo repository.UserRepository
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(access AccessResolver, userRepo repository.UserRepository) CoachService {
	return &coachService{access: access, userRepo: userRepo}
}

// AddClientByEmail finds a client by email and links them to the coach.
// Linking a client the coach already manages is a no-op.
func (s *coachService) AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	coach, err := s.access.Coach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	clientEmail = strings.TrimSpace(clientEmail)
	if clientEmail == "" {
		return nil, validationError("client email is required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotRole
	}
	if client.CoachID != nil && !client.CoachID.IsZero() {
		if client.IsManagedBy(coach.ID) {
			client.PasswordHash = ""
			return client, nil
		}
		return nil, ErrClientAlreadyAssigned
	}

	if err := s.userRepo.AddClientIDToCoach(ctx, coach.ID, client.ID); err != nil {
		return nil, err
	}
	// Not transactional: a failure here leaves the coach's list ahead of the
	// client's record, which a retry repairs since both writes are idempotent.
	if err := s.userRepo.SetCoachForClient(ctx, client.ID, coach.ID); err != nil {
		return nil, err
	}

	client.CoachID = &coach.ID
	client.PasswordHash = ""
	return client, nil
}

// GetManagedClients retrieves the list of clients managed by the coach.
func (s *coachService) GetManagedClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	coach, err := s.access.Coach(ctx, coachID)
	if err != nil {
		return nil, err
	}
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coach.ID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}
