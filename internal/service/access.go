package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramAccess is the capability a coach holds over one of their programs.
type ProgramAccess struct {
	Coach   *domain.User
	Program *domain.Program
}

// AssignmentAccess is the capability over one assignment, resolved either
// from its coach or from its client. User is whichever of the two asked.
type AssignmentAccess struct {
	User       *domain.User
	Assignment *domain.ClientProgram
	Program    *domain.Program
}

// ItemAccess is the capability a coach holds over one template item.
type ItemAccess struct {
	Coach   *domain.User
	Program *domain.Program
	Item    *domain.ProgramItem
}

// OverrideAccess is the capability a coach holds over one override.
type OverrideAccess struct {
	AssignmentAccess
	Override *domain.ProgramItemOverride
}

// AccessResolver verifies the ownership chain
// user -> coach|client -> program|assignment -> child once per request.
//
// A missing or wrong-role user is unauthorized/forbidden, a missing
// resource is not found, and a resource owned by someone else is forbidden.
type AccessResolver interface {
	Coach(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	Client(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	CoachProgram(ctx context.Context, userID, programID primitive.ObjectID) (*ProgramAccess, error)
	CoachItem(ctx context.Context, userID, itemID primitive.ObjectID) (*ItemAccess, error)
	CoachAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*AssignmentAccess, error)
	CoachOverride(ctx context.Context, userID, overrideID primitive.ObjectID) (*OverrideAccess, error)
	ClientAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*AssignmentAccess, error)
}

type accessResolver struct {
	userRepo          repository.UserRepository
	programRepo       repository.ProgramRepository
	itemRepo          repository.ProgramItemRepository
	clientProgramRepo repository.ClientProgramRepository
	overrideRepo      repository.OverrideRepository
}

// NewAccessResolver creates a new AccessResolver.
func NewAccessResolver(
	userRepo repository.UserRepository,
	programRepo repository.ProgramRepository,
	itemRepo repository.ProgramItemRepository,
	clientProgramRepo repository.ClientProgramRepository,
	overrideRepo repository.OverrideRepository,
) AccessResolver {
	return &accessResolver{
		userRepo:          userRepo,
		programRepo:       programRepo,
		itemRepo:          itemRepo,
		clientProgramRepo: clientProgramRepo,
		overrideRepo:      overrideRepo,
	}
}

func (r *accessResolver) user(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrUnauthenticated
	}
	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (r *accessResolver) Coach(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := r.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsCoach() {
		return nil, ErrNotCoach
	}
	return user, nil
}

func (r *accessResolver) Client(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := r.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsClient() {
		return nil, ErrNotClient
	}
	return user, nil
}

func (r *accessResolver) program(ctx context.Context, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := r.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func (r *accessResolver) CoachProgram(ctx context.Context, userID, programID primitive.ObjectID) (*ProgramAccess, error) {
	coach, err := r.Coach(ctx, userID)
	if err != nil {
		return nil, err
	}
	program, err := r.program(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.CoachID != coach.ID {
		return nil, ErrProgramAccessDenied
	}
	return &ProgramAccess{Coach: coach, Program: program}, nil
}

func (r *accessResolver) CoachItem(ctx context.Context, userID, itemID primitive.ObjectID) (*ItemAccess, error) {
	coach, err := r.Coach(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := r.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	program, err := r.program(ctx, item.ProgramID)
	if err != nil {
		return nil, err
	}
	if program.CoachID != coach.ID {
		return nil, ErrProgramAccessDenied
	}
	return &ItemAccess{Coach: coach, Program: program, Item: item}, nil
}

func (r *accessResolver) assignment(ctx context.Context, assignmentID primitive.ObjectID) (*domain.ClientProgram, *domain.Program, error) {
	cp, err := r.clientProgramRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAssignmentNotFound
		}
		return nil, nil, err
	}
	program, err := r.program(ctx, cp.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	return cp, program, nil
}

func (r *accessResolver) CoachAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*AssignmentAccess, error) {
	coach, err := r.Coach(ctx, userID)
	if err != nil {
		return nil, err
	}
	cp, program, err := r.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if program.CoachID != coach.ID {
		return nil, ErrAssignmentAccessDenied
	}
	return &AssignmentAccess{User: coach, Assignment: cp, Program: program}, nil
}

func (r *accessResolver) CoachOverride(ctx context.Context, userID, overrideID primitive.ObjectID) (*OverrideAccess, error) {
	if _, err := r.Coach(ctx, userID); err != nil {
		return nil, err
	}
	o, err := r.overrideRepo.GetByID(ctx, overrideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOverrideNotFound
		}
		return nil, err
	}
	access, err := r.CoachAssignment(ctx, userID, o.ClientProgramID)
	if err != nil {
		return nil, err
	}
	return &OverrideAccess{AssignmentAccess: *access, Override: o}, nil
}

func (r *accessResolver) ClientAssignment(ctx context.Context, userID, assignmentID primitive.ObjectID) (*AssignmentAccess, error) {
	client, err := r.Client(ctx, userID)
	if err != nil {
		return nil, err
	}
	cp, program, err := r.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if cp.ClientID != client.ID {
		return nil, ErrAssignmentAccessDenied
	}
	return &AssignmentAccess{User: client, Assignment: cp, Program: program}, nil
}
