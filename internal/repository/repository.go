package repository

import (
	"alcyxob/coach-app/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	AddClientIDToCoach(ctx context.Context, coachID, clientID primitive.ObjectID) error
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForClient(ctx context.Context, clientID, coachID primitive.ObjectID) error
}

// ProgramRepository persists program roots.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgramDayRepository persists the numbered days of a program.
type ProgramDayRepository interface {
	CreateMany(ctx context.Context, days []domain.ProgramDay) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramDay, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ProgramDay, error)
	// GetByProgramID returns days ordered by day number.
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramDay, error)
	UpdateLabel(ctx context.Context, id primitive.ObjectID, label string) error
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error
	DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error
}

// ProgramItemRepository persists template items.
type ProgramItemRepository interface {
	Create(ctx context.Context, item *domain.ProgramItem) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramItem, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ProgramItem, error)
	// GetByProgramID returns items ordered by sort order, then insertion order.
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramItem, error)
	GetByDayID(ctx context.Context, dayID primitive.ObjectID) ([]domain.ProgramItem, error)
	Update(ctx context.Context, item *domain.ProgramItem) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error
}

// ClientProgramRepository persists assignments.
type ClientProgramRepository interface {
	// CreateActive deactivates every other active assignment of the client
	// and inserts the new one as active. ErrDuplicateKey means a concurrent
	// activation won.
	CreateActive(ctx context.Context, cp *domain.ClientProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientProgram, error)
	// GetActiveByClientID returns the most recently assigned active assignment.
	GetActiveByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientProgram, error)
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ClientProgram, error)
	GetActiveByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ClientProgram, error)
	CountActiveByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error)
	// HasClientAssignment reports whether the client has any assignment to the program.
	HasClientAssignment(ctx context.Context, clientID, programID primitive.ObjectID) (bool, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error
}

// OverrideRepository persists per-assignment overrides.
type OverrideRepository interface {
	Create(ctx context.Context, o *domain.ProgramItemOverride) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramItemOverride, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ProgramItemOverride, error)
	// GetByClientProgramID returns overrides in creation order.
	GetByClientProgramID(ctx context.Context, clientProgramID primitive.ObjectID) ([]domain.ProgramItemOverride, error)
	Update(ctx context.Context, o *domain.ProgramItemOverride) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DeleteBySourceItemID removes hide/replace overrides of a deleted item and returns their ids.
	DeleteBySourceItemID(ctx context.Context, itemID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteByClientProgramIDs(ctx context.Context, ids []primitive.ObjectID) error
}

// CompletionRepository is the completion ledger. Both upserts are atomic
// against their unique keys: concurrent callers converge on one row.
type CompletionRepository interface {
	UpsertDay(ctx context.Context, c *domain.DayCompletion) error
	// DeleteDay is a no-op when no row exists.
	DeleteDay(ctx context.Context, clientProgramID, dayID primitive.ObjectID) error
	GetDaysByClientProgramID(ctx context.Context, clientProgramID primitive.ObjectID) ([]domain.DayCompletion, error)
	// RecentDays returns up to limit rows across the assignments, newest first.
	RecentDays(ctx context.Context, clientProgramIDs []primitive.ObjectID, limit int) ([]domain.DayCompletion, error)

	UpsertItem(ctx context.Context, c *domain.ItemCompletion) error
	// DeleteItem is a no-op when no row exists.
	DeleteItem(ctx context.Context, clientProgramID primitive.ObjectID, targetKey string) error
	GetItemsByClientProgramID(ctx context.Context, clientProgramID primitive.ObjectID) ([]domain.ItemCompletion, error)
	// RecentItems returns up to limit rows across the assignments, newest first.
	RecentItems(ctx context.Context, clientProgramIDs []primitive.ObjectID, limit int) ([]domain.ItemCompletion, error)

	DeleteItemsByTargetKeys(ctx context.Context, targetKeys []string) error
	DeleteByClientProgramIDs(ctx context.Context, ids []primitive.ObjectID) error
}
