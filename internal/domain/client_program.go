package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientProgram binds one client to one Program. At most one assignment per
// client is active at a time.
type ClientProgram struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	ProgramID  primitive.ObjectID `bson:"programId" json:"programId"`
	CoachID    primitive.ObjectID `bson:"coachId" json:"coachId"` // Denormalized for ownership checks
	StartDate  time.Time          `bson:"startDate" json:"startDate"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
