package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	targetKeyItemPrefix     = "item:"
	targetKeyOverridePrefix = "override:"
)

// ErrInvalidTarget is returned when a completion target does not name exactly
// one of a template item or an override.
var ErrInvalidTarget = errors.New("completion target must set exactly one of programItemId or overrideId")

// CompletionTarget identifies the unit of work an ItemCompletion marks done:
// either a template item or a client-only (add) override, never both.
type CompletionTarget struct {
	ProgramItemID *primitive.ObjectID `json:"programItemId,omitempty"`
	OverrideID    *primitive.ObjectID `json:"overrideId,omitempty"`
}

// TemplateItemTarget targets a template item.
func TemplateItemTarget(id primitive.ObjectID) CompletionTarget {
	return CompletionTarget{ProgramItemID: &id}
}

// OverrideItemTarget targets a client-only item created by an add override.
func OverrideItemTarget(id primitive.ObjectID) CompletionTarget {
	return CompletionTarget{OverrideID: &id}
}

// Validate checks that exactly one side of the union is set.
func (t CompletionTarget) Validate() error {
	hasItem := t.ProgramItemID != nil && !t.ProgramItemID.IsZero()
	hasOverride := t.OverrideID != nil && !t.OverrideID.IsZero()
	if hasItem == hasOverride {
		return ErrInvalidTarget
	}
	return nil
}

// IsOverride reports whether the target is an override item.
func (t CompletionTarget) IsOverride() bool {
	return t.OverrideID != nil && !t.OverrideID.IsZero()
}

// Key is the non-null synthetic key the item completion uniqueness
// constraint is declared on. Callers must Validate first.
func (t CompletionTarget) Key() string {
	if t.IsOverride() {
		return targetKeyOverridePrefix + t.OverrideID.Hex()
	}
	if t.ProgramItemID != nil {
		return targetKeyItemPrefix + t.ProgramItemID.Hex()
	}
	return ""
}

// DayCompletion marks one program day done for one assignment. Absence of
// the row means not completed.
type DayCompletion struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientProgramID primitive.ObjectID `bson:"clientProgramId" json:"clientProgramId"`
	ProgramDayID    primitive.ObjectID `bson:"programDayId" json:"programDayId"`
	CompletedAt     time.Time          `bson:"completedAt" json:"completedAt"`
}

// ItemCompletion marks one item done for one assignment. Exactly one of
// ProgramItemID and OverrideID is set; TargetKey mirrors whichever it is.
type ItemCompletion struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientProgramID primitive.ObjectID  `bson:"clientProgramId" json:"clientProgramId"`
	ProgramDayID    primitive.ObjectID  `bson:"programDayId" json:"programDayId"`
	ProgramItemID   *primitive.ObjectID `bson:"programItemId,omitempty" json:"programItemId,omitempty"`
	OverrideID      *primitive.ObjectID `bson:"overrideId,omitempty" json:"overrideId,omitempty"`
	TargetKey       string              `bson:"targetKey" json:"targetKey"`
	CompletedAt     time.Time           `bson:"completedAt" json:"completedAt"`
}

// Target rebuilds the tagged target from the stored columns.
func (c *ItemCompletion) Target() CompletionTarget {
	return CompletionTarget{ProgramItemID: c.ProgramItemID, OverrideID: c.OverrideID}
}
