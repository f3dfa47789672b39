package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OverrideAction is what an override does to the template for one assignment.
type OverrideAction string

const (
	OverrideAdd     OverrideAction = "add"
	OverrideReplace OverrideAction = "replace"
	OverrideHide    OverrideAction = "hide"
)

// Valid reports whether a is a known action.
func (a OverrideAction) Valid() bool {
	switch a {
	case OverrideAdd, OverrideReplace, OverrideHide:
		return true
	}
	return false
}

// ProgramItemOverride customizes one day of a program for a single assignment.
//
// hide and replace reference SourceItemID; add never does. Type, Title,
// Content and SortOrder describe the new or substituted content.
type ProgramItemOverride struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientProgramID primitive.ObjectID  `bson:"clientProgramId" json:"clientProgramId"`
	ProgramDayID    primitive.ObjectID  `bson:"programDayId" json:"programDayId"`
	Action          OverrideAction      `bson:"action" json:"action"`
	SourceItemID    *primitive.ObjectID `bson:"sourceItemId,omitempty" json:"sourceItemId,omitempty"`
	Type            ItemType            `bson:"type,omitempty" json:"type,omitempty"`
	Title           string              `bson:"title,omitempty" json:"title,omitempty"`
	Content         Content             `bson:"content,omitempty" json:"content,omitempty"`
	SortOrder       *int                `bson:"sortOrder,omitempty" json:"sortOrder,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TargetsItem reports whether the override is a hide/replace of itemID.
func (o *ProgramItemOverride) TargetsItem(itemID primitive.ObjectID) bool {
	return o.SourceItemID != nil && *o.SourceItemID == itemID
}
