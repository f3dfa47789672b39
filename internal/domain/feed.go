package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedKind distinguishes the two completion kinds in the activity feed.
type FeedKind string

const (
	FeedDayCompleted  FeedKind = "day_completed"
	FeedItemCompleted FeedKind = "item_completed"
)

// FeedEntry is one denormalized activity feed row.
type FeedEntry struct {
	ID          primitive.ObjectID `json:"id"`
	ClientName  string             `json:"clientName"`
	ClientID    primitive.ObjectID `json:"clientId"`
	Kind        FeedKind           `json:"kind"`
	DayNumber   *int               `json:"dayNumber,omitempty"`
	ItemTitle   string             `json:"itemTitle,omitempty"`
	ItemType    ItemType           `json:"itemType,omitempty"`
	CompletedAt time.Time          `json:"completedAt"`
}
