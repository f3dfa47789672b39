// internal/domain/program.go
package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DaysPerWeek is the number of ProgramDay rows provisioned per program week.
const DaysPerWeek = 7

// MaxDurationWeeks bounds how long a single program can run.
const MaxDurationWeeks = 52

// ItemType is the closed set of content kinds a program item can hold.
type ItemType string

const (
	ItemTypeWorkout  ItemType = "workout"
	ItemTypeExercise ItemType = "exercise"
	ItemTypeMeal     ItemType = "meal"
	ItemTypeVideo    ItemType = "video"
	ItemTypeText     ItemType = "text"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeWorkout, ItemTypeExercise, ItemTypeMeal, ItemTypeVideo, ItemTypeText:
		return true
	}
	return false
}

// Weekday is the symbolic weekday a program's day 1 lands on.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var weekdays = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// Valid reports whether w is empty (no alignment) or a known weekday.
func (w Weekday) Valid() bool {
	if w == "" {
		return true
	}
	_, ok := weekdays[w]
	return ok
}

// Content is the opaque, type-dependent payload of an item. It is stored and
// returned as-is.
type Content map[string]interface{}

// Program is a coach-authored multi-week template.
type Program struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	Color         string             `bson:"color,omitempty" json:"color,omitempty"`
	StartWeekday  Weekday            `bson:"startWeekday,omitempty" json:"startWeekday,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TotalDays is the number of days the program spans.
func (p *Program) TotalDays() int {
	return p.DurationWeeks * DaysPerWeek
}

// FirstDayDate projects the calendar date of day 1 for an assignment starting
// on startDate: the first date on or after startDate that falls on
// StartWeekday, or startDate itself when no weekday is set.
func (p *Program) FirstDayDate(startDate time.Time) time.Time {
	y, m, d := startDate.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, startDate.Location())
	want, ok := weekdays[p.StartWeekday]
	if !ok {
		return start
	}
	shift := (int(want) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, shift)
}

// DayDate projects the calendar date of the given 1-based day number.
func (p *Program) DayDate(startDate time.Time, dayNumber int) time.Time {
	return p.FirstDayDate(startDate).AddDate(0, 0, dayNumber-1)
}

// ProgramDay is one numbered day within a program.
type ProgramDay struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"`
	DayNumber int                `bson:"dayNumber" json:"dayNumber"`
	Label     string             `bson:"label,omitempty" json:"label,omitempty"`
}

// ProgramItem is a unit of content belonging to exactly one day.
type ProgramItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"` // Denormalized for ownership checks
	DayID     primitive.ObjectID `bson:"dayId" json:"dayId"`
	Type      ItemType           `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Content   Content            `bson:"content,omitempty" json:"content,omitempty"`
	SortOrder int                `bson:"sortOrder" json:"sortOrder"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SortItems orders items by SortOrder ascending, keeping insertion order for ties.
func SortItems(items []ProgramItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortOrder < items[j].SortOrder
	})
}
