// Package memory is a mutex-guarded in-memory implementation of the
// repository interfaces. It enforces the same uniqueness rules as the Mongo
// indexes, which makes it usable as the store under test and for local runs
// with database.driver=memory.
package memory

import (
	"alcyxob/coach-app/internal/domain"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type row[T any] struct {
	seq int64
	val T
}

// table keeps rows keyed by id and remembers insertion order.
type table[T any] struct {
	rows map[primitive.ObjectID]*row[T]
	next int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[primitive.ObjectID]*row[T]{}}
}

func (t *table[T]) put(id primitive.ObjectID, v T) {
	if r, ok := t.rows[id]; ok {
		r.val = v
		return
	}
	t.next++
	t.rows[id] = &row[T]{seq: t.next, val: v}
}

func (t *table[T]) get(id primitive.ObjectID) (T, bool) {
	r, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return r.val, true
}

// filter returns matching rows in insertion order.
func (t *table[T]) filter(match func(T) bool) []T {
	rows := make([]*row[T], 0)
	for _, r := range t.rows {
		if match == nil || match(r.val) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.val
	}
	return out
}

func (t *table[T]) deleteWhere(match func(T) bool) int {
	n := 0
	for id, r := range t.rows {
		if match(r.val) {
			delete(t.rows, id)
			n++
		}
	}
	return n
}

// Store holds every collection behind one lock.
type Store struct {
	mu sync.RWMutex

	users          *table[domain.User]
	programs       *table[domain.Program]
	days           *table[domain.ProgramDay]
	items          *table[domain.ProgramItem]
	clientPrograms *table[domain.ClientProgram]
	overrides      *table[domain.ProgramItemOverride]
	dayDone        *table[domain.DayCompletion]
	itemDone       *table[domain.ItemCompletion]

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:          newTable[domain.User](),
		programs:       newTable[domain.Program](),
		days:           newTable[domain.ProgramDay](),
		items:          newTable[domain.ProgramItem](),
		clientPrograms: newTable[domain.ClientProgram](),
		overrides:      newTable[domain.ProgramItemOverride](),
		dayDone:        newTable[domain.DayCompletion](),
		itemDone:       newTable[domain.ItemCompletion](),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
