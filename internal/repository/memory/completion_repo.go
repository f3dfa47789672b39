package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type completionRepository struct{ s *Store }

// Completions returns the store's CompletionRepository.
func (s *Store) Completions() repository.CompletionRepository { return &completionRepository{s} }

// UpsertDay holds the write lock across lookup and write, so it is atomic
// on (clientProgramId, programDayId) like the unique index it stands in for.
func (r *completionRepository) UpsertDay(_ context.Context, c *domain.DayCompletion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing := r.s.dayDone.filter(func(x domain.DayCompletion) bool {
		return x.ClientProgramID == c.ClientProgramID && x.ProgramDayID == c.ProgramDayID
	})
	if len(existing) > 0 {
		row := existing[0]
		row.CompletedAt = c.CompletedAt
		r.s.dayDone.put(row.ID, row)
		c.ID = row.ID
		return nil
	}
	c.ID = primitive.NewObjectID()
	r.s.dayDone.put(c.ID, *c)
	return nil
}

func (r *completionRepository) DeleteDay(_ context.Context, clientProgramID, dayID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.dayDone.deleteWhere(func(x domain.DayCompletion) bool {
		return x.ClientProgramID == clientProgramID && x.ProgramDayID == dayID
	})
	return nil
}

func (r *completionRepository) GetDaysByClientProgramID(_ context.Context, clientProgramID primitive.ObjectID) ([]domain.DayCompletion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.dayDone.filter(func(x domain.DayCompletion) bool { return x.ClientProgramID == clientProgramID }), nil
}

func (r *completionRepository) RecentDays(_ context.Context, clientProgramIDs []primitive.ObjectID, limit int) ([]domain.DayCompletion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := idSet(clientProgramIDs)
	out := r.s.dayDone.filter(func(x domain.DayCompletion) bool { return set[x.ClientProgramID] })
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CompletedAt, out[j].CompletedAt, out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertItem is atomic on (clientProgramId, targetKey) for both target kinds.
func (r *completionRepository) UpsertItem(_ context.Context, c *domain.ItemCompletion) error {
	if c.TargetKey == "" {
		return errors.New("item completion requires targetKey")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing := r.s.itemDone.filter(func(x domain.ItemCompletion) bool {
		return x.ClientProgramID == c.ClientProgramID && x.TargetKey == c.TargetKey
	})
	if len(existing) > 0 {
		row := existing[0]
		row.CompletedAt = c.CompletedAt
		r.s.itemDone.put(row.ID, row)
		c.ID = row.ID
		return nil
	}
	c.ID = primitive.NewObjectID()
	r.s.itemDone.put(c.ID, *c)
	return nil
}

func (r *completionRepository) DeleteItem(_ context.Context, clientProgramID primitive.ObjectID, targetKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.itemDone.deleteWhere(func(x domain.ItemCompletion) bool {
		return x.ClientProgramID == clientProgramID && x.TargetKey == targetKey
	})
	return nil
}

func (r *completionRepository) GetItemsByClientProgramID(_ context.Context, clientProgramID primitive.ObjectID) ([]domain.ItemCompletion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.itemDone.filter(func(x domain.ItemCompletion) bool { return x.ClientProgramID == clientProgramID }), nil
}

func (r *completionRepository) RecentItems(_ context.Context, clientProgramIDs []primitive.ObjectID, limit int) ([]domain.ItemCompletion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := idSet(clientProgramIDs)
	out := r.s.itemDone.filter(func(x domain.ItemCompletion) bool { return set[x.ClientProgramID] })
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CompletedAt, out[j].CompletedAt, out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *completionRepository) DeleteItemsByTargetKeys(_ context.Context, targetKeys []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	keys := make(map[string]bool, len(targetKeys))
	for _, k := range targetKeys {
		keys[k] = true
	}
	r.s.itemDone.deleteWhere(func(x domain.ItemCompletion) bool { return keys[x.TargetKey] })
	return nil
}

func (r *completionRepository) DeleteByClientProgramIDs(_ context.Context, ids []primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set := idSet(ids)
	r.s.dayDone.deleteWhere(func(x domain.DayCompletion) bool { return set[x.ClientProgramID] })
	r.s.itemDone.deleteWhere(func(x domain.ItemCompletion) bool { return set[x.ClientProgramID] })
	return nil
}

// newerFirst orders by completedAt desc, then id desc, matching the mongo
// recent queries.
func newerFirst(a, b time.Time, aID, bID primitive.ObjectID) bool {
	if a.Equal(b) {
		return aID.Hex() > bID.Hex()
	}
	return a.After(b)
}
