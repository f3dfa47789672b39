package service

import (
	"alcyxob/coach-app/internal/config"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// FeedService builds the coach activity feed for a program.
type FeedService interface {
	// Feed returns the most recent completions across the program's active
	// assignments, newest first. A non-nil assignmentID narrows it to one.
	Feed(ctx context.Context, coachID, programID primitive.ObjectID, assignmentID *primitive.ObjectID) ([]domain.FeedEntry, error)
}

type feedService struct {
	access            AccessResolver
	userRepo          repository.UserRepository
	dayRepo           repository.ProgramDayRepository
	itemRepo          repository.ProgramItemRepository
	clientProgramRepo repository.ClientProgramRepository
	overrideRepo      repository.OverrideRepository
	completionRepo    repository.CompletionRepository
	limit             int
}

// NewFeedService creates a new instance of feedService. limit is clamped to
// 1..config.MaxFeedLimit.
func NewFeedService(
	access AccessResolver,
	userRepo repository.UserRepository,
	dayRepo repository.ProgramDayRepository,
	itemRepo repository.ProgramItemRepository,
	clientProgramRepo repository.ClientProgramRepository,
	overrideRepo repository.OverrideRepository,
	completionRepo repository.CompletionRepository,
	limit int,
) FeedService {
	if limit <= 0 || limit > config.MaxFeedLimit {
		limit = config.MaxFeedLimit
	}
	return &feedService{
		access:            access,
		userRepo:          userRepo,
		dayRepo:           dayRepo,
		itemRepo:          itemRepo,
		clientProgramRepo: clientProgramRepo,
		overrideRepo:      overrideRepo,
		completionRepo:    completionRepo,
		limit:             limit,
	}
}

// labels is everything phase 2 resolves, keyed by id.
type labels struct {
	days      map[primitive.ObjectID]domain.ProgramDay
	items     map[primitive.ObjectID]domain.ProgramItem
	overrides map[primitive.ObjectID]domain.ProgramItemOverride
	clients   map[primitive.ObjectID]domain.User
}

func (s *feedService) Feed(ctx context.Context, coachID, programID primitive.ObjectID, assignmentID *primitive.ObjectID) ([]domain.FeedEntry, error) {
	if _, err := s.access.CoachProgram(ctx, coachID, programID); err != nil {
		return nil, err
	}
	if assignmentID != nil {
		a, err := s.access.CoachAssignment(ctx, coachID, *assignmentID)
		if err != nil {
			return nil, err
		}
		if a.Program.ID != programID {
			return nil, validationError("assignment does not belong to this program")
		}
	}

	assignments, err := s.clientProgramRepo.GetActiveByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	clientOf := make(map[primitive.ObjectID]primitive.ObjectID, len(assignments))
	var ids []primitive.ObjectID
	for _, a := range assignments {
		if assignmentID != nil && a.ID != *assignmentID {
			continue
		}
		clientOf[a.ID] = a.ClientID
		ids = append(ids, a.ID)
	}
	if len(ids) == 0 {
		return []domain.FeedEntry{}, nil
	}

	// Phase 1: the most recent rows of each kind, in parallel.
	var dayRows []domain.DayCompletion
	var itemRows []domain.ItemCompletion
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dayRows, err = s.completionRepo.RecentDays(gctx, ids, s.limit)
		return err
	})
	g.Go(func() error {
		var err error
		itemRows, err = s.completionRepo.RecentItems(gctx, ids, s.limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lbl, err := s.resolveLabels(ctx, dayRows, itemRows, clientOf)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.FeedEntry, 0, len(dayRows)+len(itemRows))
	for _, row := range dayRows {
		e := s.entry(row.ID, row.ClientProgramID, domain.FeedDayCompleted, row.CompletedAt, clientOf, lbl)
		if day, ok := lbl.days[row.ProgramDayID]; ok {
			n := day.DayNumber
			e.DayNumber = &n
		}
		entries = append(entries, e)
	}
	for _, row := range itemRows {
		e := s.entry(row.ID, row.ClientProgramID, domain.FeedItemCompleted, row.CompletedAt, clientOf, lbl)
		if day, ok := lbl.days[row.ProgramDayID]; ok {
			n := day.DayNumber
			e.DayNumber = &n
		}
		switch {
		case row.OverrideID != nil:
			if o, ok := lbl.overrides[*row.OverrideID]; ok {
				e.ItemTitle, e.ItemType = o.Title, o.Type
			}
		case row.ProgramItemID != nil:
			if it, ok := lbl.items[*row.ProgramItemID]; ok {
				e.ItemTitle, e.ItemType = it.Title, it.Type
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CompletedAt.Equal(entries[j].CompletedAt) {
			return entries[i].ID.Hex() > entries[j].ID.Hex()
		}
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	return entries, nil
}

func (s *feedService) entry(id, assignmentID primitive.ObjectID, kind domain.FeedKind, at time.Time, clientOf map[primitive.ObjectID]primitive.ObjectID, lbl *labels) domain.FeedEntry {
	clientID := clientOf[assignmentID]
	return domain.FeedEntry{
		ID:          id,
		ClientID:    clientID,
		ClientName:  lbl.clients[clientID].Name,
		Kind:        kind,
		CompletedAt: at,
	}
}

// resolveLabels is phase 2: one batched lookup per referenced table, in
// parallel, regardless of how many rows phase 1 returned.
func (s *feedService) resolveLabels(ctx context.Context, dayRows []domain.DayCompletion, itemRows []domain.ItemCompletion, clientOf map[primitive.ObjectID]primitive.ObjectID) (*labels, error) {
	dayIDs := newIDSet()
	itemIDs := newIDSet()
	overrideIDs := newIDSet()
	clientIDs := newIDSet()
	for _, r := range dayRows {
		dayIDs.add(r.ProgramDayID)
		clientIDs.add(clientOf[r.ClientProgramID])
	}
	for _, r := range itemRows {
		dayIDs.add(r.ProgramDayID)
		clientIDs.add(clientOf[r.ClientProgramID])
		if r.OverrideID != nil {
			overrideIDs.add(*r.OverrideID)
		}
		if r.ProgramItemID != nil {
			itemIDs.add(*r.ProgramItemID)
		}
	}

	var (
		days      []domain.ProgramDay
		items     []domain.ProgramItem
		overrides []domain.ProgramItemOverride
		clients   []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		days, err = s.dayRepo.GetByIDs(gctx, dayIDs.list())
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.itemRepo.GetByIDs(gctx, itemIDs.list())
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = s.overrideRepo.GetByIDs(gctx, overrideIDs.list())
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = s.userRepo.GetByIDs(gctx, clientIDs.list())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lbl := &labels{
		days:      make(map[primitive.ObjectID]domain.ProgramDay, len(days)),
		items:     make(map[primitive.ObjectID]domain.ProgramItem, len(items)),
		overrides: make(map[primitive.ObjectID]domain.ProgramItemOverride, len(overrides)),
		clients:   make(map[primitive.ObjectID]domain.User, len(clients)),
	}
	for _, d := range days {
		lbl.days[d.ID] = d
	}
	for _, it := range items {
		lbl.items[it.ID] = it
	}
	for _, o := range overrides {
		lbl.overrides[o.ID] = o
	}
	for _, u := range clients {
		lbl.clients[u.ID] = u
	}
	return lbl, nil
}

// idSet collects distinct ids, keeping first-seen order.
type idSet struct {
	seen map[primitive.ObjectID]bool
	ids  []primitive.ObjectID
}

func newIDSet() *idSet {
	return &idSet{seen: map[primitive.ObjectID]bool{}}
}

func (s *idSet) add(id primitive.ObjectID) {
	if id.IsZero() || s.seen[id] {
		return
	}
	s.seen[id] = true
	s.ids = append(s.ids, id)
}

func (s *idSet) list() []primitive.ObjectID {
	return s.ids
}
