package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository/memory"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fixture wires every service over one in-memory store.
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store

	access      AccessResolver
	programs    ProgramService
	overrides   OverrideService
	completions CompletionService
	feed        FeedService
	assignments AssignmentService
	coaches     CoachService

	coach  domain.User
	client domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	access := NewAccessResolver(s.Users(), s.Programs(), s.ProgramItems(), s.ClientPrograms(), s.Overrides())
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  s,
		access: access,
		programs: NewProgramService(access, s.Programs(), s.ProgramDays(), s.ProgramItems(),
			s.ClientPrograms(), s.Overrides(), s.Completions()),
		overrides: NewOverrideService(access, s.ProgramDays(), s.ProgramItems(), s.Overrides(), s.Completions()),
		completions: NewCompletionService(access, s.ProgramDays(), s.ProgramItems(), s.Overrides(),
			s.Completions()),
		feed: NewFeedService(access, s.Users(), s.ProgramDays(), s.ProgramItems(), s.ClientPrograms(),
			s.Overrides(), s.Completions(), 50),
		assignments: NewAssignmentService(access, s.Users(), s.ProgramDays(), s.ProgramItems(),
			s.ClientPrograms(), s.Overrides(), s.Completions()),
		coaches: NewCoachService(access, s.Users()),
	}
	f.coach = f.user("Coach Carter", "coach@example.com", domain.RoleCoach)
	f.client = f.linkedClient("Alex Client", "alex@example.com")
	return f
}

func (f *fixture) user(name, email string, role domain.Role) domain.User {
	f.t.Helper()
	u := &domain.User{Name: name, Email: email, PasswordHash: "hash", Role: role}
	if _, err := f.store.Users().Create(f.ctx, u); err != nil {
		f.t.Fatalf("create user %s: %v", email, err)
	}
	return *u
}

func (f *fixture) linkedClient(name, email string) domain.User {
	f.t.Helper()
	u := f.user(name, email, domain.RoleClient)
	if _, err := f.coaches.AddClientByEmail(f.ctx, f.coach.ID, email); err != nil {
		f.t.Fatalf("link client %s: %v", email, err)
	}
	u.CoachID = &f.coach.ID
	return u
}

func (f *fixture) program(weeks int) *ProgramDetail {
	f.t.Helper()
	p, err := f.programs.CreateProgram(f.ctx, f.coach.ID, ProgramInput{Name: "Strength Block", DurationWeeks: weeks})
	if err != nil {
		f.t.Fatalf("CreateProgram: %v", err)
	}
	return p
}

func (f *fixture) item(p *ProgramDetail, dayIndex int, title string) *domain.ProgramItem {
	f.t.Helper()
	it, err := f.programs.AddItem(f.ctx, f.coach.ID, p.Program.ID, p.Days[dayIndex].Day.ID,
		ItemInput{Type: domain.ItemTypeExercise, Title: title})
	if err != nil {
		f.t.Fatalf("AddItem %s: %v", title, err)
	}
	return it
}

func (f *fixture) assign(p *ProgramDetail, client domain.User) *domain.ClientProgram {
	f.t.Helper()
	cp, err := f.assignments.AssignProgram(f.ctx, f.coach.ID, p.Program.ID, client.ID, time.Time{})
	if err != nil {
		f.t.Fatalf("AssignProgram: %v", err)
	}
	return cp
}

func (f *fixture) addOverride(cp *domain.ClientProgram, in OverrideInput) *domain.ProgramItemOverride {
	f.t.Helper()
	o, err := f.overrides.Create(f.ctx, f.coach.ID, cp.ID, in)
	if err != nil {
		f.t.Fatalf("Create override: %v", err)
	}
	return o
}

// tick makes the completion clock advance one minute per call from start.
func (f *fixture) tick(start time.Time) {
	var mu sync.Mutex
	next := start
	f.completions.(*completionService).now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		next = next.Add(time.Minute)
		return next
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}

func intPtr(n int) *int {
	return &n
}

func assertErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if got := KindOf(err); got != want {
		t.Fatalf("expected kind %s, got %s (%v)", want, got, err)
	}
}
