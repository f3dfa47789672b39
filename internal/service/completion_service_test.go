package service

import (
	"alcyxob/coach-app/internal/domain"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDayCompletion_RoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	cp := f.assign(p, f.client)
	dayID := p.Days[0].Day.ID

	for i := 0; i < 2; i++ {
		if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, dayID, true); err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
	}
	rows, _ := f.store.Completions().GetDaysByClientProgramID(f.ctx, cp.ID)
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row after completing twice, got %d", len(rows))
	}

	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, dayID, false); err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	rows, _ = f.store.Completions().GetDaysByClientProgramID(f.ctx, cp.ID)
	if len(rows) != 0 {
		t.Fatalf("expected zero rows after uncompleting, got %d", len(rows))
	}

	// Uncompleting a day that is not completed is a no-op success.
	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, dayID, false); err != nil {
		t.Fatalf("second uncomplete: %v", err)
	}
}

func TestDayCompletion_DayOfOtherProgram(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	other := f.program(1)
	cp := f.assign(p, f.client)

	err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, other.Days[0].Day.ID, true)
	assertErr(t, err, ErrDayNotInProgram)
	assertKind(t, err, KindValidation)

	err = f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, primitive.NewObjectID(), false)
	assertKind(t, err, KindValidation)
}

// concurrentCompletions fires n concurrent completes of one target.
func concurrentCompletions(t *testing.T, f *fixture, cp *domain.ClientProgram, target domain.CompletionTarget, n int) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, target, true); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent SetItemCompletion: %v", err)
	}
}

func TestItemCompletion_ConcurrentTemplateItem(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)

	concurrentCompletions(t, f, cp, domain.TemplateItemTarget(item.ID), 25)

	rows, _ := f.store.Completions().GetItemsByClientProgramID(f.ctx, cp.ID)
	if len(rows) != 1 {
		t.Fatalf("expected exactly one live record, got %d", len(rows))
	}
	if rows[0].ProgramItemID == nil || *rows[0].ProgramItemID != item.ID || rows[0].OverrideID != nil {
		t.Errorf("unexpected target columns %+v", rows[0])
	}
}

func TestItemCompletion_ConcurrentOverrideItem(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	cp := f.assign(p, f.client)
	add := f.addOverride(cp, OverrideInput{DayID: p.Days[0].Day.ID, Action: domain.OverrideAdd,
		Type: domain.ItemTypeVideo, Title: "Extra mobility work"})

	concurrentCompletions(t, f, cp, domain.OverrideItemTarget(add.ID), 25)

	rows, _ := f.store.Completions().GetItemsByClientProgramID(f.ctx, cp.ID)
	if len(rows) != 1 {
		t.Fatalf("expected exactly one live record, got %d", len(rows))
	}
	if rows[0].ProgramDayID != p.Days[0].Day.ID {
		t.Errorf("completion should carry the override's day")
	}
}

func TestItemCompletion_UncompleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	target := domain.TemplateItemTarget(item.ID)

	if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, target, false); err != nil {
		t.Fatalf("uncomplete of missing row: %v", err)
	}
	if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, target, true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, target, false); err != nil {
			t.Fatalf("uncomplete #%d: %v", i+1, err)
		}
	}
	rows, _ := f.store.Completions().GetItemsByClientProgramID(f.ctx, cp.ID)
	if len(rows) != 0 {
		t.Fatalf("expected zero rows, got %d", len(rows))
	}
}

func TestItemCompletion_TargetValidation(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	other := f.program(1)
	foreign := f.item(other, 0, "Deadlift")
	cp := f.assign(p, f.client)
	hide := f.addOverride(cp, OverrideInput{DayID: p.Days[0].Day.ID, Action: domain.OverrideHide, SourceItemID: &item.ID})

	second := f.linkedClient("Sam", "sam@example.com")
	otherCP := f.assign(p, second)
	otherAdd := f.addOverride(otherCP, OverrideInput{DayID: p.Days[0].Day.ID, Action: domain.OverrideAdd,
		Type: domain.ItemTypeText, Title: "Sam only"})

	tests := []struct {
		name   string
		target domain.CompletionTarget
		want   error
	}{
		{"neither set", domain.CompletionTarget{}, ErrInvalidTarget},
		{"both set", domain.CompletionTarget{ProgramItemID: &item.ID, OverrideID: &hide.ID}, ErrInvalidTarget},
		{"item from other program", domain.TemplateItemTarget(foreign.ID), ErrTargetNotInAssignment},
		{"unknown item", domain.TemplateItemTarget(primitive.NewObjectID()), ErrTargetNotInAssignment},
		{"hide override", domain.OverrideItemTarget(hide.ID), ErrTargetNotInAssignment},
		{"another assignment's override", domain.OverrideItemTarget(otherAdd.ID), ErrTargetNotInAssignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, completed := range []bool{true, false} {
				err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, tt.target, completed)
				assertErr(t, err, tt.want)
				assertKind(t, err, KindValidation)
			}
		})
	}
}

func TestCompletion_Ownership(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	stranger := f.user("Stranger", "stranger@example.com", domain.RoleClient)
	target := domain.TemplateItemTarget(item.ID)

	err := f.completions.SetItemCompletion(f.ctx, stranger.ID, cp.ID, target, true)
	assertErr(t, err, ErrAssignmentAccessDenied)

	err = f.completions.SetItemCompletion(f.ctx, f.coach.ID, cp.ID, target, true)
	assertErr(t, err, ErrNotClient)

	err = f.completions.SetItemCompletion(f.ctx, primitive.NilObjectID, cp.ID, target, true)
	assertKind(t, err, KindUnauthorized)

	err = f.completions.SetDayCompletion(f.ctx, f.client.ID, primitive.NewObjectID(), p.Days[0].Day.ID, true)
	assertErr(t, err, ErrAssignmentNotFound)
}

func TestCompletion_InactiveAssignment(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	f.assign(f.program(1), f.client) // supersedes cp

	err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, domain.TemplateItemTarget(item.ID), true)
	assertErr(t, err, ErrAssignmentInactive)
}

func TestGetProgress(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	start := time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)
	f.tick(start)

	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, p.Days[0].Day.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, domain.TemplateItemTarget(item.ID), true); err != nil {
		t.Fatal(err)
	}

	progress, err := f.completions.GetProgress(f.ctx, f.client.ID, cp.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if at, ok := progress.DayDone(p.Days[0].Day.ID); !ok || !at.Equal(start.Add(time.Minute)) {
		t.Errorf("day 1 should be done at %v, got %v %v", start.Add(time.Minute), at, ok)
	}
	if _, ok := progress.ItemDone(domain.TemplateItemTarget(item.ID)); !ok {
		t.Error("item should be done")
	}
	if _, ok := progress.DayDone(p.Days[1].Day.ID); ok {
		t.Error("day 2 should not be done")
	}
}
