package service

import (
	"alcyxob/coach-app/internal/domain"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAssignProgram_SingleActivePerClient(t *testing.T) {
	f := newFixture(t)
	first := f.assign(f.program(1), f.client)
	secondProgram := f.program(1)
	second := f.assign(secondProgram, f.client)

	old, err := f.store.ClientPrograms().GetByID(f.ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.IsActive {
		t.Error("previous assignment should be deactivated")
	}
	view, err := f.assignments.GetClientView(f.ctx, f.client.ID)
	if err != nil {
		t.Fatalf("GetClientView: %v", err)
	}
	if view.Assignment.ID != second.ID || view.Program.ID != secondProgram.Program.ID {
		t.Errorf("client view should follow the newest assignment")
	}
}

func TestAssignProgram_ClientChecks(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	unlinked := f.user("Loner", "loner@example.com", domain.RoleClient)
	otherCoach := f.user("Other Coach", "other@example.com", domain.RoleCoach)

	_, err := f.assignments.AssignProgram(f.ctx, f.coach.ID, p.Program.ID, unlinked.ID, time.Time{})
	assertErr(t, err, ErrClientNotManaged)

	_, err = f.assignments.AssignProgram(f.ctx, f.coach.ID, p.Program.ID, otherCoach.ID, time.Time{})
	assertErr(t, err, ErrClientNotRole)

	_, err = f.assignments.AssignProgram(f.ctx, f.coach.ID, p.Program.ID, primitive.NewObjectID(), time.Time{})
	assertErr(t, err, ErrClientNotFound)

	_, err = f.assignments.AssignProgram(f.ctx, otherCoach.ID, p.Program.ID, f.client.ID, time.Time{})
	assertErr(t, err, ErrProgramAccessDenied)
}

func TestGetClientView_NoAssignment(t *testing.T) {
	f := newFixture(t)
	_, err := f.assignments.GetClientView(f.ctx, f.client.ID)
	assertErr(t, err, ErrNoActiveAssignment)
	assertKind(t, err, KindNotFound)
}

func TestClientView_DatesAndCompletion(t *testing.T) {
	f := newFixture(t)
	created, err := f.programs.CreateProgram(f.ctx, f.coach.ID, ProgramInput{
		Name: "Monday start", DurationWeeks: 1, StartWeekday: domain.Monday,
	})
	if err != nil {
		t.Fatal(err)
	}
	squat := f.item(created, 0, "Squat 5x5")
	bench := f.item(created, 0, "Bench 5x5")

	// Thursday 2026-03-05; first Monday on or after is 2026-03-09.
	start := time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC)
	cp, err := f.assignments.AssignProgram(f.ctx, f.coach.ID, created.Program.ID, f.client.ID, start)
	if err != nil {
		t.Fatal(err)
	}
	f.addOverride(cp, OverrideInput{DayID: created.Days[0].Day.ID, Action: domain.OverrideReplace,
		SourceItemID: &bench.ID, Title: "Floor press"})
	if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, domain.TemplateItemTarget(bench.ID), true); err != nil {
		t.Fatal(err)
	}
	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, created.Days[0].Day.ID, true); err != nil {
		t.Fatal(err)
	}

	view, err := f.assignments.GetClientView(f.ctx, f.client.ID)
	if err != nil {
		t.Fatalf("GetClientView: %v", err)
	}
	if want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC); !view.Days[0].Date.Equal(want) {
		t.Errorf("day 1 date: want %v got %v", want, view.Days[0].Date)
	}
	if want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC); !view.Days[6].Date.Equal(want) {
		t.Errorf("day 7 date: want %v got %v", want, view.Days[6].Date)
	}
	if !view.Days[0].Completed || view.Days[1].Completed {
		t.Error("only day 1 should be completed")
	}

	items := view.Days[0].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != squat.ID || items[0].Completed {
		t.Errorf("squat should be first and not completed")
	}
	replaced := items[1]
	if replaced.ID != bench.ID || replaced.Title != "Floor press" || !replaced.IsCustomized || replaced.IsClientOnly {
		t.Errorf("unexpected replaced entry %+v", replaced.EffectiveItem)
	}
	if !replaced.Completed {
		t.Error("completion on the template item should carry over to its replacement")
	}
}

func TestCoachView_OtherCoachForbidden(t *testing.T) {
	f := newFixture(t)
	cp := f.assign(f.program(1), f.client)
	other := f.user("Other Coach", "other@example.com", domain.RoleCoach)

	_, err := f.assignments.GetCoachView(f.ctx, other.ID, cp.ID, true)
	assertErr(t, err, ErrAssignmentAccessDenied)

	_, err = f.assignments.GetCoachView(f.ctx, f.coach.ID, primitive.NewObjectID(), true)
	assertErr(t, err, ErrAssignmentNotFound)
}

func TestListAndDeactivate(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	cp := f.assign(p, f.client)

	list, err := f.assignments.ListAssignments(f.ctx, f.coach.ID, p.Program.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListAssignments: %v (%d)", err, len(list))
	}
	got, err := f.assignments.DeactivateAssignment(f.ctx, f.coach.ID, cp.ID)
	if err != nil {
		t.Fatalf("DeactivateAssignment: %v", err)
	}
	if got.IsActive {
		t.Error("assignment should be inactive")
	}
	if _, err := f.assignments.DeactivateAssignment(f.ctx, f.coach.ID, cp.ID); err != nil {
		t.Errorf("deactivating twice should be a no-op: %v", err)
	}
}
