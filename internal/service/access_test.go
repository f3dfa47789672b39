package service

import (
	"alcyxob/coach-app/internal/domain"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAccessResolver_Chain(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	o := f.addOverride(cp, OverrideInput{DayID: p.Days[0].Day.ID, Action: domain.OverrideHide, SourceItemID: &item.ID})
	otherCoach := f.user("Other Coach", "other@example.com", domain.RoleCoach)
	otherClient := f.user("Other Client", "oc@example.com", domain.RoleClient)
	missing := primitive.NewObjectID()

	tests := []struct {
		name string
		call func() error
		kind Kind
	}{
		{"coach program ok", func() error { _, err := f.access.CoachProgram(f.ctx, f.coach.ID, p.Program.ID); return err }, ""},
		{"coach program wrong coach", func() error { _, err := f.access.CoachProgram(f.ctx, otherCoach.ID, p.Program.ID); return err }, KindForbidden},
		{"coach program missing", func() error { _, err := f.access.CoachProgram(f.ctx, f.coach.ID, missing); return err }, KindNotFound},
		{"coach program unknown user", func() error { _, err := f.access.CoachProgram(f.ctx, missing, p.Program.ID); return err }, KindUnauthorized},
		{"coach program as client", func() error { _, err := f.access.CoachProgram(f.ctx, f.client.ID, p.Program.ID); return err }, KindForbidden},
		{"coach item ok", func() error { _, err := f.access.CoachItem(f.ctx, f.coach.ID, item.ID); return err }, ""},
		{"coach item wrong coach", func() error { _, err := f.access.CoachItem(f.ctx, otherCoach.ID, item.ID); return err }, KindForbidden},
		{"coach assignment ok", func() error { _, err := f.access.CoachAssignment(f.ctx, f.coach.ID, cp.ID); return err }, ""},
		{"coach assignment missing", func() error { _, err := f.access.CoachAssignment(f.ctx, f.coach.ID, missing); return err }, KindNotFound},
		{"coach override ok", func() error { _, err := f.access.CoachOverride(f.ctx, f.coach.ID, o.ID); return err }, ""},
		{"coach override wrong coach", func() error { _, err := f.access.CoachOverride(f.ctx, otherCoach.ID, o.ID); return err }, KindForbidden},
		{"client assignment ok", func() error { _, err := f.access.ClientAssignment(f.ctx, f.client.ID, cp.ID); return err }, ""},
		{"client assignment wrong client", func() error { _, err := f.access.ClientAssignment(f.ctx, otherClient.ID, cp.ID); return err }, KindForbidden},
		{"client assignment as coach", func() error { _, err := f.access.ClientAssignment(f.ctx, f.coach.ID, cp.ID); return err }, KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertKind(t, err, tt.kind)
		})
	}
}

func TestAccessResolver_Capabilities(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	cp := f.assign(p, f.client)

	a, err := f.access.ClientAssignment(f.ctx, f.client.ID, cp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.User.ID != f.client.ID || a.Assignment.ID != cp.ID || a.Program.ID != p.Program.ID {
		t.Errorf("capability does not carry the resolved chain: %+v", a)
	}
}

func TestError_IsAndKind(t *testing.T) {
	err := activeAssignmentsConflict(3)
	if !errors.Is(err, ErrProgramHasActive) {
		t.Error("conflict with count should match its sentinel")
	}
	if errors.Is(err, ErrAssignmentRace) {
		t.Error("different conflicts must not match")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("plain errors are internal")
	}
}
