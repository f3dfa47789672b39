package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/merge"
	"testing"
	"time"
)

var feedStart = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

func TestFeed_OrderedNewestFirst(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	item := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	f.tick(feedStart)

	// T1 day 1, T2 item, T3 day 2
	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, p.Days[0].Day.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, domain.TemplateItemTarget(item.ID), true); err != nil {
		t.Fatal(err)
	}
	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, p.Days[1].Day.ID, true); err != nil {
		t.Fatal(err)
	}

	feed, err := f.feed.Feed(f.ctx, f.coach.ID, p.Program.ID, nil)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(feed))
	}
	for i := 1; i < len(feed); i++ {
		if !feed[i-1].CompletedAt.After(feed[i].CompletedAt) {
			t.Fatalf("entries not in descending order at %d", i)
		}
	}
	if feed[0].Kind != domain.FeedDayCompleted || *feed[0].DayNumber != 2 {
		t.Errorf("newest entry should be day 2, got %+v", feed[0])
	}
	if feed[1].Kind != domain.FeedItemCompleted || feed[1].ItemTitle != "Squat 5x5" || feed[1].ItemType != domain.ItemTypeExercise {
		t.Errorf("middle entry should be the squat item, got %+v", feed[1])
	}
	if feed[2].ClientName != "Alex Client" || feed[2].ClientID != f.client.ID {
		t.Errorf("client label not resolved: %+v", feed[2])
	}
}

func TestFeed_CappedAtFifty(t *testing.T) {
	f := newFixture(t)
	p := f.program(5) // 35 days
	second := f.linkedClient("Sam", "sam@example.com")
	cpA := f.assign(p, f.client)
	cpB := f.assign(p, second)
	f.tick(feedStart)

	for i := 0; i < 30; i++ {
		if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cpA.ID, p.Days[i].Day.ID, true); err != nil {
			t.Fatal(err)
		}
		if err := f.completions.SetDayCompletion(f.ctx, second.ID, cpB.ID, p.Days[i].Day.ID, true); err != nil {
			t.Fatal(err)
		}
	}

	feed, err := f.feed.Feed(f.ctx, f.coach.ID, p.Program.ID, nil)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(feed))
	}
	if want := feedStart.Add(60 * time.Minute); !feed[0].CompletedAt.Equal(want) {
		t.Errorf("first entry should be the newest (%v), got %v", want, feed[0].CompletedAt)
	}
	if want := feedStart.Add(11 * time.Minute); !feed[49].CompletedAt.Equal(want) {
		t.Errorf("last entry should be the 50th newest (%v), got %v", want, feed[49].CompletedAt)
	}
}

func TestFeed_FilterByAssignment(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	second := f.linkedClient("Sam", "sam@example.com")
	cpA := f.assign(p, f.client)
	cpB := f.assign(p, second)
	f.tick(feedStart)

	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cpA.ID, p.Days[0].Day.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := f.completions.SetDayCompletion(f.ctx, second.ID, cpB.ID, p.Days[0].Day.ID, true); err != nil {
		t.Fatal(err)
	}

	feed, err := f.feed.Feed(f.ctx, f.coach.ID, p.Program.ID, &cpB.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 1 || feed[0].ClientName != "Sam" {
		t.Fatalf("expected Sam's single entry, got %+v", feed)
	}

	other := f.program(1)
	_, err = f.feed.Feed(f.ctx, f.coach.ID, other.Program.ID, &cpB.ID)
	assertKind(t, err, KindValidation)
}

func TestFeed_SkipsInactiveAssignments(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	cp := f.assign(p, f.client)
	if err := f.completions.SetDayCompletion(f.ctx, f.client.ID, cp.ID, p.Days[0].Day.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := f.assignments.DeactivateAssignment(f.ctx, f.coach.ID, cp.ID); err != nil {
		t.Fatal(err)
	}

	feed, err := f.feed.Feed(f.ctx, f.coach.ID, p.Program.ID, nil)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d entries", len(feed))
	}
}

func TestNewFeedService_ClampsLimit(t *testing.T) {
	for _, limit := range []int{0, -3, 500} {
		svc := NewFeedService(nil, nil, nil, nil, nil, nil, nil, limit).(*feedService)
		if svc.limit != 50 {
			t.Errorf("limit %d: expected 50, got %d", limit, svc.limit)
		}
	}
	if svc := NewFeedService(nil, nil, nil, nil, nil, nil, nil, 10).(*feedService); svc.limit != 10 {
		t.Errorf("expected 10, got %d", svc.limit)
	}
}

// Squat hidden, extra mobility work added, client completes the added item.
func TestScenario_HideAddCompleteFeed(t *testing.T) {
	f := newFixture(t)
	p := f.program(1)
	squat := f.item(p, 0, "Squat 5x5")
	cp := f.assign(p, f.client)
	dayID := p.Days[0].Day.ID

	f.addOverride(cp, OverrideInput{DayID: dayID, Action: domain.OverrideHide, SourceItemID: &squat.ID})
	o2 := f.addOverride(cp, OverrideInput{DayID: dayID, Action: domain.OverrideAdd,
		Type: domain.ItemTypeExercise, Title: "Extra mobility work"})

	view, err := f.assignments.GetClientView(f.ctx, f.client.ID)
	if err != nil {
		t.Fatalf("GetClientView: %v", err)
	}
	items := view.Days[0].Items
	if len(items) != 1 {
		t.Fatalf("expected exactly one visible item, got %d", len(items))
	}
	if items[0].Title != "Extra mobility work" || !items[0].IsClientOnly {
		t.Fatalf("unexpected item %+v", items[0].EffectiveItem)
	}

	if err := f.completions.SetItemCompletion(f.ctx, f.client.ID, cp.ID, domain.OverrideItemTarget(o2.ID), true); err != nil {
		t.Fatalf("SetItemCompletion: %v", err)
	}

	feed, err := f.feed.Feed(f.ctx, f.coach.ID, p.Program.ID, nil)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("expected one feed entry, got %d", len(feed))
	}
	if feed[0].Kind != domain.FeedItemCompleted || feed[0].ItemTitle != "Extra mobility work" {
		t.Errorf("unexpected feed entry %+v", feed[0])
	}

	coachView, err := f.assignments.GetCoachView(f.ctx, f.coach.ID, cp.ID, true)
	if err != nil {
		t.Fatalf("GetCoachView: %v", err)
	}
	if got := coachView.Days[0].Items; len(got) != 2 || !got[0].IsHidden {
		t.Errorf("coach view should show the hidden squat first, got %d items", len(got))
	}
	hidden := merge.EffectiveDay{Items: []merge.EffectiveItem{coachView.Days[0].Items[0].EffectiveItem}}
	if hidden.VisibleItemCount() != 0 {
		t.Error("hidden item counted as visible")
	}
}
