package merge

import (
	"reflect"
	"testing"
	"time"

	"alcyxob/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	day   domain.ProgramDay
	squat domain.ProgramItem
	bench domain.ProgramItem
	row   domain.ProgramItem
}

func newFixture() fixture {
	programID := primitive.NewObjectID()
	day := domain.ProgramDay{ID: primitive.NewObjectID(), ProgramID: programID, DayNumber: 1}
	item := func(title string, sort int) domain.ProgramItem {
		return domain.ProgramItem{
			ID:        primitive.NewObjectID(),
			ProgramID: programID,
			DayID:     day.ID,
			Type:      domain.ItemTypeExercise,
			Title:     title,
			SortOrder: sort,
		}
	}
	return fixture{
		day:   day,
		squat: item("Squat 5x5", 1),
		bench: item("Bench 5x5", 2),
		row:   item("Row 5x5", 3),
	}
}

func (f fixture) days() []TemplateDay {
	// Deliberately out of order: Merge sorts.
	return []TemplateDay{{Day: f.day, Items: []domain.ProgramItem{f.row, f.squat, f.bench}}}
}

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func hide(dayID, itemID primitive.ObjectID, at int) domain.ProgramItemOverride {
	return domain.ProgramItemOverride{
		ID:           primitive.NewObjectID(),
		ProgramDayID: dayID,
		Action:       domain.OverrideHide,
		SourceItemID: &itemID,
		CreatedAt:    base.Add(time.Duration(at) * time.Minute),
	}
}

func replace(dayID, itemID primitive.ObjectID, title string, at int) domain.ProgramItemOverride {
	o := hide(dayID, itemID, at)
	o.Action = domain.OverrideReplace
	o.Title = title
	return o
}

func add(dayID primitive.ObjectID, title string, sortOrder *int, at int) domain.ProgramItemOverride {
	return domain.ProgramItemOverride{
		ID:           primitive.NewObjectID(),
		ProgramDayID: dayID,
		Action:       domain.OverrideAdd,
		Type:         domain.ItemTypeText,
		Title:        title,
		SortOrder:    sortOrder,
		CreatedAt:    base.Add(time.Duration(at) * time.Minute),
	}
}

func intPtr(i int) *int { return &i }

func titles(d EffectiveDay) []string {
	out := make([]string, len(d.Items))
	for i, it := range d.Items {
		out[i] = it.Title
	}
	return out
}

func TestMerge_NoOverridesPassesTemplateThroughSorted(t *testing.T) {
	f := newFixture()
	got := Merge(f.days(), nil, Options{})

	if len(got) != 1 {
		t.Fatalf("expected 1 day, got %d", len(got))
	}
	want := []string{"Squat 5x5", "Bench 5x5", "Row 5x5"}
	if !reflect.DeepEqual(titles(got[0]), want) {
		t.Errorf("got %v, want %v", titles(got[0]), want)
	}
	for _, it := range got[0].Items {
		if it.IsHidden || it.IsCustomized || it.IsClientOnly || it.OverrideID != nil {
			t.Errorf("template item %q should carry no flags", it.Title)
		}
		if it.Target.ProgramItemID == nil || *it.Target.ProgramItemID != it.ID {
			t.Errorf("template item %q should complete against its own id", it.Title)
		}
	}
}

func TestMerge_IsDeterministic(t *testing.T) {
	f := newFixture()
	overrides := []domain.ProgramItemOverride{
		hide(f.day.ID, f.bench.ID, 1),
		replace(f.day.ID, f.row.ID, "Cable row", 2),
		add(f.day.ID, "Stretch", intPtr(2), 3),
		add(f.day.ID, "Walk", nil, 4),
	}
	for _, include := range []bool{false, true} {
		a := Merge(f.days(), overrides, Options{IncludeHidden: include})
		b := Merge(f.days(), overrides, Options{IncludeHidden: include})
		if !reflect.DeepEqual(a, b) {
			t.Errorf("IncludeHidden=%v: repeated merge differs", include)
		}
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	f := newFixture()
	days := f.days()
	overrides := []domain.ProgramItemOverride{
		add(f.day.ID, "Later", nil, 5),
		add(f.day.ID, "Earlier", nil, 1),
	}
	Merge(days, overrides, Options{})

	if days[0].Items[0].ID != f.row.ID {
		t.Error("template item slice was reordered in place")
	}
	if overrides[0].Title != "Later" {
		t.Error("override slice was reordered in place")
	}
}

func TestMerge_HideInvariant(t *testing.T) {
	f := newFixture()
	h := hide(f.day.ID, f.squat.ID, 1)
	overrides := []domain.ProgramItemOverride{h}

	client := Merge(f.days(), overrides, Options{IncludeHidden: false})
	for _, it := range client[0].Items {
		if it.ID == f.squat.ID {
			t.Fatalf("hidden item must not appear in the client view")
		}
	}

	coach := Merge(f.days(), overrides, Options{IncludeHidden: true})
	found := false
	for _, it := range coach[0].Items {
		if it.ID == f.squat.ID {
			found = true
			if !it.IsHidden {
				t.Error("hidden item should be flagged IsHidden")
			}
			if it.OverrideID == nil || *it.OverrideID != h.ID {
				t.Error("hidden item should reference the hide override")
			}
		}
	}
	if !found {
		t.Fatal("hidden item must appear in the coach view")
	}
	if coach[0].VisibleItemCount() != 2 {
		t.Errorf("expected 2 visible items, got %d", coach[0].VisibleItemCount())
	}
}

func TestMerge_AddInvariant(t *testing.T) {
	f := newFixture()
	a1 := add(f.day.ID, "Mobility", nil, 1)
	a2 := add(f.day.ID, "Warmup", intPtr(0), 2)
	got := Merge(f.days(), []domain.ProgramItemOverride{a1, a2}, Options{})

	templateKeys := map[string]bool{}
	for _, it := range []domain.ProgramItem{f.squat, f.bench, f.row} {
		templateKeys[domain.TemplateItemTarget(it.ID).Key()] = true
	}

	want := []string{"Warmup", "Squat 5x5", "Bench 5x5", "Row 5x5", "Mobility"}
	if !reflect.DeepEqual(titles(got[0]), want) {
		t.Fatalf("got %v, want %v", titles(got[0]), want)
	}

	for _, it := range got[0].Items {
		if it.Title != "Mobility" && it.Title != "Warmup" {
			continue
		}
		if !it.IsClientOnly {
			t.Errorf("%q should be client-only", it.Title)
		}
		if it.OverrideID == nil || *it.OverrideID != it.ID {
			t.Errorf("%q should carry its override id", it.Title)
		}
		if !it.Target.IsOverride() {
			t.Errorf("%q should complete against its override", it.Title)
		}
		if templateKeys[it.Target.Key()] {
			t.Errorf("%q completion key collides with a template item", it.Title)
		}
	}
}

func TestMerge_AddTiesKeepCreationOrder(t *testing.T) {
	f := newFixture()
	overrides := []domain.ProgramItemOverride{
		add(f.day.ID, "Second", intPtr(2), 2),
		add(f.day.ID, "First", intPtr(2), 1),
	}
	got := Merge(f.days(), overrides, Options{})
	want := []string{"Squat 5x5", "Bench 5x5", "First", "Second", "Row 5x5"}
	if !reflect.DeepEqual(titles(got[0]), want) {
		t.Errorf("got %v, want %v", titles(got[0]), want)
	}
}

func TestMerge_ReplaceHidesOriginalAndKeepsIdentity(t *testing.T) {
	f := newFixture()
	r := replace(f.day.ID, f.bench.ID, "Incline press", 1)
	r.SortOrder = intPtr(99)

	client := Merge(f.days(), []domain.ProgramItemOverride{r}, Options{})
	want := []string{"Squat 5x5", "Incline press", "Row 5x5"}
	if !reflect.DeepEqual(titles(client[0]), want) {
		t.Fatalf("got %v, want %v", titles(client[0]), want)
	}
	repl := client[0].Items[1]
	if repl.ID != f.bench.ID {
		t.Error("replacement should keep the original item id")
	}
	if !repl.IsCustomized || repl.IsClientOnly || repl.IsHidden {
		t.Errorf("unexpected flags on replacement: %+v", repl)
	}
	if repl.SortOrder != f.bench.SortOrder {
		t.Errorf("replacement should inherit sort order %d, got %d", f.bench.SortOrder, repl.SortOrder)
	}
	if repl.Type != f.bench.Type {
		t.Errorf("replacement without a type should keep %q, got %q", f.bench.Type, repl.Type)
	}
	if repl.Target.Key() != domain.TemplateItemTarget(f.bench.ID).Key() {
		t.Error("replacement should complete against the template item")
	}

	coach := Merge(f.days(), []domain.ProgramItemOverride{r}, Options{IncludeHidden: true})
	if len(coach[0].Items) != 4 {
		t.Fatalf("coach view should show original and replacement, got %v", titles(coach[0]))
	}
	hiddenOriginal := coach[0].Items[1]
	if hiddenOriginal.Title != "Bench 5x5" || !hiddenOriginal.IsHidden {
		t.Errorf("expected hidden original before replacement, got %+v", hiddenOriginal)
	}
}

func TestMerge_ConflictingOverrides(t *testing.T) {
	f := newFixture()
	overrides := []domain.ProgramItemOverride{
		replace(f.day.ID, f.squat.ID, "Front squat", 1),
		replace(f.day.ID, f.squat.ID, "Goblet squat", 3),
		replace(f.day.ID, f.bench.ID, "Dips", 1),
		hide(f.day.ID, f.bench.ID, 2),
	}
	got := Merge(f.days(), overrides, Options{})
	want := []string{"Goblet squat", "Row 5x5"}
	if !reflect.DeepEqual(titles(got[0]), want) {
		t.Errorf("got %v, want %v", titles(got[0]), want)
	}
}

func TestMerge_DanglingAndForeignOverridesAreInert(t *testing.T) {
	f := newFixture()
	otherDay := primitive.NewObjectID()
	overrides := []domain.ProgramItemOverride{
		hide(f.day.ID, primitive.NewObjectID(), 1),        // source deleted
		hide(otherDay, f.squat.ID, 2),                     // wrong day
		add(otherDay, "Belongs elsewhere", nil, 3),        // day not in template
		{ID: primitive.NewObjectID(), ProgramDayID: f.day.ID, Action: domain.OverrideReplace}, // no source
	}
	got := Merge(f.days(), overrides, Options{IncludeHidden: true})
	want := []string{"Squat 5x5", "Bench 5x5", "Row 5x5"}
	if !reflect.DeepEqual(titles(got[0]), want) {
		t.Errorf("got %v, want %v", titles(got[0]), want)
	}
}

// Program with one day holding "Squat 5x5"; the coach hides it and adds
// "Extra mobility work" for one client.
func TestMerge_HideAndAddScenario(t *testing.T) {
	programID := primitive.NewObjectID()
	day := domain.ProgramDay{ID: primitive.NewObjectID(), ProgramID: programID, DayNumber: 1}
	squat := domain.ProgramItem{ID: primitive.NewObjectID(), ProgramID: programID, DayID: day.ID, Type: domain.ItemTypeExercise, Title: "Squat 5x5", SortOrder: 1}

	o1 := hide(day.ID, squat.ID, 1)
	o2 := add(day.ID, "Extra mobility work", nil, 2)

	got := Merge([]TemplateDay{{Day: day, Items: []domain.ProgramItem{squat}}}, []domain.ProgramItemOverride{o1, o2}, Options{})
	if len(got[0].Items) != 1 {
		t.Fatalf("expected exactly one item, got %v", titles(got[0]))
	}
	it := got[0].Items[0]
	if it.Title != "Extra mobility work" || !it.IsClientOnly {
		t.Errorf("unexpected item %+v", it)
	}
	if it.Target.Key() != domain.OverrideItemTarget(o2.ID).Key() {
		t.Errorf("expected completion key of O2, got %q", it.Target.Key())
	}
}

func TestMerge_PreservesDayOrder(t *testing.T) {
	d1 := domain.ProgramDay{ID: primitive.NewObjectID(), DayNumber: 1}
	d2 := domain.ProgramDay{ID: primitive.NewObjectID(), DayNumber: 2}
	got := Merge([]TemplateDay{{Day: d1}, {Day: d2}}, nil, Options{})
	if len(got) != 2 || got[0].Day.DayNumber != 1 || got[1].Day.DayNumber != 2 {
		t.Errorf("unexpected day order: %+v", got)
	}
	if got[0].Items == nil {
		t.Error("empty day should have a non-nil item slice")
	}
}
