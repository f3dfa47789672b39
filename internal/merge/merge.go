// Package merge projects a program template plus one assignment's overrides
// into the effective day-by-day view that assignment sees.
//
// Merge is pure: no I/O, no mutation of its inputs, identical output for
// identical input.
package merge

import (
	"sort"

	"alcyxob/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateDay is one template day with its items.
type TemplateDay struct {
	Day   domain.ProgramDay    `json:"day"`
	Items []domain.ProgramItem `json:"items"`
}

// Options controls the projection.
type Options struct {
	// IncludeHidden keeps hidden template items in the output, flagged
	// IsHidden. The coach customization view sets it; the client view does not.
	IncludeHidden bool
}

// EffectiveItem is one entry of the merged view.
//
// ID is the template item id for template and replaced entries and the
// override id for client-only entries. Target is the key completions for
// this entry are recorded against.
type EffectiveItem struct {
	ID           primitive.ObjectID      `json:"id"`
	DayID        primitive.ObjectID      `json:"dayId"`
	Type         domain.ItemType         `json:"type"`
	Title        string                  `json:"title"`
	Content      domain.Content          `json:"content,omitempty"`
	SortOrder    int                     `json:"sortOrder"`
	IsHidden     bool                    `json:"isHidden"`
	IsCustomized bool                    `json:"isCustomized"`
	IsClientOnly bool                    `json:"isClientOnly"`
	OverrideID   *primitive.ObjectID     `json:"overrideId,omitempty"`
	Target       domain.CompletionTarget `json:"completionTarget"`
}

// EffectiveDay is one day of the merged view.
type EffectiveDay struct {
	Day   domain.ProgramDay `json:"day"`
	Items []EffectiveItem   `json:"items"`
}

type dayOverrides struct {
	hides    map[primitive.ObjectID]domain.ProgramItemOverride
	replaces map[primitive.ObjectID]domain.ProgramItemOverride
	adds     []domain.ProgramItemOverride
}

// Merge combines template days with overrides. Days come back in the order
// given; items within a day are sorted by SortOrder with template items ahead
// of added items on ties.
//
// An override whose source item is not on its day is ignored. When several
// overrides target the same item, hide wins over replace and the most
// recently created replace wins over older ones.
func Merge(days []TemplateDay, overrides []domain.ProgramItemOverride, opts Options) []EffectiveDay {
	byDay := indexOverrides(overrides)

	out := make([]EffectiveDay, 0, len(days))
	for _, td := range days {
		out = append(out, mergeDay(td, byDay[td.Day.ID], opts))
	}
	return out
}

func indexOverrides(overrides []domain.ProgramItemOverride) map[primitive.ObjectID]*dayOverrides {
	ordered := make([]domain.ProgramItemOverride, len(overrides))
	copy(ordered, overrides)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	byDay := make(map[primitive.ObjectID]*dayOverrides)
	for _, o := range ordered {
		d, ok := byDay[o.ProgramDayID]
		if !ok {
			d = &dayOverrides{
				hides:    map[primitive.ObjectID]domain.ProgramItemOverride{},
				replaces: map[primitive.ObjectID]domain.ProgramItemOverride{},
			}
			byDay[o.ProgramDayID] = d
		}
		switch o.Action {
		case domain.OverrideHide:
			if o.SourceItemID != nil {
				d.hides[*o.SourceItemID] = o
			}
		case domain.OverrideReplace:
			if o.SourceItemID != nil {
				d.replaces[*o.SourceItemID] = o
			}
		case domain.OverrideAdd:
			d.adds = append(d.adds, o)
		}
	}
	return byDay
}

func mergeDay(td TemplateDay, ov *dayOverrides, opts Options) EffectiveDay {
	items := make([]domain.ProgramItem, len(td.Items))
	copy(items, td.Items)
	domain.SortItems(items)

	result := EffectiveDay{Day: td.Day, Items: make([]EffectiveItem, 0, len(items))}
	maxSort := 0
	for i, item := range items {
		if i == 0 || item.SortOrder > maxSort {
			maxSort = item.SortOrder
		}

		if ov == nil {
			result.Items = append(result.Items, templateEntry(item))
			continue
		}

		if hide, ok := ov.hides[item.ID]; ok {
			if opts.IncludeHidden {
				e := templateEntry(item)
				e.IsHidden = true
				e.OverrideID = idPtr(hide.ID)
				result.Items = append(result.Items, e)
			}
			continue
		}

		if repl, ok := ov.replaces[item.ID]; ok {
			if opts.IncludeHidden {
				e := templateEntry(item)
				e.IsHidden = true
				e.OverrideID = idPtr(repl.ID)
				result.Items = append(result.Items, e)
			}
			result.Items = append(result.Items, replacementEntry(item, repl))
			continue
		}

		result.Items = append(result.Items, templateEntry(item))
	}

	if ov != nil {
		for _, add := range ov.adds {
			sortOrder := maxSort + 1
			if add.SortOrder != nil {
				sortOrder = *add.SortOrder
			}
			result.Items = append(result.Items, EffectiveItem{
				ID:           add.ID,
				DayID:        td.Day.ID,
				Type:         add.Type,
				Title:        add.Title,
				Content:      add.Content,
				SortOrder:    sortOrder,
				IsClientOnly: true,
				OverrideID:   idPtr(add.ID),
				Target:       domain.OverrideItemTarget(add.ID),
			})
		}
	}

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].SortOrder < result.Items[j].SortOrder
	})
	return result
}

func templateEntry(item domain.ProgramItem) EffectiveItem {
	return EffectiveItem{
		ID:        item.ID,
		DayID:     item.DayID,
		Type:      item.Type,
		Title:     item.Title,
		Content:   item.Content,
		SortOrder: item.SortOrder,
		Target:    domain.TemplateItemTarget(item.ID),
	}
}

// replacementEntry keeps the original item's id and sort position so
// completions recorded against the template item still apply.
func replacementEntry(item domain.ProgramItem, repl domain.ProgramItemOverride) EffectiveItem {
	e := templateEntry(item)
	if repl.Type != "" {
		e.Type = repl.Type
	}
	if repl.Title != "" {
		e.Title = repl.Title
	}
	if repl.Content != nil {
		e.Content = repl.Content
	}
	e.IsCustomized = true
	e.OverrideID = idPtr(repl.ID)
	return e
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}

// VisibleItemCount counts the entries a client would act on.
func (d EffectiveDay) VisibleItemCount() int {
	n := 0
	for _, it := range d.Items {
		if !it.IsHidden {
			n++
		}
	}
	return n
}
