package domain

import (
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCompletionTargetValidate(t *testing.T) {
	id := primitive.NewObjectID()
	zero := primitive.NilObjectID

	tests := []struct {
		name    string
		target  CompletionTarget
		wantErr bool
	}{
		{"template item", TemplateItemTarget(id), false},
		{"override item", OverrideItemTarget(id), false},
		{"neither", CompletionTarget{}, true},
		{"both", CompletionTarget{ProgramItemID: &id, OverrideID: &id}, true},
		{"zero item id", CompletionTarget{ProgramItemID: &zero}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("expected ErrInvalidTarget, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCompletionTargetKeysDoNotCollide(t *testing.T) {
	id := primitive.NewObjectID()
	itemKey := TemplateItemTarget(id).Key()
	overrideKey := OverrideItemTarget(id).Key()

	if itemKey == overrideKey {
		t.Fatalf("expected distinct keys for the same hex id, both were %q", itemKey)
	}
	if !strings.HasPrefix(itemKey, "item:") || !strings.HasSuffix(itemKey, id.Hex()) {
		t.Errorf("unexpected item key %q", itemKey)
	}
	if !strings.HasPrefix(overrideKey, "override:") {
		t.Errorf("unexpected override key %q", overrideKey)
	}

	c := ItemCompletion{OverrideID: &id, TargetKey: overrideKey}
	if c.Target().Key() != overrideKey {
		t.Errorf("round trip through ItemCompletion changed key")
	}
}
