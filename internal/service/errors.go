package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The API layer maps each kind to one
// HTTP status.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is the typed error every service returns for expected failures.
// ActiveAssignments is set on the conflict raised when deleting a program
// that still has active assignments.
type Error struct {
	Kind              Kind
	Message           string
	ActiveAssignments int64
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on kind and message so a sentinel still matches a copy that
// carries remediation data.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err, or KindInternal for anything that is not
// a service *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// --- Error Definitions ---
var (
	// auth and identity
	ErrUnauthenticated      = newError(KindUnauthorized, "authentication required")
	ErrAuthenticationFailed = newError(KindUnauthorized, "authentication failed: invalid email or password")
	ErrUserAlreadyExists    = newError(KindConflict, "user with this email already exists")
	ErrNotCoach             = newError(KindForbidden, "user is not a coach")
	ErrNotClient            = newError(KindForbidden, "user is not a client")

	// coach/client linking
	ErrClientNotFound        = newError(KindNotFound, "client user not found")
	ErrClientNotRole         = newError(KindValidation, "user found but is not a client")
	ErrClientAlreadyAssigned = newError(KindConflict, "client is already managed by another coach")
	ErrClientNotManaged      = newError(KindForbidden, "client is not managed by this coach")

	// templates
	ErrProgramNotFound       = newError(KindNotFound, "program not found")
	ErrProgramAccessDenied   = newError(KindForbidden, "access denied to this program")
	ErrDayNotFound           = newError(KindNotFound, "program day not found")
	ErrItemNotFound          = newError(KindNotFound, "program item not found")
	ErrDayNotInProgram       = newError(KindValidation, "day does not belong to this program")
	ErrProgramHasActive      = newError(KindConflict, "program has active assignments")
	ErrShrinkWithItems       = newError(KindValidation, "cannot shorten a program past days that hold items")
	ErrShrinkWithAssignments = newError(KindValidation, "cannot shorten a program that has been assigned")

	// assignments
	ErrAssignmentNotFound     = newError(KindNotFound, "assignment not found")
	ErrAssignmentAccessDenied = newError(KindForbidden, "access denied to this assignment")
	ErrAssignmentInactive     = newError(KindValidation, "assignment is not active")
	ErrNoActiveAssignment     = newError(KindNotFound, "no active program assignment")
	ErrAssignmentRace         = newError(KindConflict, "client was assigned another program concurrently")

	// overrides
	ErrOverrideNotFound     = newError(KindNotFound, "override not found")
	ErrCrossProgramItem     = newError(KindForbidden, "item belongs to a different program")
	ErrItemNotOnDay         = newError(KindValidation, "source item is not on the given day")
	ErrHideTakesNoContent   = newError(KindValidation, "hide overrides take no content fields")
	ErrReplaceKeepsPosition = newError(KindValidation, "replace overrides keep the source item's sortOrder")
	ErrSourceItemOnAdd      = newError(KindValidation, "add overrides must not reference a source item")
	ErrSourceItemRequired   = newError(KindValidation, "sourceItemId is required for replace and hide")
	ErrAddRequiresTitleType = newError(KindValidation, "add overrides require type and title")

	// completions
	ErrInvalidTarget         = newError(KindValidation, "completion target must set exactly one of programItemId or overrideId")
	ErrTargetNotInAssignment = newError(KindValidation, "item does not belong to this assignment's program")

	// media
	ErrUnsupportedMedia = newError(KindValidation, "unsupported media content type")
	ErrNoMedia          = newError(KindNotFound, "item has no uploaded media")
	ErrBadObjectKey     = newError(KindValidation, "objectKey was not issued for this item")
)

// activeAssignmentsConflict is ErrProgramHasActive carrying the blocker count.
func activeAssignmentsConflict(n int64) *Error {
	return &Error{
		Kind:              KindConflict,
		Message:           ErrProgramHasActive.Message,
		ActiveAssignments: n,
	}
}
