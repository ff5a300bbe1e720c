// Package apperr defines the typed, user-describable failures surfaced by the
// workspace sharing services.
//
// Callers match failures with errors.Is against the sentinel values, or use
// KindOf to map any error to its Kind (for example to pick an HTTP status).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotAuthenticated        Kind = "not_authenticated"
	KindInsufficientPermissions Kind = "insufficient_permissions"
	KindInvalidWorkspace        Kind = "invalid_workspace"
	KindInvalidInviteCode       Kind = "invalid_invite_code"
	KindInviteLinkExpired       Kind = "invite_link_expired"
	KindCannotRemoveOwner       Kind = "cannot_remove_owner"
	KindInvalidInput            Kind = "invalid_input"
	KindInternal                Kind = "internal"
)

// Error is a failure of a known Kind with a message safe to show to users.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same Kind, so wrapped or re-described
// failures still satisfy errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotAuthenticated        = &Error{Kind: KindNotAuthenticated, Message: "you must be signed in"}
	ErrInsufficientPermissions = &Error{Kind: KindInsufficientPermissions, Message: "you do not have permission to do that"}
	ErrInvalidWorkspace        = &Error{Kind: KindInvalidWorkspace, Message: "workspace not found or not valid for this action"}
	ErrInvalidInviteCode       = &Error{Kind: KindInvalidInviteCode, Message: "this invite link is not valid"}
	ErrInviteLinkExpired       = &Error{Kind: KindInviteLinkExpired, Message: "this invite link has expired"}
	ErrCannotRemoveOwner       = &Error{Kind: KindCannotRemoveOwner, Message: "the workspace owner cannot be removed"}
	ErrInvalidInput            = &Error{Kind: KindInvalidInput, Message: "invalid input"}
)

// New returns an Error of the given kind with a specific message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns a user-facing message for err. Internal errors get a
// generic message so store details are not leaked.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "an unexpected error occurred"
}
