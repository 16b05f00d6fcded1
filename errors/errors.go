package errors

import (
	"errors"
	"fmt"
)

// Kinds. Every error surfaced by a component wraps exactly one of them.
var (
	ErrNetwork    = fmt.Errorf("network error")
	ErrNotFound   = fmt.Errorf("not found")
	ErrValidation = fmt.Errorf("validation error")
	ErrConflict   = fmt.Errorf("conflict")
	ErrPermission = fmt.Errorf("permission denied")
)

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrSubscriptionClosed  = fmt.Errorf("%w: subscription closed by backend", ErrNetwork)
	ErrAlreadySending      = fmt.Errorf("%w: a send is already in flight", ErrConflict)
	ErrMessageExists       = fmt.Errorf("%w: message already committed", ErrConflict)
	ErrUserAlreadyExists   = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrMessageNotFound     = fmt.Errorf("%w: message", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrGroupNotFound       = fmt.Errorf("%w: group", ErrNotFound)
	ErrEmptyMessage        = fmt.Errorf("%w: message needs text or attachments", ErrValidation)
	ErrUncommittedMessage  = fmt.Errorf("%w: message has no id", ErrValidation)
	ErrInvalidIdentifier   = fmt.Errorf("%w: malformed identifier", ErrValidation)
	ErrInvalidPassword     = fmt.Errorf("%w: password does not meet complexity rules", ErrValidation)
	ErrPasswordMismatch    = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrUnsupportedMedia    = fmt.Errorf("%w: unsupported attachment type", ErrValidation)
	ErrSessionNotOpen      = fmt.Errorf("%w: conversation is not open", ErrValidation)
	ErrNotMember           = fmt.Errorf("%w: not a member of the group", ErrPermission)
	ErrCreatorMembership   = fmt.Errorf("%w: the group creator cannot leave the group", ErrPermission)
	ErrForeignIdentity     = fmt.Errorf("%w: acting on behalf of another user", ErrPermission)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid credentials", ErrPermission)
	ErrNotAuthenticated    = fmt.Errorf("%w: not signed in", ErrPermission)
	ErrTokenGeneration     = fmt.Errorf("token generation failed")
	ErrBackendUnavailable  = fmt.Errorf("%w: backend unavailable", ErrNetwork)
	ErrAttachmentUpload    = fmt.Errorf("%w: attachment upload failed", ErrNetwork)
	ErrNoCredentialsStored = fmt.Errorf("%w: no stored credentials", ErrNotFound)
)

// Kind returns the taxonomy sentinel err wraps, or nil when it wraps none.
func Kind(err error) error {
	for _, kind := range []error{ErrNetwork, ErrNotFound, ErrValidation, ErrConflict, ErrPermission} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// Network wraps a collaborator failure that carries no kind as a NetworkError.
// Errors that already have a kind are returned unchanged.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }
