package citamedica

import (
	"errors"
	"fmt"
)

// Kind buckets client failures the dialogue cares about.
type Kind string

const (
	// KindUnavailable covers timeouts, connection failures and 5xx replies.
	KindUnavailable Kind = "unavailable"
	// KindValidation covers 4xx replies: the backend understood and refused.
	KindValidation Kind = "validation"
)

// Error is a typed failure from the CitaMedica backend.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("citamedica: %s: %s", e.Op, e.Detail)
	}
	if e.Status != 0 {
		return fmt.Sprintf("citamedica: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("citamedica: %s failed", e.Op)
}

// IsUnavailable reports whether err is a connectivity/timeout failure.
func IsUnavailable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindUnavailable
}

// IsValidation reports whether the backend rejected the request itself.
func IsValidation(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindValidation
}
