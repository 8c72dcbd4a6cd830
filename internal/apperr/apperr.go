package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidRequest   Kind = "invalid_request"
	KindNotFound         Kind = "not_found"
	KindInsufficientPool Kind = "insufficient_pool"
	KindSkillLocked      Kind = "skill_locked"
	KindStepLocked       Kind = "step_locked"
	KindInternal         Kind = "internal"
)

// Error is an expected, client-facing failure. Details carries the data a
// client needs to render it (required skill, missing step, pool counts).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.NotFound("")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientPool:
		return http.StatusConflict
	case KindSkillLocked, KindStepLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func InsufficientPool(questionType string, required, available int) *Error {
	return &Error{
		Kind:    KindInsufficientPool,
		Message: fmt.Sprintf("not enough %q questions: required %d, available %d", questionType, required, available),
		Details: map[string]interface{}{
			"type":      questionType,
			"required":  required,
			"available": available,
		},
	}
}

func SkillLocked(skillID uint, skillName string, order int) *Error {
	return &Error{
		Kind:    KindSkillLocked,
		Message: fmt.Sprintf("complete skill %q first", skillName),
		Details: map[string]interface{}{
			"requiredSkillId":    skillID,
			"requiredSkillName":  skillName,
			"requiredSkillOrder": order,
		},
	}
}

func StepLocked(step int) *Error {
	return &Error{
		Kind:    KindStepLocked,
		Message: fmt.Sprintf("complete step %d first", step),
		Details: map[string]interface{}{"requiredStep": step},
	}
}

// Internal wraps a storage or infrastructure failure. The message shown to
// clients is generic; the cause stays in Err for logs.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// From returns err as an *Error, wrapping anything unexpected as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
