package service

import (
	"errors"
	"fmt"
	"strings"
)

// The lifecycle engine surfaces these four kinds to its caller; conferencing,
// notification and scanner failures are logged and swallowed at the call site.

type ValidationError struct {
	Msg    string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Fields, ", "))
}

func newValidationError(msg string, fields ...string) error {
	return &ValidationError{Msg: msg, Fields: fields}
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func newNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string {
	return e.Msg
}

func newForbiddenError(msg string) error {
	return &ForbiddenError{Msg: msg}
}

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func newConflictError(msg string) error {
	return &ConflictError{Msg: msg}
}

// ErrNotConnected is returned by conferencing operations when the organizer
// has no stored credential; callers treat it as a best-effort failure.
var ErrNotConnected = errors.New("organizer is not connected to conferencing")
