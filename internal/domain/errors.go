package domain

import (
	"errors"
	"fmt"
)

// Error codes returned to API clients.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeForbidden  = "forbidden"
	CodeInternal   = "internal_error"
)

// NotFoundError reports a missing resource, optionally with the key that was looked up.
type NotFoundError struct {
	Resource string
	Key      string
	Err      error
}

func (e NotFoundError) Error() string {
	resource := e.Resource
	if resource == "" {
		resource = "data"
	}
	if e.Key != "" {
		return fmt.Sprintf("%s %s tidak ditemukan", resource, e.Key)
	}
	return resource + " tidak ditemukan"
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError rejects a submission before anything is written.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Msg != "" && e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return e.Field + " tidak valid"
	}
	return "data tidak valid"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ConflictError reports a uniqueness clash such as a booking code already in use.
type ConflictError struct {
	Resource string
	Key      string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Resource != "" && e.Key != "" {
		return fmt.Sprintf("%s %s sudah ada", e.Resource, e.Key)
	}
	return "data bentrok"
}

func (e ConflictError) Unwrap() error { return e.Err }

// ForbiddenError rejects an action the actor's role does not allow.
type ForbiddenError struct {
	Action string
	Role   string
	Msg    string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Action != "" {
		return "tidak diizinkan: " + e.Action
	}
	return "tidak diizinkan"
}

// InternalError wraps infrastructure failures. Msg is safe to log; Err is not
// shown to clients.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg == "" {
		return "internal error"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// Describe classifies err into an error code plus the field, resource or action
// it concerns. Errors outside this package are internal.
func Describe(err error) (code string, details map[string]string) {
	var (
		ve ValidationError
		ne NotFoundError
		ce ConflictError
		fe ForbiddenError
	)
	details = map[string]string{}
	put := func(k, v string) {
		if v != "" {
			details[k] = v
		}
	}
	switch {
	case errors.As(err, &ve):
		put("field", ve.Field)
		return CodeValidation, details
	case errors.As(err, &ne):
		put("resource", ne.Resource)
		put("key", ne.Key)
		return CodeNotFound, details
	case errors.As(err, &ce):
		put("resource", ce.Resource)
		put("key", ce.Key)
		return CodeConflict, details
	case errors.As(err, &fe):
		put("action", fe.Action)
		put("role", fe.Role)
		return CodeForbidden, details
	}
	return CodeInternal, details
}
