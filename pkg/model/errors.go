package model

import (
	"errors"
	"fmt"
)

const (
	FlagNotFoundErrorCode     = "FLAG_NOT_FOUND"
	FlagKindNotFoundErrorCode = "FLAG_KIND_NOT_FOUND"
	TypeMismatchErrorCode     = "TYPE_MISMATCH"
	ParseErrorCode            = "PARSE_ERROR"
	GeneralErrorCode          = "GENERAL"
)

var ErrEmptyFlagKey = errors.New("flag key must not be empty")

// ConfigurationError is returned when the flags subsystem cannot be set up.
// It is always fatal at startup.
type ConfigurationError struct {
	Key    string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "feature flag configuration error"
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s=%q", msg, e.Key, e.Value)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Phase tells whether a type check failed on the caller default or on the provider result.
type Phase int

const (
	PhaseDefault Phase = iota
	PhaseResult
)

// EvaluationTypeError is returned when a default or a provider result does not belong to the
// type set of the requested kind.
type EvaluationTypeError struct {
	Operation string
	FlagKey   string
	Kind      FlagKind
	Phase     Phase
	Value     interface{}
}

func (e *EvaluationTypeError) Error() string {
	if e.Phase == PhaseDefault {
		return fmt.Sprintf("%s(%q): default %#v has type %s, expected a %s value",
			e.Operation, e.FlagKey, e.Value, TypeName(e.Value), e.Kind)
	}
	msg := fmt.Sprintf("%s(%q): provider returned type %s, expected a %s value",
		e.Operation, e.FlagKey, TypeName(e.Value), e.Kind)
	if actual, ok := KindOf(e.Value); ok {
		return fmt.Sprintf("%s; the flag looks like a %s flag, evaluate it with %s", msg, actual, actual.Operation())
	}
	return msg + "; evaluate the flag with the operation matching its configured kind"
}

// ErrorCode maps an error to the wire error code used by the HTTP service.
func ErrorCode(err error) string {
	var typeErr *EvaluationTypeError
	switch {
	case errors.As(err, &typeErr):
		return TypeMismatchErrorCode
	case errors.Is(err, ErrEmptyFlagKey):
		return FlagNotFoundErrorCode
	}
	return GeneralErrorCode
}
