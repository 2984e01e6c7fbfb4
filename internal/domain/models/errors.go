package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies estimate failures.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindOracle      ErrorKind = "oracle"
	KindComputation ErrorKind = "computation"
	KindUnavailable ErrorKind = "unavailable"
)

// EstimateError is returned by every stage of the estimate pipeline.
type EstimateError struct {
	Kind     ErrorKind
	Material Material
	Reason   string
	Err      error
}

func (e *EstimateError) Error() string {
	msg := e.Reason
	if e.Material != "" && msg == "" {
		msg = string(e.Material)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EstimateError) Unwrap() error { return e.Err }

// NewValidationError reports a rejected request.
func NewValidationError(m Material, format string, args ...any) *EstimateError {
	return &EstimateError{Kind: KindValidation, Material: m, Reason: fmt.Sprintf(format, args...)}
}

// NewOracleError reports a failed or misconfigured forecast source.
func NewOracleError(m Material, reason string, err error) *EstimateError {
	return &EstimateError{Kind: KindOracle, Material: m, Reason: reason, Err: err}
}

// NewComputationError reports an arithmetic or shape failure.
func NewComputationError(m Material, format string, args ...any) *EstimateError {
	return &EstimateError{Kind: KindComputation, Material: m, Reason: fmt.Sprintf(format, args...)}
}

// NewUnavailableError reports a timeout or cancellation.
func NewUnavailableError(reason string, err error) *EstimateError {
	return &EstimateError{Kind: KindUnavailable, Reason: reason, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an EstimateError.
func KindOf(err error) ErrorKind {
	var ee *EstimateError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}
