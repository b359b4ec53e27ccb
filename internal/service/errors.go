package service

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrEntityNotFound  = errors.New("entity not found")
	ErrIOFailure       = errors.New("io failure")
	ErrInvalidInput    = errors.New("invalid input")
	ErrMergeInProgress = errors.New("merge in progress")
)

// ServiceError carries a kind, a client facing message and the cause.
type ServiceError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the error kind.
func (e *ServiceError) Is(target error) bool {
	return e != nil && e.Kind == target
}

func notFound(message string) *ServiceError {
	return &ServiceError{Kind: ErrEntityNotFound, Message: message}
}

func ioFailure(message string, err error) *ServiceError {
	return &ServiceError{Kind: ErrIOFailure, Message: message, Err: err}
}

func invalidInput(message string) *ServiceError {
	return &ServiceError{Kind: ErrInvalidInput, Message: message}
}

func mergeInProgress(uploadID string) *ServiceError {
	return &ServiceError{Kind: ErrMergeInProgress, Message: "merge already running for " + uploadID}
}
