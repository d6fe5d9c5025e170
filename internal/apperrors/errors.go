// Package apperrors defines the typed error taxonomy shared by the
// workforce services. Handlers map each kind to a distinct HTTP status so
// callers can tell "fix your input" from "you're not authorized" from
// "system misconfigured".
package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ValidationError marks malformed input or a state-incompatible request
// (bad dates, overlapping leave, stage not pending). Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation creates a ValidationError
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// ForbiddenError marks a caller lacking the specific identity or ownership
// required (wrong approver, not the request owner, no linked staff profile).
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// Forbidden creates a ForbiddenError
func Forbidden(format string, args ...interface{}) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

// IsForbidden reports whether err is a ForbiddenError
func IsForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}

// AuthorizationError is raised by privilege assertion and carries the
// missing-privilege tuple for UI and audit purposes.
type AuthorizationError struct {
	Message    string     `json:"message"`
	Area       string     `json:"area"`
	Action     string     `json:"action"`
	TargetType string     `json:"targetType"`
	TargetID   *uuid.UUID `json:"targetId,omitempty"`
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s (area=%s action=%s target=%s)", e.Message, e.Area, e.Action, e.TargetType)
}

// MissingPrivilege creates an AuthorizationError for a privilege tuple
func MissingPrivilege(area, action, targetType string, targetID *uuid.UUID) *AuthorizationError {
	if targetType == "" {
		targetType = "NONE"
	}
	return &AuthorizationError{
		Message:    "Clinical privilege required",
		Area:       area,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
}

// AsAuthorization extracts an AuthorizationError from err, if any
func AsAuthorization(err error) (*AuthorizationError, bool) {
	var e *AuthorizationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ConfigurationError marks a violated system-level precondition, such as
// no active super admin to act as HR approver. Operator-alerting, not
// user-recoverable.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Configuration creates a ConfigurationError
func Configuration(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err is a ConfigurationError
func IsConfiguration(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}
