/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package errors

import (
	goerrors "errors"
)

const VoyantErrorPrefix = "Voyant."

// Stable error codes. The numeric space is partitioned per subsystem:
// 000xx general, 001xx external calls, 002xx plugins/artifacts,
// 003xx tenancy/quota, 004xx events/schemas.
const (
	CodeInternalError      = VoyantErrorPrefix + "00001"
	CodeValidationError    = VoyantErrorPrefix + "00002"
	CodeForbidden          = VoyantErrorPrefix + "00003"
	CodeConflict           = VoyantErrorPrefix + "00004"
	CodeNotFound           = VoyantErrorPrefix + "00005"
	CodeUnauthorized       = VoyantErrorPrefix + "00006"
	CodeCancelled          = VoyantErrorPrefix + "00007"
	CodeInitializeError    = VoyantErrorPrefix + "00008"
	CodeDatabaseError      = VoyantErrorPrefix + "00009"
	CodeCircuitOpen        = VoyantErrorPrefix + "00101"
	CodeTransientExternal  = VoyantErrorPrefix + "00102"
	CodeTimeout            = VoyantErrorPrefix + "00103"
	CodeDuplicatePlugin    = VoyantErrorPrefix + "00201"
	CodeInvalidArtifactKey = VoyantErrorPrefix + "00202"
	CodeUnknownTier        = VoyantErrorPrefix + "00301"
	CodeUnknownTenant      = VoyantErrorPrefix + "00302"
	CodeQuotaExceeded      = VoyantErrorPrefix + "00303"
	CodeInvalidNamespace   = VoyantErrorPrefix + "00304"
	CodeInvalidSchema      = VoyantErrorPrefix + "00401"
	CodeInvalidEvent       = VoyantErrorPrefix + "00402"
)

// CodeOf returns the code attached to err or any error it wraps,
// or the empty string for uncoded errors.
func CodeOf(err error) string {
	var e *Error
	if goerrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

func IsValidation(err error) bool {
	return IsCode(err, CodeValidationError)
}

func IsConflict(err error) bool {
	return IsCode(err, CodeConflict)
}

func IsCancelled(err error) bool {
	return IsCode(err, CodeCancelled)
}

func IsTimeout(err error) bool {
	return IsCode(err, CodeTimeout)
}

func IsQuotaExceeded(err error) bool {
	return IsCode(err, CodeQuotaExceeded)
}

func IsCircuitOpen(err error) bool {
	return IsCode(err, CodeCircuitOpen)
}

// IsRetryable reports whether an activity attempt that produced err
// may be retried. CircuitOpen is deliberately not retryable at the
// attempt level; the breaker's probe cycle owns the recovery.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case CodeTransientExternal, CodeTimeout:
		return true
	case "":
		// Uncoded errors come from external collaborators; treat
		// them as transient rather than swallowing real work.
		return true
	default:
		return false
	}
}

func NewValidationError(message string) *Error {
	return newError(2).WithCode(CodeValidationError).WithMessage(message)
}

func NewNotFoundError(kind, name string) *Error {
	return newError(2).WithCode(CodeNotFound).
		WithMessagef("%s %q not found", kind, name).
		WithDetail("kind", kind).WithDetail("name", name)
}

func NewQuotaExceededError(limitName, tenantID string, current, max int64) *Error {
	return newError(2).WithCode(CodeQuotaExceeded).
		WithMessagef("tenant %s exceeded %s (%d/%d)", tenantID, limitName, current, max).
		WithDetail("limit_name", limitName).
		WithDetail("tenant_id", tenantID)
}

func NewCircuitOpenError(name string) *Error {
	return newError(2).WithCode(CodeCircuitOpen).
		WithMessagef("circuit %q is open", name).
		WithDetail("breaker", name)
}

func NewCancelledError(jobID string) *Error {
	return newError(2).WithCode(CodeCancelled).
		WithMessagef("job %s cancelled", jobID)
}

func NewTimeoutError(what string) *Error {
	return newError(2).WithCode(CodeTimeout).
		WithMessagef("%s timed out", what)
}
