// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"errors"
	"strings"
)

// Submission failure modes. Input and eligibility errors are terminal for the
// attempt and never retried automatically; anything else coming out of Submit
// is a wrapped store error and safe to retry client-side.
var (
	ErrVotingClosed          = errors.New("voting is closed")
	ErrMaintenance           = errors.New("voting is paused for maintenance")
	ErrIncompleteBallot      = errors.New("ballot must select a candidate in all three categories")
	ErrCandidateNotFound     = errors.New("selected candidate does not exist")
	ErrInvalidCredential     = errors.New("credential must be exactly 8 characters")
	ErrCredentialNotFound    = errors.New("credential is not on the allow-list")
	ErrCredentialAlreadyUsed = errors.New("credential has already been used")
	ErrDuplicateDevice       = errors.New("this device has already voted")
)

// isUniqueViolation detects duplicate-key failures from either driver, the
// race-window counterpart of the pipeline's read checks.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
