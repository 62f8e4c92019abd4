// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package vote implements the ballot submission pipeline.

Every submission runs in a single transaction: settings check, ballot
completeness, candidate existence, duplicate suppression, audit record,
and the three tally increments either all land or none do.

# Submitting

	svc := vote.NewService(conn, store)
	receipt, err := svc.Submit(ctx, selections, credential, fingerprint, false)

The synthetic flag marks internally generated traffic (load generation),
which bypasses the voting-open and maintenance gates and skips duplicate
suppression.

# Duplicate Suppression

Two independent guards, both skipped in test mode and for the master
credential:

  - The device fingerprint is recorded in the identity table; its primary
    key turns a repeat submission into ErrDuplicateDevice.
  - With credential verification on, the presented code is consumed by a
    conditional update; a second use fails with ErrCredentialAlreadyUsed.

# Errors

Sentinel errors map submission failures to HTTP statuses upstream:

	ErrVotingClosed          voting_open is false
	ErrMaintenance           a scaling operation is in progress
	ErrIncompleteBallot      a category selection is missing
	ErrCandidateNotFound     unknown candidate ID
	ErrInvalidCredential     malformed code
	ErrCredentialNotFound    code not on the allow-list
	ErrCredentialAlreadyUsed code consumed earlier
	ErrDuplicateDevice       fingerprint seen before

All are tested with errors.Is.
*/
package vote
