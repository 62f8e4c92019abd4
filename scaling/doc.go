// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scaling implements reversible proportional score scaling.

For the results presentation the displayed totals can be raised to a target
per category while preserving each candidate's share. The operation is
fully reversible: a restore brings back the exact pre-scaling counters and
removes every synthetic record the cycle created.

# Scaling

	engine := scaling.NewEngine(conn, store)
	summary, err := engine.ScaleTo(ctx, 10000, false)

ScaleTo snapshots the current aggregated scores into the backup slot (or
reuses an existing one, so repeated scaling never compounds), computes each
candidate's proportional share of the target, optionally applies a small
jitter, rewrites the base scores, and writes cycle-tagged synthetic ballots
and identities to cover the deficit. Shares always sum exactly to the
target: the last candidate absorbs rounding remainders.

Unused staff credentials are marked used at random to match the synthetic
turnout; the consumed codes are logged per cycle for reversal.

# Restoring

	err := engine.Restore(ctx)

Restore rewrites the backed-up scores, unmarks the logged credentials, and
deletes everything tagged with the cycle ID. Records that existed before
the cycle are untouched.

# Locking

Both operations take the maintenance flag as a mutex: a second scale or
restore while one is running fails with ErrScalingLocked, and live
submissions are refused for the duration.
*/
package scaling
