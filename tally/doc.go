// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally maintains sharded vote counters.

Each candidate's score in a category is split across N shard rows plus a
base field on the candidate row. A write picks a shard uniformly at random
and applies a single atomic upsert-add; no read precedes the write, so
concurrent submissions never overwrite each other.

# Writing

	store := tally.NewStore(10)
	err := store.Increment(ctx, tx, candidateID, models.CategorySinging, 1)

Increment accepts any db.DBTX, so it participates in the caller's
transaction.

# Reading

Aggregation sums base fields and shard deltas in one query:

	scores, err := store.Aggregate(ctx, conn, candidateID)
	all, err := store.AggregateAll(ctx, conn)

AggregateAll returns every candidate with metadata, ordered by ID.

# Collapsing

CollapseShards folds shard deltas into the base fields and deletes the
shard rows. The scaling engine uses it to get exact single-row scores
before rewriting them:

	err := store.CollapseShards(ctx, tx, candidateID)

Aggregated values are unchanged by a collapse.

# Resetting

ResetAll zeroes every base field and deletes all shard rows.
*/
package tally
