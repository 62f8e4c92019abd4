// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package loadgen drives synthetic vote traffic through the real submission
pipeline.

	runner := loadgen.NewRunner(conn, svc, loadgen.DefaultInterval)
	report, err := runner.Run(ctx, 5000, onProgress)

Each iteration picks random candidates and submits a synthetic ballot, so
generated load exercises the same transaction and tally path as live
traffic. Only one run may be active at a time; Stop requests cooperative
cancellation, checked once per iteration.
*/
package loadgen
