// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import "errors"

// The errors below fall into three of the categories the pool distinguishes:
// configuration errors (rejected before any tree work), construction errors
// (abort the build, no partial tree escapes), and resolution errors (contract
// violations by the caller, fatal to the run).  Errors from the chain
// backend are not translated here; they leave settlement state unchanged and
// the same step may be retried.
var (
	// ErrTooFewUsers is returned when a pool is configured with fewer
	// than three participants.  Two participants need no tree at all.
	ErrTooFewUsers = errors.New("pool requires at least 3 participants")

	// ErrShareTooSmall is returned when the per-participant amount does
	// not leave a positive payout after fee and dust deduction at every
	// layer of the tree.
	ErrShareTooSmall = errors.New("per-participant amount too small " +
		"after fee and dust deduction")

	// ErrNoLeaves is returned when a taproot node is compiled with an
	// empty leaf set.  A pool state with no admissible next transaction
	// cannot exist.
	ErrNoLeaves = errors.New("taproot node requires at least one leaf")

	// ErrUnknownPath is returned when no pre-built node exists for an
	// exit path.  The tree covers every reachable state, so this is a
	// caller bug.
	ErrUnknownPath = errors.New("no pool node for exit path")

	// ErrUnknownParticipant is returned when a withdrawal names a
	// participant index the pool was not built with.
	ErrUnknownParticipant = errors.New("unknown participant index")

	// ErrAlreadyExited is returned when a withdrawal is requested for a
	// participant that already left the pool.
	ErrAlreadyExited = errors.New("participant already exited")

	// ErrPoolSettled is returned when a withdrawal is requested after the
	// terminal transaction has been broadcast.
	ErrPoolSettled = errors.New("pool is fully settled")

	// ErrCommitmentMismatch is returned when a constructed spend does not
	// hash to the digest its covenant leaf committed to.  This indicates
	// a construction bug and is never masked: broadcasting such a
	// transaction would be rejected by consensus rules, not by policy.
	ErrCommitmentMismatch = errors.New("transaction does not match " +
		"committed template")

	// ErrNoFundingOutput is returned when the funding transaction does
	// not contain an output paying the pool root.
	ErrNoFundingOutput = errors.New("funding transaction does not pay " +
		"the pool root")
)
