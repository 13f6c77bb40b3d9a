// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/ctvpool/ctv"
	"github.com/davecgh/go-spew/spew"
)

// continuationIndex is the output index of the continuation payment in every
// non-terminal pool transaction; the committed output order is fixed as
// withdrawal, anchor, continuation.
const continuationIndex = 2

// Broadcaster hands fully-witnessed transactions to the network.  A failed
// broadcast must not have observable effects, so the same transaction can be
// handed over again once the underlying cause is fixed.
type Broadcaster interface {
	Broadcast(tx *wire.MsgTx) (*chainhash.Hash, error)
}

// Resolver walks the pre-built tree during settlement.  It owns the only
// mutable state of the pool, the currently unspent outpoint and the exit
// path observed so far, and serializes all access to it: issuing two
// settlement steps against the same outpoint would be a double-spend
// attempt.
type Resolver struct {
	mu sync.Mutex

	tree        *Tree
	broadcaster Broadcaster

	outpoint wire.OutPoint
	path     []uint32
	done     bool
}

// NewResolver creates a resolver for a funded pool.  fundingOutpoint is the
// output paying the tree's root address.
func NewResolver(tree *Tree, broadcaster Broadcaster,
	fundingOutpoint wire.OutPoint) *Resolver {

	return &Resolver{
		tree:        tree,
		broadcaster: broadcaster,
		outpoint:    fundingOutpoint,
	}
}

// Withdraw exits the given participant from the pool.  It locates the
// pre-built node matching the exits observed so far, constructs the
// transaction whose shape the selected covenant leaf committed to, attaches
// the script-path witness, and broadcasts.  On success the settlement state
// advances to the continuation output; on broadcast failure the state is
// unchanged and the same withdrawal may be retried.
func (r *Resolver) Withdraw(exiter uint32) (*chainhash.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return nil, ErrPoolSettled
	}
	if uint32(r.tree.params.NumUsers()) <= exiter {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParticipant, exiter)
	}
	for _, exited := range r.path {
		if exited == exiter {
			return nil, fmt.Errorf("%w: %d", ErrAlreadyExited,
				exiter)
		}
	}

	node, err := r.tree.Node(r.path)
	if err != nil {
		return nil, err
	}
	leaf, ok := node.Leaf(exiter)
	if !ok {
		return nil, fmt.Errorf("%w: node %v has no leaf for %d",
			ErrUnknownPath, r.path, exiter)
	}

	tx := newSpendTx(r.tree.params, leaf, r.outpoint)

	// The constructed transaction must hash to exactly the digest the
	// leaf committed to, or consensus rules reject it.  A mismatch is a
	// construction bug and fails loudly before anything reaches the
	// network.
	template, err := ctv.TemplateFromTx(tx, 0)
	if err != nil {
		return nil, err
	}
	if actual := template.Hash(); actual != leaf.Commitment {
		return nil, fmt.Errorf("%w: built %v, committed %v",
			ErrCommitmentMismatch, actual, leaf.Commitment)
	}

	log.Debugf("Withdrawal transaction for participant %d: %v", exiter,
		newLogClosure(func() string {
			return spew.Sdump(tx)
		}))

	txid, err := r.broadcaster.Broadcast(tx)
	if err != nil {
		return nil, fmt.Errorf("unable to broadcast withdrawal for "+
			"participant %d: %w", exiter, err)
	}

	r.path = append(r.path, exiter)
	if leaf.ChildPath == nil {
		r.done = true
		log.Infof("Pool settled in %d transactions, final txid %v",
			len(r.path), txid)
	} else {
		r.outpoint = wire.OutPoint{
			Hash:  *txid,
			Index: continuationIndex,
		}
		log.Infof("Participant %d exited in txid %v, pool continues "+
			"at %v", exiter, txid, r.outpoint)
	}

	return txid, nil
}

// Done reports whether the terminal transaction has been broadcast.
func (r *Resolver) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.done
}

// Path returns a copy of the exit sequence observed so far.
func (r *Resolver) Path() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]uint32{}, r.path...)
}

// Outpoint returns the currently unspent pool outpoint.
func (r *Resolver) Outpoint() wire.OutPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.outpoint
}

// newSpendTx builds the transaction a covenant leaf committed to, spending
// the given outpoint, with the script-path witness attached.
func newSpendTx(params *Params, leaf *Leaf, outpoint wire.OutPoint) *wire.MsgTx {
	tx := wire.NewMsgTx(params.txVersion())
	tx.LockTime = 0
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: outpoint,
		Sequence:         params.sequence(),
	})
	for _, txOut := range leaf.Outputs {
		tx.AddTxOut(wire.NewTxOut(txOut.Value, txOut.PkScript))
	}
	tx.TxIn[0].Witness = wire.TxWitness{leaf.Script, leaf.ControlBlock}

	return tx
}

// FindFundingOutput locates the output paying the pool root within the
// funding transaction's outputs and returns its index.
func FindFundingOutput(outputs []*wire.TxOut, root *Node) (uint32, error) {
	for i, txOut := range outputs {
		if txOut.Value == int64(root.Value) &&
			bytes.Equal(txOut.PkScript, root.PkScript) {

			return uint32(i), nil
		}
	}
	return 0, ErrNoFundingOutput
}
