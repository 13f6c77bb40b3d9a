// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain provides the pool's only I/O surface: a JSON-RPC client
// against a Bitcoin node with wallet support.  The node funds the pool root,
// signs the funding transaction against its wallet, broadcasts the
// pre-committed settlement transactions, and (on test networks) mines
// blocks.  Nothing in the covenant tree itself depends on this package.
package chain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Interface is the narrow node surface the pool engine depends on.  All
// errors returned through it are external-collaborator errors: settlement
// state is never advanced on failure and the failing call may be retried
// once the underlying cause is fixed.
type Interface interface {
	// NewWithdrawAddress returns a fresh wallet address, used for
	// participant withdrawal destinations and regtest mining.
	NewWithdrawAddress() (btcutil.Address, error)

	// Balance returns the node wallet's spendable balance.
	Balance() (btcutil.Amount, error)

	// Fund pays the given amount to addr from the node wallet, paying
	// the given fee on top, and returns the funding transaction id.
	Fund(addr btcutil.Address, amount, fee btcutil.Amount) (
		*chainhash.Hash, error)

	// Broadcast submits a fully-witnessed transaction to the network.
	Broadcast(tx *wire.MsgTx) (*chainhash.Hash, error)

	// LookupOutputs returns the ordered outputs of the given
	// transaction, used to locate the pool output index after funding.
	LookupOutputs(txid *chainhash.Hash) ([]*wire.TxOut, error)

	// Generate mines the given number of blocks to a throwaway wallet
	// address.  Test networks only.
	Generate(numBlocks uint32) error
}
