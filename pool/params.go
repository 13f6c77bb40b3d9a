// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

const (
	// DefaultTxVersion is the transaction version committed to by every
	// covenant in the tree.
	DefaultTxVersion = 2

	// DefaultSequence is the input sequence number committed to by every
	// covenant: RBF signaling enabled, no relative lock time.
	DefaultSequence = wire.MaxTxInSequenceNum - 2
)

// Params bundles the immutable configuration a pool tree is built from.  The
// same Params value threads through tree construction and settlement, so
// multiple pools with different configurations can coexist in one process.
type Params struct {
	// ChainParams identifies the network addresses are encoded for.
	ChainParams *chaincfg.Params

	// Participants lists the pool users.  Participants[i].Index must
	// equal i.
	Participants []*Participant

	// Amount is the equal per-participant share.
	Amount btcutil.Amount

	// Fee is the fixed fee attached to every pool transaction.  The same
	// value funds the fee-anchor output.
	Fee btcutil.Amount

	// Dust is the floor below which no output may be created.
	Dust btcutil.Amount

	// TxVersion is the version of every committed transaction.  Zero
	// means DefaultTxVersion.
	TxVersion int32

	// Sequence is the input sequence number of every committed
	// transaction.  Zero means DefaultSequence.
	Sequence uint32
}

// NumUsers returns the number of pool participants.
func (p *Params) NumUsers() int {
	return len(p.Participants)
}

// Validate checks the configuration before any tree work begins.  All
// failures here are configuration errors per the pool's error taxonomy.
func (p *Params) Validate() error {
	if p.ChainParams == nil {
		return errors.New("chain parameters are required")
	}

	n := len(p.Participants)
	if n < 3 {
		return fmt.Errorf("%w, got %d", ErrTooFewUsers, n)
	}
	for i, participant := range p.Participants {
		if participant == nil || participant.Index != uint32(i) {
			return fmt.Errorf("participant %d has index %v", i,
				participant)
		}
		if len(participant.PkScript) == 0 {
			return fmt.Errorf("participant %d has no output "+
				"script", i)
		}
	}

	if p.Amount <= p.Fee+p.Dust {
		return fmt.Errorf("%w: amount %v, fee %v, dust %v",
			ErrShareTooSmall, p.Amount, p.Fee, p.Dust)
	}

	// The final remaining participant absorbs the fee of every spend
	// along their branch, so their payout is the tightest.
	if p.finalPayout() <= p.Dust {
		return fmt.Errorf("%w: final payout %v is not above dust %v",
			ErrShareTooSmall, p.finalPayout(), p.Dust)
	}

	return nil
}

// txVersion returns the effective committed transaction version.
func (p *Params) txVersion() int32 {
	if p.TxVersion == 0 {
		return DefaultTxVersion
	}
	return p.TxVersion
}

// sequence returns the effective committed input sequence number.
func (p *Params) sequence() uint32 {
	if p.Sequence == 0 {
		return DefaultSequence
	}
	return p.Sequence
}

// nodeValue returns the value of the output funding a pool node after k
// participants have exited.  The root holds the full N*Amount deposit; every
// exit removes one share plus the fixed fee and the anchor value.
func (p *Params) nodeValue(exited int) btcutil.Amount {
	n := btcutil.Amount(len(p.Participants))
	k := btcutil.Amount(exited)
	return n*p.Amount - k*(p.Amount+p.Fee)
}

// withdrawValue returns the value paid to an exiting participant.
func (p *Params) withdrawValue() btcutil.Amount {
	return p.Amount - p.Fee
}

// finalPayout returns the value paid to the last remaining participant by
// the terminal transaction.
func (p *Params) finalPayout() btcutil.Amount {
	terminal := p.nodeValue(len(p.Participants) - 2)
	return terminal - p.Amount - p.Fee
}
