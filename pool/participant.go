// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

// Participant is one pool user: an index in [0, N) and the withdrawal
// destination their share is paid to.  Participants are assigned at startup
// and immutable afterwards.
type Participant struct {
	// Index is the participant's position in the pool.  Exit paths are
	// expressed as sequences of these indices.
	Index uint32

	// Address is the participant's withdrawal address.
	Address btcutil.Address

	// PkScript is the output script paying Address.
	PkScript []byte
}

// NewParticipant creates a participant paying out to the given address.
func NewParticipant(index uint32, addr btcutil.Address) (*Participant, error) {
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to derive output script for "+
			"participant %d: %w", index, err)
	}

	return &Participant{
		Index:    index,
		Address:  addr,
		PkScript: pkScript,
	}, nil
}
