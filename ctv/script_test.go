// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ctv

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// TestLeafScript pins the exact covenant leaf layout: a 32-byte push of the
// commitment followed by OP_CHECKTEMPLATEVERIFY, OP_DROP and OP_TRUE.  The
// layout is consensus-visible, so it must never drift.
func TestLeafScript(t *testing.T) {
	t.Parallel()

	var commitment chainhash.Hash
	for i := range commitment {
		commitment[i] = byte(i)
	}

	script, err := LeafScript(commitment)
	require.NoError(t, err)

	expected := make([]byte, 0, 36)
	expected = append(expected, txscript.OP_DATA_32)
	expected = append(expected, commitment[:]...)
	expected = append(expected,
		txscript.OP_NOP4, txscript.OP_DROP, txscript.OP_TRUE,
	)
	require.Equal(t, expected, script)
}

// TestAnchorScript pins the standard pay-to-anchor script bytes.
func TestAnchorScript(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]byte{txscript.OP_1, txscript.OP_DATA_2, 0x4e, 0x73},
		AnchorScript(),
	)

	txOut := AnchorOutput(500)
	require.EqualValues(t, 500, txOut.Value)
	require.Equal(t, AnchorScript(), txOut.PkScript)
}
