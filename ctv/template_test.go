// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ctv

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// testOutputs returns a small fixed output set for template tests.
func testOutputs() []*wire.TxOut {
	return []*wire.TxOut{
		wire.NewTxOut(99_500, bytes.Repeat([]byte{0x51}, 34)),
		wire.NewTxOut(500, AnchorScript()),
		wire.NewTxOut(199_500, bytes.Repeat([]byte{0x52}, 34)),
	}
}

// TestTemplateHashVectors pins the exact digest of fixed templates against
// values computed with a separate implementation of the BIP 119 default
// template hash (a direct transcription of the BIP's reference code).  Every
// other test in this package routes through the same Hash method, so only a
// pinned external digest can catch a systematic encoding error (wrong
// endianness, wrong output serialization, double instead of single sha256)
// that would make every covenant unspendable under consensus rules.
func TestTemplateHashVectors(t *testing.T) {
	t.Parallel()

	p2wpkh := append([]byte{0x00, 0x14}, bytes.Repeat([]byte{0x11}, 20)...)
	p2tr := append([]byte{0x51, 0x20}, bytes.Repeat([]byte{0x22}, 32)...)

	testCases := []struct {
		name     string
		template Template
		digest   string
	}{{
		// The shape of a pool spend: withdrawal, fee anchor,
		// continuation.
		name: "single input three outputs",
		template: Template{
			Version:  2,
			LockTime: 0,
			Sequences: []uint32{
				wire.MaxTxInSequenceNum - 2,
			},
			Outputs: []*wire.TxOut{
				wire.NewTxOut(99_500, p2wpkh),
				wire.NewTxOut(500, AnchorScript()),
				wire.NewTxOut(199_500, p2tr),
			},
			InputIndex: 0,
		},
		digest: "8dcfb3629630ca4159a28eea1430950746accf8b" +
			"6f3dc0e6a35c9fe87acd7296",
	}, {
		name: "two inputs nonzero lock time",
		template: Template{
			Version:  2,
			LockTime: 101,
			Sequences: []uint32{
				wire.MaxTxInSequenceNum - 2,
				wire.MaxTxInSequenceNum,
			},
			Outputs: []*wire.TxOut{
				wire.NewTxOut(1_000_000, p2tr),
				wire.NewTxOut(2_345, p2wpkh),
			},
			InputIndex: 1,
		},
		digest: "da70003b9031850f08fb9b6c0d03b61ebe633b3d" +
			"88ff9a0e78d903688be61833",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expected, err := hex.DecodeString(tc.digest)
			require.NoError(t, err)

			hash := tc.template.Hash()
			require.Equal(t, expected, hash[:])
		})
	}
}

// TestTemplateHashDeterminism asserts that the template hash is a pure
// function of the committed fields: equal fields hash equally, and every
// committed field is load-bearing.
func TestTemplateHashDeterminism(t *testing.T) {
	t.Parallel()

	base := Template{
		Version:    2,
		LockTime:   0,
		Sequences:  []uint32{wire.MaxTxInSequenceNum - 2},
		Outputs:    testOutputs(),
		InputIndex: 0,
	}

	same := Template{
		Version:    2,
		LockTime:   0,
		Sequences:  []uint32{wire.MaxTxInSequenceNum - 2},
		Outputs:    testOutputs(),
		InputIndex: 0,
	}
	require.Equal(t, base.Hash(), same.Hash())

	testCases := []struct {
		name   string
		mutate func(*Template)
	}{{
		name: "version",
		mutate: func(tmpl *Template) {
			tmpl.Version = 3
		},
	}, {
		name: "lock time",
		mutate: func(tmpl *Template) {
			tmpl.LockTime = 101
		},
	}, {
		name: "sequence",
		mutate: func(tmpl *Template) {
			tmpl.Sequences = []uint32{0}
		},
	}, {
		name: "input count",
		mutate: func(tmpl *Template) {
			tmpl.Sequences = append(tmpl.Sequences, tmpl.Sequences[0])
		},
	}, {
		name: "output value",
		mutate: func(tmpl *Template) {
			tmpl.Outputs = testOutputs()
			tmpl.Outputs[0].Value++
		},
	}, {
		name: "output script",
		mutate: func(tmpl *Template) {
			tmpl.Outputs = testOutputs()
			tmpl.Outputs[2].PkScript[0] = 0x53
		},
	}, {
		name: "output count",
		mutate: func(tmpl *Template) {
			tmpl.Outputs = testOutputs()[:2]
		},
	}, {
		name: "input index",
		mutate: func(tmpl *Template) {
			tmpl.InputIndex = 1
		},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mutated := Template{
				Version:    base.Version,
				LockTime:   base.LockTime,
				Sequences:  append([]uint32{}, base.Sequences...),
				Outputs:    testOutputs(),
				InputIndex: base.InputIndex,
			}
			tc.mutate(&mutated)
			require.NotEqual(t, base.Hash(), mutated.Hash())
		})
	}
}

// TestTemplateFromTx asserts that deriving a template from a concrete
// transaction commits to exactly the same digest as a template built from
// the fields the transaction was constructed with.
func TestTemplateFromTx(t *testing.T) {
	t.Parallel()

	outputs := testOutputs()
	declared := Template{
		Version:    2,
		LockTime:   0,
		Sequences:  []uint32{wire.MaxTxInSequenceNum - 2},
		Outputs:    outputs,
		InputIndex: 0,
	}

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 1},
		Sequence:         wire.MaxTxInSequenceNum - 2,
	})
	for _, txOut := range outputs {
		tx.AddTxOut(txOut)
	}

	derived, err := TemplateFromTx(tx, 0)
	require.NoError(t, err)
	require.Equal(t, declared.Hash(), derived.Hash())

	// The previous outpoint is deliberately not part of the commitment:
	// the same template must match no matter which outpoint funds it.
	tx.TxIn[0].PreviousOutPoint = wire.OutPoint{Index: 7}
	derived, err = TemplateFromTx(tx, 0)
	require.NoError(t, err)
	require.Equal(t, declared.Hash(), derived.Hash())

	// Witness data is not part of the commitment either.
	tx.TxIn[0].Witness = wire.TxWitness{{0x01}}
	derived, err = TemplateFromTx(tx, 0)
	require.NoError(t, err)
	require.Equal(t, declared.Hash(), derived.Hash())
}

// TestTemplateFromTxRejectsSigScripts asserts that transactions carrying
// signature scripts cannot be turned into templates.
func TestTemplateFromTxRejectsSigScripts(t *testing.T) {
	t.Parallel()

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		Sequence:        wire.MaxTxInSequenceNum - 2,
		SignatureScript: []byte{txscript.OP_TRUE},
	})
	tx.AddTxOut(testOutputs()[0])

	_, err := TemplateFromTx(tx, 0)
	require.ErrorIs(t, err, ErrNonEmptySigScript)
}

// TestValidateOutputs asserts the construction-time script size limit.
func TestValidateOutputs(t *testing.T) {
	t.Parallel()

	tmpl := Template{
		Outputs: []*wire.TxOut{wire.NewTxOut(
			1000, make([]byte, txscript.MaxScriptSize+1),
		)},
	}
	require.ErrorIs(t, tmpl.ValidateOutputs(), ErrOversizedScript)

	tmpl.Outputs = testOutputs()
	require.NoError(t, tmpl.ValidateOutputs())
}
