// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// TestCompileNodeRejectsEmpty asserts that a node cannot be compiled without
// any spending leaves.
func TestCompileNodeRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := compileNode(
		nil, testAmount, nil, &chaincfg.RegressionNetParams,
	)
	require.ErrorIs(t, err, ErrNoLeaves)
}

// TestNodeControlBlocks asserts that every leaf's control block proves the
// leaf script's inclusion under the node's taproot output key, exactly as a
// script-path spend would be validated on chain.
func TestNodeControlBlocks(t *testing.T) {
	t.Parallel()

	tree, err := BuildTree(testParams(t, 4))
	require.NoError(t, err)

	for _, layer := range tree.layers {
		for key, node := range layer {
			witnessProgram := schnorr.SerializePubKey(
				node.OutputKey,
			)
			require.Equal(t,
				node.Address.WitnessProgram(), witnessProgram,
			)

			for _, leaf := range node.Leaves {
				ctrlBlock, err := txscript.ParseControlBlock(
					leaf.ControlBlock,
				)
				require.NoError(t, err)

				err = txscript.VerifyTaprootLeafCommitment(
					ctrlBlock, witnessProgram, leaf.Script,
				)
				require.NoError(t, err,
					"node %q exiter %d", key, leaf.Exiter)
			}
		}
	}
}

// TestNodeLeafLookup asserts leaf lookup semantics for present and absent
// participants.
func TestNodeLeafLookup(t *testing.T) {
	t.Parallel()

	tree, err := BuildTree(testParams(t, 3))
	require.NoError(t, err)

	root := tree.Root()
	for exiter := uint32(0); exiter < 3; exiter++ {
		leaf, ok := root.Leaf(exiter)
		require.True(t, ok)
		require.Equal(t, exiter, leaf.Exiter)
	}

	_, ok := root.Leaf(3)
	require.False(t, ok)

	// Participant 0 has already exited on this branch, so the child node
	// must not carry a leaf for them.
	child, err := tree.Node([]uint32{0})
	require.NoError(t, err)
	_, ok = child.Leaf(0)
	require.False(t, ok)
}
