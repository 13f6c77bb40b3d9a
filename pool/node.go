// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// numsPointHex is the x-only public key suggested by BIP 341 as a point with
// a provably unknown discrete logarithm.  Using it as the internal key of
// every pool output guarantees that no key-path spend is ever possible and
// the covenant leaves are the only way to move pool funds.
const numsPointHex = "50929b74c1a04954b78b4b6035e97a5e078a5a0f28ec96d547bfee9ace803ac0"

// taprootNUMSKey is the parsed form of numsPointHex.
var taprootNUMSKey = func() *btcec.PublicKey {
	keyBytes, err := hex.DecodeString(numsPointHex)
	if err != nil {
		panic(err)
	}
	key, err := schnorr.ParsePubKey(keyBytes)
	if err != nil {
		panic(err)
	}
	return key
}()

// Leaf is one covenant branch of a pool node: the pre-committed shape of the
// transaction that lets one specific participant exit next, together with
// everything needed to later spend the branch.
type Leaf struct {
	// Exiter is the participant this branch lets out of the pool.
	Exiter uint32

	// Commitment is the template hash the covenant script commits to.
	Commitment chainhash.Hash

	// Script is the serialized covenant leaf script.
	Script []byte

	// ControlBlock is the serialized BIP 341 control block proving the
	// leaf's membership in the node's script tree.  Populated when the
	// node is compiled.
	ControlBlock []byte

	// Outputs are the committed outputs of the spending transaction, in
	// committed order: withdrawal, fee anchor, continuation (or the
	// final remaining participant's payout at the terminal layer).
	Outputs []*wire.TxOut

	// ChildPath is the exit path of the node the continuation output
	// pays to.  It is nil at the terminal layer, where no continuation
	// exists.
	ChildPath []uint32
}

// Node is one pre-built state of the pool: the participants named by Path
// have exited, and the compiled taproot output below holds the remaining
// funds.  Nodes are created exclusively by BuildTree and are immutable once
// built.
type Node struct {
	// Path is the ordered sequence of participant indices that exited to
	// reach this state.  The root has an empty path.
	Path []uint32

	// Value is the value of the output funding this node.
	Value btcutil.Amount

	// Leaves maps each admissible next exiter to their covenant branch.
	Leaves map[uint32]*Leaf

	// InternalKey is the unspendable internal key of the taproot output.
	InternalKey *btcec.PublicKey

	// OutputKey is the taproot output key committing to the script tree.
	OutputKey *btcec.PublicKey

	// Address is the node's taproot address.
	Address *btcutil.AddressTaproot

	// PkScript is the output script paying Address.
	PkScript []byte
}

// Leaf returns the covenant branch letting the given participant exit next.
func (n *Node) Leaf(exiter uint32) (*Leaf, bool) {
	leaf, ok := n.Leaves[exiter]
	return leaf, ok
}

// NumLeaves returns the node's fan-out.
func (n *Node) NumLeaves() int {
	return len(n.Leaves)
}

// compileNode assembles the taproot output for one pool node.  The supplied
// leaves must already be ordered by ascending exiter index so that repeated
// builds from the same participant list produce byte-identical script trees,
// and therefore byte-identical addresses.  The script tree assembly balances
// leaf depth, keeping the worst-case control block as small as possible.
func compileNode(path []uint32, value btcutil.Amount, leaves []*Leaf,
	chainParams *chaincfg.Params) (*Node, error) {

	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: path %v", ErrNoLeaves, path)
	}

	tapLeaves := fn.Map(leaves, func(leaf *Leaf) txscript.TapLeaf {
		return txscript.NewBaseTapLeaf(leaf.Script)
	})
	scriptTree := txscript.AssembleTaprootScriptTree(tapLeaves...)

	// Attach the membership proof for each leaf.  The proofs reference
	// the assembled tree, so this happens here rather than at leaf
	// construction time.
	for i, leaf := range leaves {
		leafHash := tapLeaves[i].TapHash()
		proofIdx := scriptTree.LeafProofIndex[leafHash]
		proof := scriptTree.LeafMerkleProofs[proofIdx]

		controlBlock := proof.ToControlBlock(taprootNUMSKey)
		controlBlockBytes, err := controlBlock.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("unable to serialize control "+
				"block for path %v: %w", path, err)
		}
		leaf.ControlBlock = controlBlockBytes
	}

	rootHash := scriptTree.RootNode.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(
		taprootNUMSKey, rootHash[:],
	)

	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey), chainParams,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to derive taproot address "+
			"for path %v: %w", path, err)
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to derive output script for "+
			"path %v: %w", path, err)
	}

	leafMap := make(map[uint32]*Leaf, len(leaves))
	for _, leaf := range leaves {
		leafMap[leaf.Exiter] = leaf
	}

	return &Node{
		Path:        path,
		Value:       value,
		Leaves:      leafMap,
		InternalKey: taprootNUMSKey,
		OutputKey:   outputKey,
		Address:     addr,
		PkScript:    pkScript,
	}, nil
}
