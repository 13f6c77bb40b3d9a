// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ctv

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// OpCheckTemplateVerify is the opcode BIP 119 assigns to
// OP_CHECKTEMPLATEVERIFY.  On networks where the soft fork is not deployed it
// executes as OP_NOP4.
const OpCheckTemplateVerify = txscript.OP_NOP4

// LeafScript returns the covenant script committing to the given template
// hash:
//
//	<32-byte hash> OP_CHECKTEMPLATEVERIFY OP_DROP OP_TRUE
//
// OP_CHECKTEMPLATEVERIFY leaves the hash on the stack after verification, so
// the script drops it and pushes an explicit true to terminate cleanly.  A
// transaction whose template-relevant fields do not hash to the committed
// value fails script verification and cannot spend the leaf.
func LeafScript(commitment chainhash.Hash) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(commitment[:]).
		AddOp(OpCheckTemplateVerify).
		AddOp(txscript.OP_DROP).
		AddOp(txscript.OP_TRUE).
		Script()
}

// AnchorScript returns the standard pay-to-anchor output script, OP_1
// <0x4e73>.  Every pool transaction carries one anchor output so a fee payer
// can attach a child transaction when the fixed fee proves insufficient.
func AnchorScript() []byte {
	// The script is fixed.  Building it through the script builder cannot
	// fail for a two byte push.
	script, _ := txscript.NewScriptBuilder().
		AddOp(txscript.OP_1).
		AddData([]byte{0x4e, 0x73}).
		Script()
	return script
}

// AnchorOutput returns a fee-anchor output carrying the given value.
func AnchorOutput(value btcutil.Amount) *wire.TxOut {
	return wire.NewTxOut(int64(value), AnchorScript())
}
