// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ctv implements the BIP 119 OP_CHECKTEMPLATEVERIFY default template
// hash and the tapscript leaves that commit to it.  The template hash is the
// load-bearing primitive of the pool: every covenant script produced by this
// package commits to the exact shape of a transaction that does not exist
// yet, and any deviation from the standardized hash makes the committed
// transaction unspendable under consensus rules.
package ctv

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrNonEmptySigScript is returned when deriving a template from a
	// transaction that carries a non-empty signature script.  Pool
	// transactions spend taproot outputs exclusively, so the scriptSig
	// digest branch of the BIP 119 hash never applies here.
	ErrNonEmptySigScript = errors.New("template requires empty sig scripts")

	// ErrOversizedScript is returned when a committed output script
	// exceeds the consensus script size limit.
	ErrOversizedScript = errors.New("committed output script too large")
)

// Template describes the shape of a future transaction as committed to by the
// BIP 119 default template hash: its version, lock time, the sequence number
// of every input, every output, and the index of the input that will carry
// the covenant script.  Templates are plain values; two templates with equal
// fields always hash to the same digest.
type Template struct {
	// Version is the transaction version of the committed transaction.
	Version int32

	// LockTime is the committed nLockTime.
	LockTime uint32

	// Sequences holds the nSequence of each input, in input order.  The
	// input count committed to is len(Sequences).
	Sequences []uint32

	// Outputs holds every output of the committed transaction, in order.
	Outputs []*wire.TxOut

	// InputIndex is the index of the input whose covenant script commits
	// to this template.
	InputIndex uint32
}

// TemplateFromTx derives the template of a concrete transaction as seen from
// the given spending input.  The result hashes to the same digest a covenant
// committing to this transaction's shape carries, which makes it the tool for
// verifying commitment soundness before broadcast.
func TemplateFromTx(tx *wire.MsgTx, inputIndex uint32) (*Template, error) {
	sequences := make([]uint32, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		if len(txIn.SignatureScript) > 0 {
			return nil, ErrNonEmptySigScript
		}
		sequences[i] = txIn.Sequence
	}

	return &Template{
		Version:    tx.Version,
		LockTime:   tx.LockTime,
		Sequences:  sequences,
		Outputs:    tx.TxOut,
		InputIndex: inputIndex,
	}, nil
}

// ValidateOutputs checks the committed outputs against consensus size limits.
// Callers must run this before Hash, since the hash itself is a pure function
// with no failure modes.
func (t *Template) ValidateOutputs() error {
	for _, txOut := range t.Outputs {
		if len(txOut.PkScript) > txscript.MaxScriptSize {
			return ErrOversizedScript
		}
	}
	return nil
}

// Hash computes the BIP 119 default template hash of t.
//
// The digest is a single sha256 over the committed fields:
//
//	version || locktime || num_inputs || sha256(sequences) ||
//	num_outputs || sha256(outputs) || input_index
//
// with all integers serialized as 4-byte little endian (outputs use the
// regular wire encoding).  The scriptSig digest that BIP 119 inserts for
// transactions with non-empty signature scripts is intentionally absent:
// templates built by this package never commit to sig scripts, and
// TemplateFromTx rejects transactions carrying them.
func (t *Template) Hash() chainhash.Hash {
	var seqBuf bytes.Buffer
	for _, seq := range t.Sequences {
		_ = binary.Write(&seqBuf, binary.LittleEndian, seq)
	}
	seqHash := sha256.Sum256(seqBuf.Bytes())

	var outBuf bytes.Buffer
	for _, txOut := range t.Outputs {
		// Writing to a bytes.Buffer cannot fail.
		_ = wire.WriteTxOut(&outBuf, 0, 0, txOut)
	}
	outHash := sha256.Sum256(outBuf.Bytes())

	h := sha256.New()
	_ = binary.Write(h, binary.LittleEndian, t.Version)
	_ = binary.Write(h, binary.LittleEndian, t.LockTime)
	_ = binary.Write(h, binary.LittleEndian, uint32(len(t.Sequences)))
	h.Write(seqHash[:])
	_ = binary.Write(h, binary.LittleEndian, uint32(len(t.Outputs)))
	h.Write(outHash[:])
	_ = binary.Write(h, binary.LittleEndian, t.InputIndex)

	var hash chainhash.Hash
	copy(hash[:], h.Sum(nil))
	return hash
}
