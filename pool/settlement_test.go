// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pool

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/ctvpool/chain"
	"github.com/stretchr/testify/require"
)

// mockNode implements chain.Interface against an in-memory transaction map,
// standing in for the node wallet during settlement tests.
type mockNode struct {
	chainParams *chaincfg.Params

	nextAddr byte
	txs      map[chainhash.Hash][]*wire.TxOut
	mined    uint32
}

var _ chain.Interface = (*mockNode)(nil)

func newMockNode(chainParams *chaincfg.Params) *mockNode {
	return &mockNode{
		chainParams: chainParams,
		txs:         make(map[chainhash.Hash][]*wire.TxOut),
	}
}

func (m *mockNode) NewWithdrawAddress() (btcutil.Address, error) {
	m.nextAddr++
	return btcutil.NewAddressWitnessPubKeyHash(
		bytes.Repeat([]byte{m.nextAddr}, 20), m.chainParams,
	)
}

func (m *mockNode) Balance() (btcutil.Amount, error) {
	return btcutil.MaxSatoshi, nil
}

// Fund pays amount to addr.  The pool output is deliberately not the first
// output, so callers must locate it instead of assuming index zero.
func (m *mockNode) Fund(addr btcutil.Address, amount,
	fee btcutil.Amount) (*chainhash.Hash, error) {

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}
	changeAddr, err := m.NewWithdrawAddress()
	if err != nil {
		return nil, err
	}
	changeScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 3},
		Sequence:         wire.MaxTxInSequenceNum - 2,
	})
	tx.AddTxOut(wire.NewTxOut(7_777, changeScript))
	tx.AddTxOut(wire.NewTxOut(int64(amount), pkScript))

	return m.Broadcast(tx)
}

func (m *mockNode) Broadcast(tx *wire.MsgTx) (*chainhash.Hash, error) {
	txid := tx.TxHash()
	m.txs[txid] = tx.TxOut
	return &txid, nil
}

func (m *mockNode) LookupOutputs(txid *chainhash.Hash) ([]*wire.TxOut,
	error) {

	outputs, ok := m.txs[*txid]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %v", txid)
	}
	return outputs, nil
}

func (m *mockNode) Generate(numBlocks uint32) error {
	m.mined += numBlocks
	return nil
}

// TestSettlementAgainstNode drives the full pool lifecycle against a mocked
// node: withdrawal addresses from the wallet, funding with the pool output
// located by value and script rather than assumed, then settlement through
// the resolver with every share verified against the broadcast transactions.
func TestSettlementAgainstNode(t *testing.T) {
	t.Parallel()

	const n = 4
	node := newMockNode(&chaincfg.RegressionNetParams)

	participants := make([]*Participant, n)
	for i := range participants {
		addr, err := node.NewWithdrawAddress()
		require.NoError(t, err)
		participant, err := NewParticipant(uint32(i), addr)
		require.NoError(t, err)
		participants[i] = participant
	}

	params := &Params{
		ChainParams:  &chaincfg.RegressionNetParams,
		Participants: participants,
		Amount:       testAmount,
		Fee:          testFee,
		Dust:         testDust,
	}
	tree, err := BuildTree(params)
	require.NoError(t, err)
	root := tree.Root()

	fundingTxid, err := node.Fund(root.Address, root.Value, testFee)
	require.NoError(t, err)

	outputs, err := node.LookupOutputs(fundingTxid)
	require.NoError(t, err)
	vout, err := FindFundingOutput(outputs, root)
	require.NoError(t, err)
	require.EqualValues(t, 1, vout)

	resolver := NewResolver(tree, node, wire.OutPoint{
		Hash:  *fundingTxid,
		Index: vout,
	})

	settlementTxids := make([]*chainhash.Hash, 0, n-1)
	for i := 0; i < n-1; i++ {
		txid, err := resolver.Withdraw(uint32(i))
		require.NoError(t, err)
		settlementTxids = append(settlementTxids, txid)
	}
	require.True(t, resolver.Done())

	// Every exiting participant is paid their share minus the fee by the
	// transaction that let them out; the last remaining participant is
	// paid by the terminal transaction.
	paid := func(txid *chainhash.Hash, pkScript []byte) btcutil.Amount {
		outputs, err := node.LookupOutputs(txid)
		require.NoError(t, err)
		for _, txOut := range outputs {
			if bytes.Equal(txOut.PkScript, pkScript) {
				return btcutil.Amount(txOut.Value)
			}
		}
		return 0
	}

	for i := 0; i < n-1; i++ {
		require.Equal(t, testAmount-testFee,
			paid(settlementTxids[i], participants[i].PkScript),
			"participant %d", i)
	}

	terminalTxid := settlementTxids[n-2]
	require.Equal(t, testAmount-(n-1)*testFee,
		paid(terminalTxid, participants[n-1].PkScript))
}
