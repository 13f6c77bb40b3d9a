// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
)

var (
	// ErrInsufficientFunds is returned when the node wallet cannot cover
	// a requested funding amount.
	ErrInsufficientFunds = errors.New("wallet cannot fund requested amount")

	// ErrIncompleteSignature is returned when the node wallet cannot
	// fully sign the funding transaction.
	ErrIncompleteSignature = errors.New("wallet returned incompletely " +
		"signed funding transaction")
)

// fundingSequence signals RBF on funding inputs; the funding transaction is
// not covenant-constrained and may be fee bumped.
const fundingSequence = wire.MaxTxInSequenceNum - 2

// RPCClient implements Interface over a persistent HTTP POST connection to a
// bitcoind or btcd instance with wallet support.
type RPCClient struct {
	*rpcclient.Client

	connConfig  *rpcclient.ConnConfig
	chainParams *chaincfg.Params
}

// A compile-time check to ensure that RPCClient satisfies the
// chain.Interface interface.
var _ Interface = (*RPCClient)(nil)

// NewRPCClient creates a client connection to the node described by the
// connect string.  If disableTLS is false, the remote RPC certificate must
// be provided in the certs slice.
func NewRPCClient(chainParams *chaincfg.Params, connect, user, pass string,
	certs []byte, disableTLS bool) (*RPCClient, error) {

	if chainParams == nil {
		return nil, errors.New("chain parameters are required")
	}

	client := &RPCClient{
		connConfig: &rpcclient.ConnConfig{
			Host:         connect,
			User:         user,
			Pass:         pass,
			Certificates: certs,
			DisableTLS:   disableTLS,
			HTTPPostMode: true,
			// Addresses in RPC responses decode against this.
			Params: chainParams.Name,
		},
		chainParams: chainParams,
	}

	rpcClient, err := rpcclient.New(client.connConfig, nil)
	if err != nil {
		return nil, err
	}
	client.Client = rpcClient

	return client, nil
}

// NewWithdrawAddress returns a fresh address from the node wallet.
func (c *RPCClient) NewWithdrawAddress() (btcutil.Address, error) {
	return c.GetNewAddress("")
}

// Balance returns the wallet's spendable balance.
func (c *RPCClient) Balance() (btcutil.Amount, error) {
	return c.GetBalance("*")
}

// FundingPacket assembles the unsigned funding transaction paying amount to
// addr from the node wallet's unspent outputs and wraps it in a PSBT, so it
// can be handed to external signers when the pool deposit is not held by
// this node's wallet.  Inputs signal RBF; change below the dust threshold is
// given up to fees.
func (c *RPCClient) FundingPacket(addr btcutil.Address, amount,
	fee btcutil.Amount) (*psbt.Packet, error) {

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}

	unspent, err := c.ListUnspentMin(1)
	if err != nil {
		return nil, fmt.Errorf("unable to list unspent outputs: %w",
			err)
	}

	var (
		selected []btcjson.ListUnspentResult
		total    btcutil.Amount
	)
	for _, utxo := range unspent {
		if !utxo.Spendable {
			continue
		}
		utxoAmount, err := btcutil.NewAmount(utxo.Amount)
		if err != nil {
			return nil, err
		}

		selected = append(selected, utxo)
		total += utxoAmount
		if total >= amount+fee {
			break
		}
	}
	if total < amount+fee {
		return nil, fmt.Errorf("%w: have %v, need %v",
			ErrInsufficientFunds, total, amount+fee)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	prevOuts := make([]*wire.TxOut, 0, len(selected))
	for _, utxo := range selected {
		txid, err := chainhash.NewHashFromStr(utxo.TxID)
		if err != nil {
			return nil, err
		}
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{
				Hash:  *txid,
				Index: utxo.Vout,
			},
			Sequence: fundingSequence,
		})

		utxoAmount, err := btcutil.NewAmount(utxo.Amount)
		if err != nil {
			return nil, err
		}
		utxoScript, err := hex.DecodeString(utxo.ScriptPubKey)
		if err != nil {
			return nil, err
		}
		prevOuts = append(prevOuts, wire.NewTxOut(
			int64(utxoAmount), utxoScript,
		))
	}

	tx.AddTxOut(wire.NewTxOut(int64(amount), pkScript))

	change := total - amount - fee
	if change > 0 {
		changeAddr, err := c.GetRawChangeAddress("")
		if err != nil {
			return nil, fmt.Errorf("unable to get change "+
				"address: %w", err)
		}
		changeScript, err := txscript.PayToAddrScript(changeAddr)
		if err != nil {
			return nil, err
		}
		changeOut := wire.NewTxOut(int64(change), changeScript)
		if !txrules.IsDustOutput(
			changeOut, txrules.DefaultRelayFeePerKb,
		) {
			tx.AddTxOut(changeOut)
		}
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("unable to build funding packet: %w",
			err)
	}
	for i, prevOut := range prevOuts {
		packet.Inputs[i].WitnessUtxo = prevOut
	}

	return packet, nil
}

// Fund pays amount to addr from the node wallet and broadcasts the result.
// The funding transaction is built as a PSBT and signed by the node wallet,
// standing in for the external co-signing flow a production pool would use.
func (c *RPCClient) Fund(addr btcutil.Address, amount,
	fee btcutil.Amount) (*chainhash.Hash, error) {

	packet, err := c.FundingPacket(addr, amount, fee)
	if err != nil {
		return nil, err
	}

	log.Infof("Funding %v to pool address %v (fee %v, %d inputs)",
		amount, addr, fee, len(packet.UnsignedTx.TxIn))

	signedTx, complete, err := c.SignRawTransactionWithWallet(
		packet.UnsignedTx,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to sign funding "+
			"transaction: %w", err)
	}
	if !complete {
		return nil, ErrIncompleteSignature
	}

	return c.Broadcast(signedTx)
}

// Broadcast submits the transaction to the network through the node.
func (c *RPCClient) Broadcast(tx *wire.MsgTx) (*chainhash.Hash, error) {
	txid, err := c.SendRawTransaction(tx, false)
	if err != nil {
		return nil, fmt.Errorf("broadcast rejected: %w", err)
	}

	log.Debugf("Broadcast transaction %v", txid)

	return txid, nil
}

// LookupOutputs returns the outputs of the given transaction in order.
func (c *RPCClient) LookupOutputs(txid *chainhash.Hash) ([]*wire.TxOut,
	error) {

	tx, err := c.GetRawTransaction(txid)
	if err != nil {
		return nil, fmt.Errorf("unable to look up transaction %v: %w",
			txid, err)
	}

	return tx.MsgTx().TxOut, nil
}

// Generate mines numBlocks blocks to a fresh wallet address.  Only test
// networks accept this.
func (c *RPCClient) Generate(numBlocks uint32) error {
	addr, err := c.GetNewAddress("")
	if err != nil {
		return err
	}

	_, err = c.GenerateToAddress(int64(numBlocks), addr, nil)
	return err
}
