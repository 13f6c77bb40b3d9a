// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcsuite/ctvpool/chain"
	"github.com/btcsuite/ctvpool/pool"
)

var cfg *config

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Work around defer not working after os.Exit.
	if err := poolMain(); err != nil {
		os.Exit(1)
	}
}

// poolMain is a work-around main function that is required since deferred
// functions (such as log flushing) are not called with calls to os.Exit.
// Instead, main runs this function and checks for a non-nil error, at which
// point any defers have already run, and if the error is non-nil, the
// program can be exited with an error exit status.
func poolMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Arm the interrupt handler so a Ctrl+C between settlement steps
	// shuts down cleanly instead of mid-broadcast.
	addInterruptHandler(func() {
		log.Info("Stopping after the current settlement step...")
	})

	// Read certificate file if TLS is not disabled.
	var certs []byte
	if !cfg.DisableClientTLS {
		certs, err = os.ReadFile(cfg.CAFile)
		if err != nil {
			log.Errorf("Cannot open CA file: %v", err)
			return err
		}
	}

	rpc, err := chain.NewRPCClient(
		activeNet.Params, cfg.RPCConnect, cfg.RPCUser, cfg.RPCPass,
		certs, cfg.DisableClientTLS,
	)
	if err != nil {
		log.Errorf("Cannot create RPC client: %v", err)
		return err
	}
	defer rpc.Shutdown()

	numUsers := cfg.PoolUsers
	deposit := btcutil.Amount(numUsers) * cfg.Amount.Amount

	log.Infof("Creating pool with %d %s on %s, per-user share %v", numUsers,
		pickNoun(numUsers, "user", "users"), activeNet.Params.Name,
		cfg.Amount.Amount)

	// On regtest, make sure the wallet holds mature coins covering the
	// deposit before anything else.
	if cfg.RegTest {
		balance, err := rpc.Balance()
		if err != nil {
			return err
		}
		if balance < deposit+cfg.Fee.Amount {
			log.Infof("Wallet balance %v below pool deposit %v, "+
				"mining 101 blocks", balance, deposit)
			if err := rpc.Generate(101); err != nil {
				return err
			}
		}
	}

	// Every participant withdraws to a fresh wallet address.
	participants := make([]*pool.Participant, numUsers)
	for i := range participants {
		addr, err := rpc.NewWithdrawAddress()
		if err != nil {
			return fmt.Errorf("unable to get withdraw address: %w",
				err)
		}
		participant, err := pool.NewParticipant(uint32(i), addr)
		if err != nil {
			return err
		}
		participants[i] = participant
		log.Infof("Participant %d withdraw address: %v", i, addr)
	}

	// Build the full covenant tree before any coin moves.  This is the
	// pre-commitment: once the root is funded, the transactions below
	// are the only way pool funds can ever move.
	tree, err := pool.BuildTree(&pool.Params{
		ChainParams:  activeNet.Params,
		Participants: participants,
		Amount:       cfg.Amount.Amount,
		Fee:          cfg.Fee.Amount,
		Dust:         cfg.Dust.Amount,
	})
	if err != nil {
		log.Errorf("Cannot build pool tree: %v", err)
		return err
	}

	root := tree.Root()
	log.Infof("Pool address: %v (deposit %v)", root.Address, root.Value)

	// When requested, emit the unsigned funding PSBT for external
	// signers and stop; no pool coin moves in this mode.
	if cfg.PsbtOut != "" {
		packet, err := rpc.FundingPacket(
			root.Address, root.Value, cfg.Fee.Amount,
		)
		if err != nil {
			return err
		}
		b64, err := packet.B64Encode()
		if err != nil {
			return err
		}
		err = os.WriteFile(cfg.PsbtOut, []byte(b64+"\n"), 0600)
		if err != nil {
			return err
		}
		log.Infof("Wrote unsigned funding PSBT to %s", cfg.PsbtOut)
		return nil
	}

	fundingTxid, err := rpc.Fund(root.Address, root.Value, cfg.Fee.Amount)
	if err != nil {
		log.Errorf("Cannot fund pool: %v", err)
		return err
	}
	log.Infof("Pool funding transaction: %v", fundingTxid)

	if cfg.RegTest {
		if err := rpc.Generate(1); err != nil {
			return err
		}
	}

	// Locate the pool output inside the funding transaction.
	outputs, err := rpc.LookupOutputs(fundingTxid)
	if err != nil {
		return err
	}
	vout, err := pool.FindFundingOutput(outputs, root)
	if err != nil {
		return err
	}

	resolver := pool.NewResolver(tree, rpc, wire.OutPoint{
		Hash:  *fundingTxid,
		Index: vout,
	})

	// Walk the withdrawals in ascending index order.  Any other
	// permutation would settle just as well; the tree covers them all.
	for i := 0; i < numUsers-1; i++ {
		if interrupted() {
			log.Infof("Shutdown requested, pool remains "+
				"spendable at %v", resolver.Outpoint())
			return nil
		}

		txid, err := resolver.Withdraw(uint32(i))
		if err != nil {
			log.Errorf("Withdrawal for participant %d failed: %v",
				i, err)
			return err
		}
		log.Infof("Withdrawal %d/%d confirmed in txid %v", i+1,
			numUsers-1, txid)

		if cfg.RegTest {
			if err := rpc.Generate(1); err != nil {
				return err
			}
		}
	}

	log.Infof("Pool fully settled: %d %s withdrawn in %d transactions",
		numUsers, pickNoun(numUsers, "share", "shares"), numUsers-1)

	return nil
}
