// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import "github.com/btcsuite/btcd/chaincfg"

// Params is used to group parameters for various networks such as the main
// network and test networks.
type Params struct {
	*chaincfg.Params
	RPCClientPort string
}

// MainNetParams contains parameters specific to running on the main network
// (wire.MainNet).  Note that OP_CHECKTEMPLATEVERIFY is not active on mainnet;
// this entry exists so address encoding can be exercised against mainnet
// parameters.
var MainNetParams = Params{
	Params:        &chaincfg.MainNetParams,
	RPCClientPort: "8332",
}

// TestNet3Params contains parameters specific to running on the test network
// (version 3) (wire.TestNet3).
var TestNet3Params = Params{
	Params:        &chaincfg.TestNet3Params,
	RPCClientPort: "18332",
}

// SigNetParams contains parameters specific to running on signet.  Custom
// signets (such as those with OP_CHECKTEMPLATEVERIFY deployed) share these
// parameters.
var SigNetParams = Params{
	Params:        &chaincfg.SigNetParams,
	RPCClientPort: "38332",
}

// RegressionNetParams contains parameters specific to running against a
// bitcoind regression test network, which is the network the pool daemon is
// normally exercised on.
var RegressionNetParams = Params{
	Params:        &chaincfg.RegressionNetParams,
	RPCClientPort: "18443",
}

// SimNetParams contains parameters specific to the simulation test network
// (wire.SimNet).
var SimNetParams = Params{
	Params:        &chaincfg.SimNetParams,
	RPCClientPort: "18554",
}
