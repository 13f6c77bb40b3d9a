// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import "github.com/btcsuite/ctvpool/netparams"

// activeNet is the currently active bitcoin network.  loadConfig sets it
// according to the network selection flags.
var activeNet = &netparams.MainNetParams
