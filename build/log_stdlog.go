// Copyright (c) 2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build stdlog
// +build stdlog

package build

// LoggingType writes all logs directly to stdout. Used in unit tests.
const LoggingType = LogTypeStdOut
