// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestAmountFlagUnmarshal asserts that amount flags read bare integers as
// satoshis and the " BTC" suffixed form as decimal bitcoin, and that the
// marshaled form round-trips.
func TestAmountFlagUnmarshal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value    string
		expected btcutil.Amount
		invalid  bool
	}{
		{value: "100000", expected: 100_000},
		{value: "546", expected: 546},
		{value: "0.001 BTC", expected: 100_000},
		{value: "1 BTC", expected: btcutil.SatoshiPerBitcoin},
		{value: "0.0001", invalid: true},
		{value: "bogus", invalid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			flag := NewAmountFlag(0)
			err := flag.UnmarshalFlag(tc.value)
			if tc.invalid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, flag.Amount)

			marshaled, err := flag.MarshalFlag()
			require.NoError(t, err)

			roundTrip := NewAmountFlag(0)
			require.NoError(t, roundTrip.UnmarshalFlag(marshaled))
			require.Equal(t, tc.expected, roundTrip.Amount)
		})
	}
}
