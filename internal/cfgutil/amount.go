// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

// AmountFlag embeds a btcutil.Amount and implements the flags.Marshaler and
// Unmarshaler interfaces so it can be used as a config struct field.
type AmountFlag struct {
	btcutil.Amount
}

// NewAmountFlag creates an AmountFlag with a default btcutil.Amount.
func NewAmountFlag(defaultValue btcutil.Amount) *AmountFlag {
	return &AmountFlag{defaultValue}
}

// MarshalFlag satisfies the flags.Marshaler interface.
func (a *AmountFlag) MarshalFlag() (string, error) {
	return a.Amount.String(), nil
}

// UnmarshalFlag satisfies the flags.Unmarshaler interface.  Bare integers
// are read as satoshis, matching the denomination of the pool amount flags;
// values carrying a " BTC" suffix are read as decimal bitcoin.
func (a *AmountFlag) UnmarshalFlag(value string) error {
	if btc := strings.TrimSuffix(value, " BTC"); btc != value {
		valueF64, err := strconv.ParseFloat(btc, 64)
		if err != nil {
			return err
		}
		amount, err := btcutil.NewAmount(valueF64)
		if err != nil {
			return err
		}
		a.Amount = amount
		return nil
	}

	sats, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return err
	}
	a.Amount = btcutil.Amount(sats)
	return nil
}
