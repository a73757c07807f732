package signer

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/shopspring/decimal"
)

// Verifier checks that a PST does exactly what the signing expectations
// describe. It never mutates the PST.
type Verifier struct {
	network *chaincfg.Params
}

// NewVerifier ...
func NewVerifier(network *chaincfg.Params) (*Verifier, error) {
	if network == nil {
		return nil, wallet.ErrNullNetwork
	}
	return &Verifier{network}, nil
}

// Verify returns an *domain.ExpectationMismatchError describing the first
// difference between pst and exp. Validation errors are returned for
// malformed arguments.
func (v *Verifier) Verify(
	pst *domain.PartiallySignedTransaction, exp domain.SigningExpectations,
	userKey, serviceKey *wallet.HDPublicKey,
) error {
	if err := pst.Validate(); err != nil {
		return err
	}
	if err := exp.Validate(); err != nil {
		return err
	}
	if userKey == nil || serviceKey == nil {
		return scheme.ErrNullKeys
	}

	outputs := pst.Tx.TxOut
	maxOutputs := 1
	if exp.Change != nil {
		maxOutputs = 2
	}
	if len(outputs) > maxOutputs || (!exp.Alternative && len(outputs) != maxOutputs) {
		return mismatch(
			"output count", fmt.Sprint(maxOutputs), fmt.Sprint(len(outputs)),
		)
	}

	destinationScript, err := scheme.AddressToScript(exp.Destination, v.network)
	if err != nil {
		return err
	}
	var changeScript []byte
	if exp.Change != nil {
		if changeScript, err = v.changeScript(exp.Change, userKey, serviceKey); err != nil {
			return err
		}
	}

	var destination, change *wire.TxOut
	for _, out := range outputs {
		if bytes.Equal(out.PkScript, destinationScript) {
			destination = out
		} else if changeScript != nil && bytes.Equal(out.PkScript, changeScript) {
			change = out
		}
	}

	// An alternative transaction pays less than Amount to the destination,
	// or nothing at all, and the difference goes to fees.
	expectedFee := exp.Fee
	switch {
	case exp.Alternative:
		if destination == nil && change == nil {
			return mismatch("destination", exp.Destination, describeScripts(outputs))
		}
		if destination != nil && destination.Value >= exp.Amount {
			return mismatch(
				"amount", "less than "+formatAmount(exp.Amount),
				formatAmount(destination.Value),
			)
		}
		if (destination == nil || change == nil) && len(outputs) > 1 {
			return mismatch("output count", "1", fmt.Sprint(len(outputs)))
		}
		if destination == nil {
			expectedFee += exp.Amount
		} else {
			expectedFee += exp.Amount - destination.Value
		}
	case destination == nil:
		return mismatch("destination", exp.Destination, describeScripts(outputs))
	case destination.Value != exp.Amount:
		return mismatch("amount", formatAmount(exp.Amount), formatAmount(destination.Value))
	}

	if exp.Change != nil {
		if change == nil {
			return mismatch("change", exp.Change.Address, describeScripts(outputs))
		}
		expectedChange := pst.InputsAmount() - exp.Amount - exp.Fee
		if change.Value != expectedChange {
			return mismatch(
				"change amount", formatAmount(expectedChange), formatAmount(change.Value),
			)
		}
	}

	if fee := pst.Fee(); fee != expectedFee {
		return mismatch("fee", formatAmount(expectedFee), formatAmount(fee))
	}
	return nil
}

// changeScript checks that the change address is the one userKey and
// serviceKey derive at its path and returns its output script.
func (v *Verifier) changeScript(
	change *domain.MuunAddress, userKey, serviceKey *wallet.HDPublicKey,
) ([]byte, error) {
	s, err := scheme.For(change.Version)
	if err != nil {
		return nil, err
	}
	keys, err := deriveKeys(change.DerivationPath, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	addr, err := s.Address(keys, v.network)
	if err != nil {
		return nil, err
	}
	if addr != change.Address {
		return nil, mismatch("change address", change.Address, addr)
	}
	return s.OutputScript(keys)
}

func describeScripts(outputs []*wire.TxOut) string {
	var b bytes.Buffer
	for i, out := range outputs {
		if i > 0 {
			b.WriteString(",")
		}
		if out == nil {
			b.WriteString("none")
			continue
		}
		b.WriteString(hex.EncodeToString(out.PkScript))
	}
	return b.String()
}

func formatAmount(sats int64) string {
	return fmt.Sprintf("%s BTC (%d sats)", decimal.New(sats, -8).StringFixed(8), sats)
}

func mismatch(field, expected, actual string) error {
	return &domain.ExpectationMismatchError{
		Field:    field,
		Expected: expected,
		Actual:   actual,
	}
}
