// Package signer coordinates the signatures of both parties over a PST,
// checks a transaction against the intent it must fulfill and implements the
// primary engine.
package signer

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/pkg/wallet"
)

// ErrAddressMismatch is returned when the keys derived at an input path
// don't produce the address the input claims to spend from.
var ErrAddressMismatch = fmt.Errorf(
	"%w: derived address doesn't match input address", domain.ErrValidation,
)

// deriveKeys derives user and service keys at path. The service key is
// optional since V1 doesn't use it.
func deriveKeys(
	path string, userKey, serviceKey *wallet.HDPublicKey,
) (scheme.PublicKeys, error) {
	var keys scheme.PublicKeys
	if userKey == nil {
		return keys, scheme.ErrNullKeys
	}

	user, err := userKey.DeriveTo(path)
	if err != nil {
		return keys, fmt.Errorf("failed to derive user key: %w", err)
	}
	if keys.User, err = user.ECPublicKey(); err != nil {
		return keys, err
	}

	if serviceKey != nil {
		service, err := serviceKey.DeriveTo(path)
		if err != nil {
			return keys, fmt.Errorf("failed to derive service key: %w", err)
		}
		if keys.Service, err = service.ECPublicKey(); err != nil {
			return keys, err
		}
	}
	return keys, nil
}

// resolvedInput is an input together with its scheme and derived keys.
type resolvedInput struct {
	*domain.Input
	scheme scheme.Scheme
	keys   scheme.PublicKeys
}

// resolveInputs derives the keys of every input, checks they produce the
// address of the input and returns the outputs spent by the transaction.
func resolveInputs(
	pst *domain.PartiallySignedTransaction, net *chaincfg.Params,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]resolvedInput, *scheme.PrevOuts, error) {
	if err := pst.Validate(); err != nil {
		return nil, nil, err
	}

	resolved := make([]resolvedInput, 0, len(pst.Inputs))
	for i, in := range pst.Inputs {
		s, err := scheme.For(in.Address.Version)
		if err != nil {
			return nil, nil, fmt.Errorf("input %d: %w", i, err)
		}
		keys, err := deriveKeys(in.Address.DerivationPath, userKey, serviceKey)
		if err != nil {
			return nil, nil, fmt.Errorf("input %d: %w", i, err)
		}
		addr, err := s.Address(keys, net)
		if err != nil {
			return nil, nil, fmt.Errorf("input %d: %w", i, err)
		}
		if addr != in.Address.Address {
			return nil, nil, fmt.Errorf(
				"%w: input %d expected %s, derived %s",
				ErrAddressMismatch, i, in.Address.Address, addr,
			)
		}
		resolved = append(resolved, resolvedInput{in, s, keys})
	}

	outs, err := pst.PrevOuts(func(in *domain.Input) ([]byte, error) {
		for _, r := range resolved {
			if r.Input == in {
				return r.scheme.OutputScript(r.keys)
			}
		}
		return nil, domain.ErrInputsMismatch
	})
	if err != nil {
		return nil, nil, err
	}
	return resolved, scheme.NewPrevOuts(pst.Tx, outs), nil
}

// applySpendScripts writes script sig and witness of every complete input
// into tx.
func applySpendScripts(tx *wire.MsgTx, inputs []resolvedInput) error {
	for i, in := range inputs {
		if !in.IsComplete() {
			continue
		}
		sigScript, witness, err := in.scheme.SpendScript(in.keys, in.Input)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = sigScript
		tx.TxIn[i].Witness = witness
	}
	return nil
}
