package signer

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/pkg/wallet"
)

// ErrInputIndexOutOfRange ...
var ErrInputIndexOutOfRange = fmt.Errorf("%w: input index out of range", domain.ErrValidation)

// Engine is the primary implementation of ports.Engine, built on the
// scheme registry.
type Engine struct {
	network *chaincfg.Params
}

// NewEngine ...
func NewEngine(network *chaincfg.Params) (ports.Engine, error) {
	if network == nil {
		return nil, wallet.ErrNullNetwork
	}
	return &Engine{network}, nil
}

func (e *Engine) DeriveAddress(
	version domain.AddressVersion, userKey, serviceKey *wallet.HDPublicKey,
) (*domain.MuunAddress, error) {
	s, err := scheme.For(version)
	if err != nil {
		return nil, err
	}
	if userKey == nil {
		return nil, scheme.ErrNullKeys
	}

	keys, err := deriveKeys(userKey.Path, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	addr, err := s.Address(keys, e.network)
	if err != nil {
		return nil, err
	}
	return &domain.MuunAddress{
		Version:        version,
		DerivationPath: userKey.Path,
		Address:        addr,
	}, nil
}

func (e *Engine) DerivePublicKey(
	key *wallet.HDPublicKey, path string,
) ([]byte, error) {
	if key == nil {
		return nil, scheme.ErrNullKeys
	}
	derived, err := key.DeriveTo(path)
	if err != nil {
		return nil, err
	}
	pub, err := derived.ECPublicKey()
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}

func (e *Engine) SigHash(
	pst *domain.PartiallySignedTransaction, index int,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]byte, error) {
	inputs, prevOuts, err := resolveInputs(pst, e.network, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(inputs) {
		return nil, fmt.Errorf("%w: %d", ErrInputIndexOutOfRange, index)
	}
	in := inputs[index]
	return in.scheme.SigHash(pst.Tx, index, in.Input, prevOuts, in.keys)
}

func (e *Engine) Finalize(
	pst *domain.PartiallySignedTransaction,
	userKey, serviceKey *wallet.HDPublicKey,
) (*domain.Transaction, error) {
	inputs, _, err := resolveInputs(pst, e.network, userKey, serviceKey)
	if err != nil {
		return nil, err
	}
	if missing := pst.MissingSignatures(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotComplete, missing)
	}

	tx := pst.Tx.Copy()
	if err := applySpendScripts(tx, inputs); err != nil {
		return nil, err
	}
	return domain.NewTransaction(tx)
}
