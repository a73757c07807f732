// Package scheme maps each address version to its address derivation,
// signature digest, signing and spend script rules.
package scheme

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
)

var (
	// ErrNullKeys ...
	ErrNullKeys = fmt.Errorf("%w: user and service keys are required", domain.ErrValidation)
	// ErrKeyMismatch is returned when the signing key doesn't belong to the
	// party it signs for.
	ErrKeyMismatch = fmt.Errorf(
		"%w: signing key doesn't match the party public key", domain.ErrPrecondition,
	)
	// ErrNotASigner ...
	ErrNotASigner = fmt.Errorf(
		"%w: party doesn't sign inputs of this version", domain.ErrPrecondition,
	)
	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("produced signature doesn't verify")
	// ErrInvalidDigest ...
	ErrInvalidDigest = fmt.Errorf("%w: digest must be 32 bytes", domain.ErrValidation)
	// ErrUnknownAddress ...
	ErrUnknownAddress = fmt.Errorf("%w: unknown address format", domain.ErrValidation)
)

// Scheme groups the rules of one address version. Every version in
// domain.AddressVersions has exactly one implementation returned by For.
type Scheme interface {
	Version() domain.AddressVersion
	// Address returns the encoded address for the keys derived at the
	// address path.
	Address(keys PublicKeys, net *chaincfg.Params) (string, error)
	// OutputScript returns the pkScript paying to the keys.
	OutputScript(keys PublicKeys) ([]byte, error)
	// SigHash returns the digest the signers of input index must sign.
	SigHash(
		tx *wire.MsgTx, index int, in *domain.Input, prevOuts *PrevOuts,
		keys PublicKeys,
	) ([]byte, error)
	// Sign produces the party's signature over a digest returned by SigHash.
	Sign(req SignRequest) (*PartySignature, error)
	// SpendScript builds the script sig and witness of a completely signed
	// input.
	SpendScript(keys PublicKeys, in *domain.Input) ([]byte, wire.TxWitness, error)
}

var (
	_ Scheme = v1{}
	_ Scheme = v2{}
	_ Scheme = v3{}
	_ Scheme = v4{}
	_ Scheme = v5{}
)

// For returns the scheme of the given version.
func For(version domain.AddressVersion) (Scheme, error) {
	switch version {
	case domain.AddressVersionV1:
		return v1{}, nil
	case domain.AddressVersionV2:
		return v2{}, nil
	case domain.AddressVersionV3:
		return v3{}, nil
	case domain.AddressVersionV4:
		return v4{}, nil
	case domain.AddressVersionV5:
		return v5{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedVersion, version)
	}
}

// PublicKeys are the user and service keys derived at an address path.
// Service is nil for V1.
type PublicKeys struct {
	User    *btcec.PublicKey
	Service *btcec.PublicKey
}

func (k PublicKeys) validate(requireService bool) error {
	if k.User == nil || (requireService && k.Service == nil) {
		return ErrNullKeys
	}
	return nil
}

func (k PublicKeys) of(party domain.Party) *btcec.PublicKey {
	if party == domain.PartyService {
		return k.Service
	}
	return k.User
}

// PrevOuts gives access to every output spent by a transaction, as required
// by the segwit and taproot digest algorithms.
type PrevOuts struct {
	Fetcher txscript.PrevOutputFetcher
	Hashes  *txscript.TxSigHashes
}

// NewPrevOuts ...
func NewPrevOuts(tx *wire.MsgTx, outs map[wire.OutPoint]*wire.TxOut) *PrevOuts {
	fetcher := txscript.NewMultiPrevOutFetcher(outs)
	return &PrevOuts{
		Fetcher: fetcher,
		Hashes:  txscript.NewTxSigHashes(tx, fetcher),
	}
}

// SignRequest carries everything a party needs to sign one input.
type SignRequest struct {
	Party  domain.Party
	Digest []byte
	Key    *btcec.PrivateKey
	Keys   PublicKeys
	Input  *domain.Input
	// Nonces are the user's secret MuSig2 nonces for this input. Only used
	// by V5 user signatures.
	Nonces *musig2.Nonces
}

func (r SignRequest) validate(version domain.AddressVersion) error {
	if !version.IsSigner(r.Party) {
		return fmt.Errorf("%w: %s on %s", ErrNotASigner, r.Party, version)
	}
	if len(r.Digest) != 32 {
		return ErrInvalidDigest
	}
	if r.Key == nil {
		return ErrKeyMismatch
	}
	if err := r.Keys.validate(version != domain.AddressVersionV1); err != nil {
		return err
	}
	if !r.Key.PubKey().IsEqual(r.Keys.of(r.Party)) {
		return ErrKeyMismatch
	}
	return nil
}

// PartySignature is what a party contributes to an input. PublicNonce is
// only set by the service on MuSig2 inputs.
type PartySignature struct {
	Signature   []byte
	PublicNonce []byte
}
