package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Outpoint references the previous output spent by an input.
type Outpoint struct {
	TxID   chainhash.Hash
	Index  uint32
	Amount int64
}

// WireOutPoint ...
func (o Outpoint) WireOutPoint() wire.OutPoint {
	return wire.OutPoint{Hash: o.TxID, Index: o.Index}
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}

// Input is a spendable outpoint with the metadata required to sign it.
// Each party's signature starts empty and is filled exactly once.
type Input struct {
	Outpoint
	Address MuunAddress

	UserSignature    []byte
	ServiceSignature []byte

	// Public nonces exchanged by the parties of a MuSig2 session.
	UserPublicNonce    []byte
	ServicePublicNonce []byte
}

// Signature returns the signature of the given party, nil if missing.
func (i *Input) Signature(p Party) []byte {
	switch p {
	case PartyUser:
		return i.UserSignature
	case PartyService:
		return i.ServiceSignature
	default:
		return nil
	}
}

// HasSigned ...
func (i *Input) HasSigned(p Party) bool {
	return len(i.Signature(p)) > 0
}

// AttachSignature stores the party signature. It never overwrites.
func (i *Input) AttachSignature(p Party, sig []byte) error {
	if !p.IsValid() {
		return ErrUnknownParty
	}
	if len(sig) <= 0 {
		return fmt.Errorf("%w: empty signature", ErrValidation)
	}
	if i.HasSigned(p) {
		return fmt.Errorf("%w: %s on %s", ErrAlreadySigned, p, i.Outpoint)
	}
	buf := append([]byte(nil), sig...)
	if p == PartyUser {
		i.UserSignature = buf
	} else {
		i.ServiceSignature = buf
	}
	return nil
}

// PublicNonce returns the MuSig2 public nonce of the given party.
func (i *Input) PublicNonce(p Party) []byte {
	switch p {
	case PartyUser:
		return i.UserPublicNonce
	case PartyService:
		return i.ServicePublicNonce
	default:
		return nil
	}
}

// AttachPublicNonce stores the party MuSig2 public nonce. It never overwrites.
func (i *Input) AttachPublicNonce(p Party, nonce []byte) error {
	if !p.IsValid() {
		return ErrUnknownParty
	}
	if len(i.PublicNonce(p)) > 0 {
		return fmt.Errorf("%w: %s on %s", ErrNonceAlreadySet, p, i.Outpoint)
	}
	buf := append([]byte(nil), nonce...)
	if p == PartyUser {
		i.UserPublicNonce = buf
	} else {
		i.ServicePublicNonce = buf
	}
	return nil
}

// MissingSignatures returns the required signers that haven't signed yet, in
// signing order.
func (i *Input) MissingSignatures() []Party {
	missing := make([]Party, 0, 2)
	for _, p := range i.Address.Version.Signers() {
		if !i.HasSigned(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// IsComplete ...
func (i *Input) IsComplete() bool {
	return len(i.MissingSignatures()) == 0
}

// CanBeSignedBy returns nil if p is due to sign next, ErrSigningOrder when a
// preceding signer is missing and ErrAlreadySigned on double signing.
func (i *Input) CanBeSignedBy(p Party) error {
	if i.HasSigned(p) {
		return fmt.Errorf("%w: %s on %s", ErrAlreadySigned, p, i.Outpoint)
	}
	for _, signer := range i.Address.Version.Signers() {
		if signer == p {
			return nil
		}
		if !i.HasSigned(signer) {
			return fmt.Errorf(
				"%w: %s must sign %s before %s", ErrSigningOrder, signer, i.Outpoint, p,
			)
		}
	}
	return nil
}
