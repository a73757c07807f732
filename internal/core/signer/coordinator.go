package signer

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// DigestSource computes the digest an input of a PST is signed over.
type DigestSource interface {
	SigHash(
		pst *domain.PartiallySignedTransaction, index int,
		userKey, serviceKey *wallet.HDPublicKey,
	) ([]byte, error)
}

// SigningKeys are the keys a party signs a PST with. Private belongs to the
// signing party and must be an ancestor of every input path. Nonces are the
// user's secret MuSig2 nonces, required only when the user signs V5 inputs.
// When Digests is set every signed digest is taken from it, otherwise it is
// computed by the input's scheme.
type SigningKeys struct {
	Private    *wallet.HDPrivateKey
	UserKey    *wallet.HDPublicKey
	ServiceKey *wallet.HDPublicKey
	Nonces     *scheme.MusigNonces
	Digests    DigestSource
}

func (k SigningKeys) digest(
	pst *domain.PartiallySignedTransaction, index int, in resolvedInput,
	prevOuts *scheme.PrevOuts,
) ([]byte, error) {
	if k.Digests != nil {
		return k.Digests.SigHash(pst, index, k.UserKey, k.ServiceKey)
	}
	return in.scheme.SigHash(pst.Tx, index, in.Input, prevOuts, in.keys)
}

func (k SigningKeys) validate() error {
	if k.Private == nil || k.UserKey == nil || k.ServiceKey == nil {
		return scheme.ErrNullKeys
	}
	return nil
}

// Coordinator adds party signatures to PSTs. It holds no state between
// calls, the PST carries the whole signing progress.
type Coordinator struct {
	network *chaincfg.Params
}

// NewCoordinator ...
func NewCoordinator(network *chaincfg.Params) (*Coordinator, error) {
	if network == nil {
		return nil, wallet.ErrNullNetwork
	}
	return &Coordinator{network}, nil
}

// AddPartySignatures signs every input of pst that party must sign. Every
// precondition is checked before the first signature is produced, so on
// error pst is left untouched.
func (c *Coordinator) AddPartySignatures(
	pst *domain.PartiallySignedTransaction, party domain.Party, keys SigningKeys,
) error {
	if !party.IsValid() {
		return fmt.Errorf("%w: %d", domain.ErrUnknownParty, party)
	}
	if err := keys.validate(); err != nil {
		return err
	}
	if err := pst.Validate(); err != nil {
		return err
	}

	toSign := make([]int, 0, len(pst.Inputs))
	for i, in := range pst.Inputs {
		if !in.Address.Version.IsSigner(party) {
			continue
		}
		if err := in.CanBeSignedBy(party); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if err := checkNonces(in, i, party, keys.Nonces); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		toSign = append(toSign, i)
	}
	if len(toSign) == 0 {
		log.Debugf("pst %s: nothing to sign for %s", pst.ID, party)
		return nil
	}

	inputs, prevOuts, err := resolveInputs(
		pst, c.network, keys.UserKey, keys.ServiceKey,
	)
	if err != nil {
		return err
	}

	sigs := make(map[int]*scheme.PartySignature, len(toSign))
	for _, i := range toSign {
		in := inputs[i]
		priv, err := privateKeyAt(keys.Private, in.Address.DerivationPath)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		digest, err := keys.digest(pst, i, in, prevOuts)
		if err != nil {
			return fmt.Errorf("input %d: failed to compute sighash: %w", i, err)
		}
		sig, err := in.scheme.Sign(scheme.SignRequest{
			Party:  party,
			Digest: digest,
			Key:    priv,
			Keys:   in.keys,
			Input:  in.Input,
			Nonces: keys.Nonces.At(i),
		})
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		sigs[i] = sig
	}

	for _, i := range toSign {
		in := pst.Inputs[i]
		if nonce := sigs[i].PublicNonce; len(nonce) > 0 {
			if err := in.AttachPublicNonce(party, nonce); err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
		}
		if err := in.AttachSignature(party, sigs[i].Signature); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	if err := applySpendScripts(pst.Tx, inputs); err != nil {
		return err
	}

	log.Debugf(
		"pst %s: %s signed %d inputs, state %s", pst.ID, party, len(toSign), pst.State(),
	)
	return nil
}

// PrepareNonces generates the user's MuSig2 nonces for every V5 input of pst
// and publishes their public part on the inputs. The returned secret nonces
// must be handed back to AddPartySignatures when the user signs.
func (c *Coordinator) PrepareNonces(
	pst *domain.PartiallySignedTransaction, userKey *wallet.HDPublicKey,
	rand io.Reader,
) (*scheme.MusigNonces, error) {
	if err := pst.Validate(); err != nil {
		return nil, err
	}
	if userKey == nil {
		return nil, scheme.ErrNullKeys
	}

	userKeys := make([]*btcec.PublicKey, len(pst.Inputs))
	for i, in := range pst.Inputs {
		if in.Address.Version != domain.AddressVersionV5 {
			continue
		}
		if len(in.UserPublicNonce) > 0 {
			return nil, fmt.Errorf("input %d: %w", i, domain.ErrNonceAlreadySet)
		}
		keys, err := deriveKeys(in.Address.DerivationPath, userKey, nil)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		userKeys[i] = keys.User
	}

	nonces, err := scheme.GenerateNonces(userKeys, rand)
	if err != nil {
		return nil, err
	}
	for i, in := range pst.Inputs {
		n := nonces.At(i)
		if n == nil {
			continue
		}
		if err := in.AttachPublicNonce(domain.PartyUser, n.PubNonce[:]); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nonces, nil
}

// FullySign signs pst with both private keys in the required order. It is
// meant for sweeps where a single holder owns both keys.
func (c *Coordinator) FullySign(
	pst *domain.PartiallySignedTransaction,
	userKey, serviceKey *wallet.HDPrivateKey, rand io.Reader,
) error {
	if userKey == nil || serviceKey == nil {
		return scheme.ErrNullKeys
	}
	userPub, servicePub := userKey.PublicKey(), serviceKey.PublicKey()

	nonces, err := c.PrepareNonces(pst, userPub, rand)
	if err != nil {
		return err
	}
	if err := c.AddPartySignatures(pst, domain.PartyService, SigningKeys{
		Private:    serviceKey,
		UserKey:    userPub,
		ServiceKey: servicePub,
	}); err != nil {
		return err
	}
	return c.AddPartySignatures(pst, domain.PartyUser, SigningKeys{
		Private:    userKey,
		UserKey:    userPub,
		ServiceKey: servicePub,
		Nonces:     nonces,
	})
}

func checkNonces(
	in *domain.Input, index int, party domain.Party, nonces *scheme.MusigNonces,
) error {
	if in.Address.Version != domain.AddressVersionV5 {
		return nil
	}
	if len(in.UserPublicNonce) == 0 {
		return fmt.Errorf("%w: user", domain.ErrMissingNonce)
	}
	if party == domain.PartyUser {
		if len(in.ServicePublicNonce) == 0 {
			return fmt.Errorf("%w: service", domain.ErrMissingNonce)
		}
		if nonces.At(index) == nil {
			return fmt.Errorf("%w: user secret nonce", domain.ErrMissingNonce)
		}
	}
	return nil
}

func privateKeyAt(key *wallet.HDPrivateKey, path string) (*btcec.PrivateKey, error) {
	derived, err := key.DeriveTo(path)
	if err != nil {
		return nil, err
	}
	return derived.ECPrivateKey()
}
