package scheme

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/encoding/bech32"
)

// v5 is a taproot key path spend of the MuSig2 aggregation of the user and
// service keys, tweaked as in BIP86. The service contributes a partial
// signature and its public nonce, the user combines both into the final
// schnorr signature.
type v5 struct{}

func (v5) Version() domain.AddressVersion {
	return domain.AddressVersionV5
}

func (s v5) Address(keys PublicKeys, net *chaincfg.Params) (string, error) {
	outputKey, err := TaprootOutputKey(keys)
	if err != nil {
		return "", err
	}
	return bech32.EncodeSegwitAddress(
		net.Bech32HRPSegwit, 1, schnorr.SerializePubKey(outputKey),
	)
}

func (v5) OutputScript(keys PublicKeys) ([]byte, error) {
	outputKey, err := TaprootOutputKey(keys)
	if err != nil {
		return nil, err
	}
	return witnessProgramScript(1, schnorr.SerializePubKey(outputKey))
}

func (v5) SigHash(
	tx *wire.MsgTx, index int, _ *domain.Input, prevOuts *PrevOuts,
	_ PublicKeys,
) ([]byte, error) {
	return txscript.CalcTaprootSignatureHash(
		prevOuts.Hashes, txscript.SigHashAll, tx, index, prevOuts.Fetcher,
	)
}

func (s v5) Sign(req SignRequest) (*PartySignature, error) {
	if err := req.validate(s.Version()); err != nil {
		return nil, err
	}

	var msg [32]byte
	copy(msg[:], req.Digest)

	ctx, err := musig2.NewContext(
		req.Key, false,
		musig2.WithKnownSigners(signerKeys(req.Keys)),
		musig2.WithBip86TweakCtx(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create musig context: %w", err)
	}

	if req.Party == domain.PartyService {
		return s.signFirst(ctx, msg, req.Input)
	}
	return s.signSecond(ctx, msg, req)
}

// signFirst produces the service partial signature against the user public
// nonce published on the input.
func (v5) signFirst(
	ctx *musig2.Context, msg [32]byte, in *domain.Input,
) (*PartySignature, error) {
	userNonce, err := toPubNonce(in.UserPublicNonce)
	if err != nil {
		return nil, err
	}

	session, err := ctx.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create musig session: %w", err)
	}
	if _, err := session.RegisterPubNonce(userNonce); err != nil {
		return nil, fmt.Errorf("failed to register user nonce: %w", err)
	}
	partialSig, err := session.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	var buf bytes.Buffer
	if err := partialSig.Encode(&buf); err != nil {
		return nil, err
	}
	pubNonce := session.PublicNonce()
	return &PartySignature{
		Signature:   buf.Bytes(),
		PublicNonce: pubNonce[:],
	}, nil
}

// signSecond completes the signature with the user secret nonce and the
// service partial signature.
func (v5) signSecond(
	ctx *musig2.Context, msg [32]byte, req SignRequest,
) (*PartySignature, error) {
	in := req.Input
	if req.Nonces == nil {
		return nil, fmt.Errorf("%w: user secret nonce", domain.ErrMissingNonce)
	}
	if !bytes.Equal(req.Nonces.PubNonce[:], in.UserPublicNonce) {
		return nil, fmt.Errorf(
			"%w: user secret nonce doesn't match the published one",
			domain.ErrPrecondition,
		)
	}
	serviceNonce, err := toPubNonce(in.ServicePublicNonce)
	if err != nil {
		return nil, err
	}

	servicePartialSig := new(musig2.PartialSignature)
	if err := servicePartialSig.Decode(
		bytes.NewReader(in.ServiceSignature),
	); err != nil {
		return nil, fmt.Errorf("failed to decode service partial signature: %w", err)
	}

	session, err := ctx.NewSession(musig2.WithPreGeneratedNonce(req.Nonces))
	if err != nil {
		return nil, fmt.Errorf("failed to create musig session: %w", err)
	}
	if _, err := session.RegisterPubNonce(serviceNonce); err != nil {
		return nil, fmt.Errorf("failed to register service nonce: %w", err)
	}
	if _, err := session.Sign(msg); err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	haveFinal, err := session.CombineSig(servicePartialSig)
	if err != nil {
		return nil, fmt.Errorf("failed to combine signatures: %w", err)
	}
	if !haveFinal {
		return nil, fmt.Errorf("not enough partial signatures to finalize")
	}

	outputKey, err := TaprootOutputKey(req.Keys)
	if err != nil {
		return nil, err
	}
	finalSig := session.FinalSig()
	if !finalSig.Verify(msg[:], outputKey) {
		return nil, ErrInvalidSignature
	}

	return &PartySignature{
		Signature: append(finalSig.Serialize(), byte(txscript.SigHashAll)),
	}, nil
}

func (v5) SpendScript(_ PublicKeys, in *domain.Input) ([]byte, wire.TxWitness, error) {
	if !in.IsComplete() {
		return nil, nil, domain.ErrNotComplete
	}
	return nil, wire.TxWitness{in.UserSignature}, nil
}

// TaprootOutputKey returns the BIP86 tweaked MuSig2 aggregation of the user
// and service keys, in this order.
func TaprootOutputKey(keys PublicKeys) (*btcec.PublicKey, error) {
	if err := keys.validate(true); err != nil {
		return nil, err
	}
	aggKey, _, _, err := musig2.AggregateKeys(
		signerKeys(keys), false, musig2.WithBIP86KeyTweak(),
	)
	if err != nil {
		return nil, err
	}
	return aggKey.FinalKey, nil
}

func signerKeys(keys PublicKeys) []*btcec.PublicKey {
	return []*btcec.PublicKey{keys.User, keys.Service}
}

func toPubNonce(b []byte) ([musig2.PubNonceSize]byte, error) {
	var nonce [musig2.PubNonceSize]byte
	if len(b) == 0 {
		return nonce, domain.ErrMissingNonce
	}
	if len(b) != musig2.PubNonceSize {
		return nonce, fmt.Errorf(
			"%w: public nonce must be %d bytes, got %d",
			domain.ErrValidation, musig2.PubNonceSize, len(b),
		)
	}
	copy(nonce[:], b)
	return nonce, nil
}
