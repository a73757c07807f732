package scheme

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/encoding/base58"
)

// v1 pays to the hash of the user key. The service never signs.
type v1 struct{}

func (v1) Version() domain.AddressVersion {
	return domain.AddressVersionV1
}

func (v1) Address(keys PublicKeys, net *chaincfg.Params) (string, error) {
	if err := keys.validate(false); err != nil {
		return "", err
	}
	return base58.CheckEncode(
		hash160(keys.User.SerializeCompressed()), net.PubKeyHashAddrID,
	), nil
}

func (v1) OutputScript(keys PublicKeys) ([]byte, error) {
	if err := keys.validate(false); err != nil {
		return nil, err
	}
	return p2pkhScript(hash160(keys.User.SerializeCompressed()))
}

func (s v1) SigHash(
	tx *wire.MsgTx, index int, _ *domain.Input, _ *PrevOuts, keys PublicKeys,
) ([]byte, error) {
	script, err := s.OutputScript(keys)
	if err != nil {
		return nil, err
	}
	return txscript.CalcSignatureHash(script, txscript.SigHashAll, tx, index)
}

func (s v1) Sign(req SignRequest) (*PartySignature, error) {
	if err := req.validate(s.Version()); err != nil {
		return nil, err
	}
	sig, err := signECDSA(req.Key, req.Digest)
	if err != nil {
		return nil, err
	}
	return &PartySignature{Signature: sig}, nil
}

func (v1) SpendScript(keys PublicKeys, in *domain.Input) ([]byte, wire.TxWitness, error) {
	if !in.IsComplete() {
		return nil, nil, domain.ErrNotComplete
	}
	if err := keys.validate(false); err != nil {
		return nil, nil, err
	}
	sigScript, err := txscript.NewScriptBuilder().
		AddData(in.UserSignature).
		AddData(keys.User.SerializeCompressed()).
		Script()
	return sigScript, nil, err
}
