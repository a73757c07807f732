package scheme

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/encoding/bech32"
)

// v4 is a native P2WSH 2-of-2 multisig.
type v4 struct{}

func (v4) Version() domain.AddressVersion {
	return domain.AddressVersionV4
}

func (v4) Address(keys PublicKeys, net *chaincfg.Params) (string, error) {
	witnessScript, err := multisigScript(keys)
	if err != nil {
		return "", err
	}
	return bech32.EncodeSegwitAddress(
		net.Bech32HRPSegwit, 0, p2wshProgram(witnessScript),
	)
}

func (v4) OutputScript(keys PublicKeys) ([]byte, error) {
	witnessScript, err := multisigScript(keys)
	if err != nil {
		return nil, err
	}
	return witnessProgramScript(0, p2wshProgram(witnessScript))
}

func (v4) SigHash(
	tx *wire.MsgTx, index int, in *domain.Input, prevOuts *PrevOuts,
	keys PublicKeys,
) ([]byte, error) {
	witnessScript, err := multisigScript(keys)
	if err != nil {
		return nil, err
	}
	return txscript.CalcWitnessSigHash(
		witnessScript, prevOuts.Hashes, txscript.SigHashAll, tx, index, in.Amount,
	)
}

func (s v4) Sign(req SignRequest) (*PartySignature, error) {
	if err := req.validate(s.Version()); err != nil {
		return nil, err
	}
	sig, err := signECDSA(req.Key, req.Digest)
	if err != nil {
		return nil, err
	}
	return &PartySignature{Signature: sig}, nil
}

func (v4) SpendScript(keys PublicKeys, in *domain.Input) ([]byte, wire.TxWitness, error) {
	witnessScript, err := multisigScript(keys)
	if err != nil {
		return nil, nil, err
	}
	witness, err := multisigWitness(in, witnessScript)
	if err != nil {
		return nil, nil, err
	}
	return nil, witness, nil
}
