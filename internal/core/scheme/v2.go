package scheme

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/encoding/base58"
)

// v2 is a legacy P2SH 2-of-2 multisig.
type v2 struct{}

func (v2) Version() domain.AddressVersion {
	return domain.AddressVersionV2
}

func (v2) Address(keys PublicKeys, net *chaincfg.Params) (string, error) {
	redeemScript, err := multisigScript(keys)
	if err != nil {
		return "", err
	}
	return base58.CheckEncode(hash160(redeemScript), net.ScriptHashAddrID), nil
}

func (v2) OutputScript(keys PublicKeys) ([]byte, error) {
	redeemScript, err := multisigScript(keys)
	if err != nil {
		return nil, err
	}
	return p2shScript(hash160(redeemScript))
}

func (v2) SigHash(
	tx *wire.MsgTx, index int, _ *domain.Input, _ *PrevOuts, keys PublicKeys,
) ([]byte, error) {
	redeemScript, err := multisigScript(keys)
	if err != nil {
		return nil, err
	}
	return txscript.CalcSignatureHash(redeemScript, txscript.SigHashAll, tx, index)
}

func (s v2) Sign(req SignRequest) (*PartySignature, error) {
	if err := req.validate(s.Version()); err != nil {
		return nil, err
	}
	sig, err := signECDSA(req.Key, req.Digest)
	if err != nil {
		return nil, err
	}
	return &PartySignature{Signature: sig}, nil
}

func (v2) SpendScript(keys PublicKeys, in *domain.Input) ([]byte, wire.TxWitness, error) {
	if !in.IsComplete() {
		return nil, nil, domain.ErrNotComplete
	}
	redeemScript, err := multisigScript(keys)
	if err != nil {
		return nil, nil, err
	}
	// OP_0 works around the off-by-one pop of CHECKMULTISIG.
	sigScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(in.UserSignature).
		AddData(in.ServiceSignature).
		AddData(redeemScript).
		Script()
	return sigScript, nil, err
}
