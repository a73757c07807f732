package scheme

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/encoding/base58"
)

// v3 nests a P2WSH 2-of-2 multisig inside P2SH.
type v3 struct{}

func (v3) Version() domain.AddressVersion {
	return domain.AddressVersionV3
}

// redeemScript is the P2WSH program pushed by the script sig.
func (v3) redeemScript(keys PublicKeys) ([]byte, []byte, error) {
	witnessScript, err := multisigScript(keys)
	if err != nil {
		return nil, nil, err
	}
	redeemScript, err := witnessProgramScript(0, p2wshProgram(witnessScript))
	if err != nil {
		return nil, nil, err
	}
	return redeemScript, witnessScript, nil
}

func (s v3) Address(keys PublicKeys, net *chaincfg.Params) (string, error) {
	redeemScript, _, err := s.redeemScript(keys)
	if err != nil {
		return "", err
	}
	return base58.CheckEncode(hash160(redeemScript), net.ScriptHashAddrID), nil
}

func (s v3) OutputScript(keys PublicKeys) ([]byte, error) {
	redeemScript, _, err := s.redeemScript(keys)
	if err != nil {
		return nil, err
	}
	return p2shScript(hash160(redeemScript))
}

func (v3) SigHash(
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

func (s v3) Sign(req SignRequest) (*PartySignature, error) {
	if err := req.validate(s.Version()); err != nil {
		return nil, err
	}
	sig, err := signECDSA(req.Key, req.Digest)
	if err != nil {
		return nil, err
	}
	return &PartySignature{Signature: sig}, nil
}

func (s v3) SpendScript(keys PublicKeys, in *domain.Input) ([]byte, wire.TxWitness, error) {
	redeemScript, witnessScript, err := s.redeemScript(keys)
	if err != nil {
		return nil, nil, err
	}
	witness, err := multisigWitness(in, witnessScript)
	if err != nil {
		return nil, nil, err
	}
	sigScript, err := txscript.NewScriptBuilder().AddData(redeemScript).Script()
	if err != nil {
		return nil, nil, err
	}
	return sigScript, witness, nil
}
