package scheme

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/encoding/base58"
	"github.com/muun/cosigner/pkg/encoding/bech32"
)

// multisigScript is the 2-of-2 script shared by V2, V3 and V4. The user key
// always comes first.
func multisigScript(keys PublicKeys) ([]byte, error) {
	if err := keys.validate(true); err != nil {
		return nil, err
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_2).
		AddData(keys.User.SerializeCompressed()).
		AddData(keys.Service.SerializeCompressed()).
		AddOp(txscript.OP_2).
		AddOp(txscript.OP_CHECKMULTISIG).
		Script()
}

func p2pkhScript(pubKeyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func p2shScript(scriptHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

func witnessProgramScript(version byte, program []byte) ([]byte, error) {
	op := byte(txscript.OP_0)
	if version > 0 {
		op = txscript.OP_1 + version - 1
	}
	return txscript.NewScriptBuilder().
		AddOp(op).
		AddData(program).
		Script()
}

// p2wshProgram returns the witness v0 program committing to witnessScript.
func p2wshProgram(witnessScript []byte) []byte {
	h := sha256.Sum256(witnessScript)
	return h[:]
}

// AddressToScript returns the pkScript an address pays to. Segwit addresses
// are decoded strictly: a witness version encoded with the wrong checksum
// constant is rejected.
func AddressToScript(addr string, net *chaincfg.Params) ([]byte, error) {
	if strings.HasPrefix(strings.ToLower(addr), net.Bech32HRPSegwit+"1") {
		version, program, err := bech32.DecodeSegwitAddress(net.Bech32HRPSegwit, addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
		}
		return witnessProgramScript(version, program)
	}

	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if len(payload) != 20 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, addr)
	}
	switch version {
	case net.PubKeyHashAddrID:
		return p2pkhScript(payload)
	case net.ScriptHashAddrID:
		return p2shScript(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, addr)
	}
}

// signECDSA signs digest, verifies the result and appends SIGHASH_ALL.
func signECDSA(key *btcec.PrivateKey, digest []byte) ([]byte, error) {
	sig := ecdsa.Sign(key, digest)
	if !sig.Verify(digest, key.PubKey()) {
		return nil, ErrInvalidSignature
	}
	return append(sig.Serialize(), byte(txscript.SigHashAll)), nil
}

// multisigWitness is the witness stack of a 2-of-2 CHECKMULTISIG spend.
func multisigWitness(in *domain.Input, witnessScript []byte) (wire.TxWitness, error) {
	if !in.IsComplete() {
		return nil, domain.ErrNotComplete
	}
	return wire.TxWitness{
		nil,
		in.UserSignature,
		in.ServiceSignature,
		witnessScript,
	}, nil
}

func hash160(b []byte) []byte {
	return btcutil.Hash160(b)
}
