// Package refengine is an independent implementation of address derivation,
// signature hashing and transaction assembly, built directly on btcutil
// address types and the txscript interpreter. It is used to cross check the
// primary engine.
package refengine

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/tyler-smith/go-bip32"
)

var (
	// ErrUnknownVersion ...
	ErrUnknownVersion = errors.New("unknown address version")
	// ErrMissingServiceKey ...
	ErrMissingServiceKey = errors.New("service key is required for multisig versions")
	// ErrMissingSignatures ...
	ErrMissingSignatures = errors.New("input is missing signatures")
)

// Coin is an output spent by the transaction being signed together with the
// keys that control it.
type Coin struct {
	Version    int
	Amount     int64
	UserKey    []byte
	ServiceKey []byte
	// Signatures, filled only when assembling.
	UserSig    []byte
	ServiceSig []byte
}

// Engine ...
type Engine struct {
	net *chaincfg.Params
}

// New ...
func New(net *chaincfg.Params) *Engine {
	return &Engine{net}
}

// ChildPublicKey derives the compressed public key at indexes below the
// base58 serialized extended key.
func (e *Engine) ChildPublicKey(xkey string, indexes []uint32) ([]byte, error) {
	key, err := bip32.B58Deserialize(xkey)
	if err != nil {
		return nil, err
	}
	for _, index := range indexes {
		if key, err = key.NewChildKey(index); err != nil {
			return nil, err
		}
	}
	if key.IsPrivate {
		key = key.PublicKey()
	}
	return key.Key, nil
}

// Address encodes the address of the given version.
func (e *Engine) Address(version int, userKey, serviceKey []byte) (string, error) {
	addr, err := e.address(version, userKey, serviceKey)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// SignatureHash returns the SIGHASH_ALL digest of input index.
func (e *Engine) SignatureHash(tx *wire.MsgTx, index int, coins []Coin) ([]byte, error) {
	if index < 0 || index >= len(coins) || len(coins) != len(tx.TxIn) {
		return nil, fmt.Errorf("input %d out of range", index)
	}
	fetcher, err := e.prevOutFetcher(tx, coins)
	if err != nil {
		return nil, err
	}
	hashes := txscript.NewTxSigHashes(tx, fetcher)
	coin := coins[index]

	switch coin.Version {
	case 1:
		script, err := e.pkScript(coin)
		if err != nil {
			return nil, err
		}
		return txscript.CalcSignatureHash(script, txscript.SigHashAll, tx, index)
	case 2:
		script, err := multisig(coin.UserKey, coin.ServiceKey, e.net)
		if err != nil {
			return nil, err
		}
		return txscript.CalcSignatureHash(script, txscript.SigHashAll, tx, index)
	case 3, 4:
		script, err := multisig(coin.UserKey, coin.ServiceKey, e.net)
		if err != nil {
			return nil, err
		}
		return txscript.CalcWitnessSigHash(
			script, hashes, txscript.SigHashAll, tx, index, coin.Amount,
		)
	case 5:
		return txscript.CalcTaprootSignatureHash(
			hashes, txscript.SigHashAll, tx, index, fetcher,
		)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, coin.Version)
	}
}

// Assemble returns a copy of tx with every input script and witness filled
// in from the coin signatures. Every input is run through the script
// interpreter before returning.
func (e *Engine) Assemble(tx *wire.MsgTx, coins []Coin) (*wire.MsgTx, error) {
	if len(coins) != len(tx.TxIn) {
		return nil, fmt.Errorf("got %d coins for %d inputs", len(coins), len(tx.TxIn))
	}
	signed := tx.Copy()
	for i, coin := range coins {
		if err := e.fillInput(signed.TxIn[i], coin); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	fetcher, err := e.prevOutFetcher(signed, coins)
	if err != nil {
		return nil, err
	}
	hashes := txscript.NewTxSigHashes(signed, fetcher)
	for i, txIn := range signed.TxIn {
		prevOut := fetcher.FetchPrevOutput(txIn.PreviousOutPoint)
		vm, err := txscript.NewEngine(
			prevOut.PkScript, signed, i, txscript.StandardVerifyFlags, nil,
			hashes, prevOut.Value, fetcher,
		)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if err := vm.Execute(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return signed, nil
}

func (e *Engine) fillInput(txIn *wire.TxIn, coin Coin) error {
	if len(coin.UserSig) == 0 || (coin.Version > 1 && len(coin.ServiceSig) == 0) {
		return ErrMissingSignatures
	}

	switch coin.Version {
	case 1:
		script, err := txscript.NewScriptBuilder().
			AddData(coin.UserSig).AddData(coin.UserKey).Script()
		if err != nil {
			return err
		}
		txIn.SignatureScript, txIn.Witness = script, nil
	case 2:
		redeem, err := multisig(coin.UserKey, coin.ServiceKey, e.net)
		if err != nil {
			return err
		}
		script, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_FALSE).
			AddData(coin.UserSig).AddData(coin.ServiceSig).
			AddData(redeem).Script()
		if err != nil {
			return err
		}
		txIn.SignatureScript, txIn.Witness = script, nil
	case 3, 4:
		witnessScript, err := multisig(coin.UserKey, coin.ServiceKey, e.net)
		if err != nil {
			return err
		}
		txIn.Witness = wire.TxWitness{nil, coin.UserSig, coin.ServiceSig, witnessScript}
		txIn.SignatureScript = nil
		if coin.Version == 3 {
			nested, err := e.witnessScriptHash(witnessScript)
			if err != nil {
				return err
			}
			program, err := txscript.PayToAddrScript(nested)
			if err != nil {
				return err
			}
			if txIn.SignatureScript, err = txscript.NewScriptBuilder().
				AddData(program).Script(); err != nil {
				return err
			}
		}
	case 5:
		txIn.SignatureScript = nil
		txIn.Witness = wire.TxWitness{coin.UserSig}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownVersion, coin.Version)
	}
	return nil
}

func (e *Engine) address(version int, userKey, serviceKey []byte) (btcutil.Address, error) {
	if version == 1 {
		return btcutil.NewAddressPubKeyHash(btcutil.Hash160(userKey), e.net)
	}
	if len(serviceKey) == 0 {
		return nil, ErrMissingServiceKey
	}

	switch version {
	case 2:
		script, err := multisig(userKey, serviceKey, e.net)
		if err != nil {
			return nil, err
		}
		return btcutil.NewAddressScriptHash(script, e.net)
	case 3:
		script, err := multisig(userKey, serviceKey, e.net)
		if err != nil {
			return nil, err
		}
		nested, err := e.witnessScriptHash(script)
		if err != nil {
			return nil, err
		}
		program, err := txscript.PayToAddrScript(nested)
		if err != nil {
			return nil, err
		}
		return btcutil.NewAddressScriptHash(program, e.net)
	case 4:
		script, err := multisig(userKey, serviceKey, e.net)
		if err != nil {
			return nil, err
		}
		return e.witnessScriptHash(script)
	case 5:
		return e.taproot(userKey, serviceKey)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
}

func (e *Engine) witnessScriptHash(script []byte) (btcutil.Address, error) {
	h := sha256.Sum256(script)
	return btcutil.NewAddressWitnessScriptHash(h[:], e.net)
}

// taproot aggregates the keys without tweak and applies the BIP86 tweak
// through txscript.
func (e *Engine) taproot(userKey, serviceKey []byte) (btcutil.Address, error) {
	user, err := btcec.ParsePubKey(userKey)
	if err != nil {
		return nil, err
	}
	service, err := btcec.ParsePubKey(serviceKey)
	if err != nil {
		return nil, err
	}
	aggKey, _, _, err := musig2.AggregateKeys(
		[]*btcec.PublicKey{user, service}, false,
	)
	if err != nil {
		return nil, err
	}
	outputKey := txscript.ComputeTaprootKeyNoScript(aggKey.FinalKey)
	return btcutil.NewAddressTaproot(outputKey.SerializeCompressed()[1:], e.net)
}

func (e *Engine) pkScript(coin Coin) ([]byte, error) {
	addr, err := e.address(coin.Version, coin.UserKey, coin.ServiceKey)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

func (e *Engine) prevOutFetcher(
	tx *wire.MsgTx, coins []Coin,
) (*txscript.MultiPrevOutFetcher, error) {
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, coin := range coins {
		script, err := e.pkScript(coin)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		fetcher.AddPrevOut(tx.TxIn[i].PreviousOutPoint, wire.NewTxOut(coin.Amount, script))
	}
	return fetcher, nil
}

func multisig(userKey, serviceKey []byte, net *chaincfg.Params) ([]byte, error) {
	user, err := btcutil.NewAddressPubKey(userKey, net)
	if err != nil {
		return nil, err
	}
	service, err := btcutil.NewAddressPubKey(serviceKey, net)
	if err != nil {
		return nil, err
	}
	return txscript.MultiSigScript([]*btcutil.AddressPubKey{user, service}, 2)
}
