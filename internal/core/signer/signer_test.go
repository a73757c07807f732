package signer_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/internal/core/signer"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/stretchr/testify/require"
)

const basePath = "m/1'/1'"

var network = &chaincfg.RegressionNetParams

type testKeys struct {
	user, service       *wallet.HDPrivateKey
	userPub, servicePub *wallet.HDPublicKey
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()

	newKey := func(b byte) *wallet.HDPrivateKey {
		master, err := wallet.NewHDPrivateKey(bytes.Repeat([]byte{b}, 32), network)
		require.NoError(t, err)
		key, err := master.DeriveTo(basePath)
		require.NoError(t, err)
		return key
	}
	user, service := newKey(1), newKey(2)
	return testKeys{user, service, user.PublicKey(), service.PublicKey()}
}

func (k testKeys) address(
	t *testing.T, version domain.AddressVersion, path string,
) *domain.MuunAddress {
	t.Helper()

	userPub, err := k.userPub.DeriveTo(path)
	require.NoError(t, err)
	servicePub, err := k.servicePub.DeriveTo(path)
	require.NoError(t, err)

	engine, err := signer.NewEngine(network)
	require.NoError(t, err)
	addr, err := engine.DeriveAddress(version, userPub, servicePub)
	require.NoError(t, err)
	return addr
}

func (k testKeys) signingKeys(party domain.Party) signer.SigningKeys {
	priv := k.user
	if party == domain.PartyService {
		priv = k.service
	}
	return signer.SigningKeys{
		Private:    priv,
		UserKey:    k.userPub,
		ServiceKey: k.servicePub,
	}
}

type testOutput struct {
	address string
	amount  int64
}

func newTestPST(
	t *testing.T, keys testKeys, versions []domain.AddressVersion,
	amounts []int64, outputs []testOutput,
) *domain.PartiallySignedTransaction {
	t.Helper()

	tx := wire.NewMsgTx(2)
	inputs := make([]*domain.Input, 0, len(versions))
	for i, version := range versions {
		outpoint := domain.Outpoint{
			TxID:   chainhash.DoubleHashH([]byte(fmt.Sprintf("prevout %d", i))),
			Index:  uint32(i),
			Amount: amounts[i],
		}
		path := fmt.Sprintf("%s/0/%d", basePath, i)
		addr := keys.address(t, version, path)
		wireOutpoint := outpoint.WireOutPoint()
		tx.AddTxIn(wire.NewTxIn(&wireOutpoint, nil, nil))
		inputs = append(inputs, &domain.Input{Outpoint: outpoint, Address: *addr})
	}
	for _, out := range outputs {
		script, err := scheme.AddressToScript(out.address, network)
		require.NoError(t, err)
		tx.AddTxOut(wire.NewTxOut(out.amount, script))
	}

	pst, err := domain.NewPartiallySignedTransaction(tx, inputs)
	require.NoError(t, err)
	return pst
}

// executeScripts runs every input of tx through the script interpreter.
func executeScripts(
	t *testing.T, keys testKeys, pst *domain.PartiallySignedTransaction,
	tx *wire.MsgTx,
) {
	t.Helper()

	prevOuts := make(map[wire.OutPoint]*wire.TxOut)
	for _, in := range pst.Inputs {
		userPub, err := keys.userPub.DeriveTo(in.Address.DerivationPath)
		require.NoError(t, err)
		servicePub, err := keys.servicePub.DeriveTo(in.Address.DerivationPath)
		require.NoError(t, err)
		user, err := userPub.ECPublicKey()
		require.NoError(t, err)
		service, err := servicePub.ECPublicKey()
		require.NoError(t, err)

		s, err := scheme.For(in.Address.Version)
		require.NoError(t, err)
		script, err := s.OutputScript(scheme.PublicKeys{User: user, Service: service})
		require.NoError(t, err)
		prevOuts[in.WireOutPoint()] = wire.NewTxOut(in.Amount, script)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	hashes := txscript.NewTxSigHashes(tx, fetcher)
	for i, txIn := range tx.TxIn {
		prevOut := prevOuts[txIn.PreviousOutPoint]
		vm, err := txscript.NewEngine(
			prevOut.PkScript, tx, i, txscript.StandardVerifyFlags, nil, hashes,
			prevOut.Value, fetcher,
		)
		require.NoError(t, err)
		require.NoError(t, vm.Execute(), "input %d", i)
	}
}

func destinationAddress(t *testing.T) string {
	t.Helper()

	keys := newTestKeys(t)
	return keys.address(t, domain.AddressVersionV4, basePath+"/9/0").Address
}
