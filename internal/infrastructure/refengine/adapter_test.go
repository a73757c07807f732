package refengine_test

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/internal/core/signer"
	"github.com/muun/cosigner/internal/infrastructure/refengine"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/stretchr/testify/require"
)

var network = &chaincfg.TestNet3Params

func newKey(t *testing.T, b byte) *wallet.HDPrivateKey {
	master, err := wallet.NewHDPrivateKey(bytes.Repeat([]byte{b}, 32), network)
	require.NoError(t, err)
	key, err := master.DeriveTo("m/1'/1'")
	require.NoError(t, err)
	return key
}

func TestAdapterMatchesPrimary(t *testing.T) {
	t.Parallel()

	user, service := newKey(t, 3), newKey(t, 4)
	userPub, servicePub := user.PublicKey(), service.PublicKey()

	primary, err := signer.NewEngine(network)
	require.NoError(t, err)
	reference := refengine.NewAdapter(network)

	tx := wire.NewMsgTx(2)
	inputs := make([]*domain.Input, 0)
	for i, version := range domain.AddressVersions() {
		path := fmt.Sprintf("m/1'/1'/0/%d", i)

		pub, err := primary.DerivePublicKey(userPub, path)
		require.NoError(t, err)
		refPub, err := reference.DerivePublicKey(userPub, path)
		require.NoError(t, err)
		require.Equal(t, pub, refPub)

		u, err := userPub.DeriveTo(path)
		require.NoError(t, err)
		s, err := servicePub.DeriveTo(path)
		require.NoError(t, err)
		addr, err := primary.DeriveAddress(version, u, s)
		require.NoError(t, err)
		refAddr, err := reference.DeriveAddress(version, u, s)
		require.NoError(t, err)
		require.Equal(t, addr, refAddr, version.String())

		outpoint := domain.Outpoint{
			TxID:   chainhash.DoubleHashH([]byte{byte(i)}),
			Index:  uint32(i),
			Amount: int64(10000 * (i + 1)),
		}
		op := outpoint.WireOutPoint()
		tx.AddTxIn(wire.NewTxIn(&op, nil, nil))
		inputs = append(inputs, &domain.Input{Outpoint: outpoint, Address: *addr})
	}
	script, err := scheme.AddressToScript(inputs[3].Address.Address, network)
	require.NoError(t, err)
	tx.AddTxOut(wire.NewTxOut(140000, script))

	pst, err := domain.NewPartiallySignedTransaction(tx, inputs)
	require.NoError(t, err)

	for i := range pst.Inputs {
		digest, err := primary.SigHash(pst, i, userPub, servicePub)
		require.NoError(t, err)
		refDigest, err := reference.SigHash(pst, i, userPub, servicePub)
		require.NoError(t, err)
		require.Equal(t, digest, refDigest, "input %d", i)
	}

	_, err = reference.Finalize(pst, userPub, servicePub)
	require.Error(t, err)

	coordinator, err := signer.NewCoordinator(network)
	require.NoError(t, err)
	require.NoError(t, coordinator.FullySign(pst, user, service, rand.Reader))

	tx1, err := primary.Finalize(pst, userPub, servicePub)
	require.NoError(t, err)
	tx2, err := reference.Finalize(pst, userPub, servicePub)
	require.NoError(t, err)
	require.Equal(t, tx1, tx2)
}
