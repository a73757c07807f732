package signer_test

import (
	"testing"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/signer"
	"github.com/stretchr/testify/require"
)

func TestEngine(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	engine, err := signer.NewEngine(network)
	require.NoError(t, err)

	t.Run("derive", func(t *testing.T) {
		path := basePath + "/0/5"
		addr := keys.address(t, domain.AddressVersionV4, path)
		require.Equal(t, path, addr.DerivationPath)
		require.Equal(t, domain.AddressVersionV4, addr.Version)

		pub, err := engine.DerivePublicKey(keys.userPub, path)
		require.NoError(t, err)
		require.Len(t, pub, 33)

		_, err = engine.DerivePublicKey(keys.userPub, "m/2'/0")
		require.Error(t, err)

		_, err = engine.DeriveAddress(domain.AddressVersion(9), keys.userPub, keys.servicePub)
		require.ErrorIs(t, err, domain.ErrUnsupportedVersion)
	})

	t.Run("sighash", func(t *testing.T) {
		pst := newTestPST(
			t, keys, []domain.AddressVersion{domain.AddressVersionV2, domain.AddressVersionV5},
			[]int64{1000, 2000}, []testOutput{{destinationAddress(t), 2500}},
		)
		for i := range pst.Inputs {
			digest, err := engine.SigHash(pst, i, keys.userPub, keys.servicePub)
			require.NoError(t, err)
			require.Len(t, digest, 32)
		}
		_, err := engine.SigHash(pst, 2, keys.userPub, keys.servicePub)
		require.ErrorIs(t, err, signer.ErrInputIndexOutOfRange)
	})

	t.Run("finalize incomplete", func(t *testing.T) {
		pst := newTestPST(
			t, keys, []domain.AddressVersion{domain.AddressVersionV4},
			[]int64{1000}, []testOutput{{destinationAddress(t), 500}},
		)
		_, err := engine.Finalize(pst, keys.userPub, keys.servicePub)
		require.ErrorIs(t, err, domain.ErrNotComplete)
	})
}
