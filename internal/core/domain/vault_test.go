package domain_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/stretchr/testify/require"
)

const testScryptN = 1 << 10

func newTestKey(t *testing.T) *wallet.HDPrivateKey {
	key, err := wallet.NewHDPrivateKey(
		[]byte("0123456789abcdef0123456789abcdef"), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	return key
}

func TestVaultLockUnlock(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	v, err := domain.NewVault(domain.PartyUser, "regtest", key, "pass", testScryptN)
	require.NoError(t, err)
	require.True(t, v.IsLocked())

	_, err = v.PrivateKey()
	require.Equal(t, domain.ErrMustBeUnlocked, err)

	require.Equal(t, domain.ErrInvalidPassphrase, v.Unlock("wrong"))
	require.NoError(t, v.Unlock("pass"))
	require.False(t, v.IsLocked())

	unlocked, err := v.PrivateKey()
	require.NoError(t, err)
	require.Equal(t, key.String(), unlocked.String())

	pub, err := v.PublicKey()
	require.NoError(t, err)
	require.Equal(t, key.PublicKey().String(), pub.String())

	require.Equal(t, domain.ErrMustBeLocked, v.ChangePassphrase("pass", "newpass"))
	v.Lock()
	require.NoError(t, v.ChangePassphrase("pass", "newpass"))
	require.True(t, v.IsLocked())
	require.Equal(t, domain.ErrInvalidPassphrase, v.Unlock("pass"))
	require.NoError(t, v.Unlock("newpass"))
}

func TestFailingNewVault(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	tests := []struct {
		party      domain.Party
		network    string
		key        *wallet.HDPrivateKey
		passphrase string
		err        error
	}{
		{domain.PartyUser, "regtest", nil, "pass", domain.ErrNullKeyOrPassphrase},
		{domain.PartyUser, "regtest", key, "", domain.ErrNullKeyOrPassphrase},
		{domain.Party(0), "regtest", key, "pass", domain.ErrUnknownParty},
		{domain.PartyUser, "liquid", key, "pass", wallet.ErrUnknownNetwork},
	}
	for _, tt := range tests {
		_, err := domain.NewVault(tt.party, tt.network, tt.key, tt.passphrase, testScryptN)
		require.ErrorIs(t, err, tt.err)
	}
}
