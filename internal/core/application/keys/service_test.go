package keys_test

import (
	"context"
	"strings"
	"testing"

	"github.com/muun/cosigner/internal/core/application/keys"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	dbbadger "github.com/muun/cosigner/internal/infrastructure/storage/db/badger"
	"github.com/stretchr/testify/require"
)

const testScryptN = 1 << 10

var mnemonic = strings.Fields(strings.Repeat("abandon ", 23) + "art")

var ctx = context.Background()

func newService(t *testing.T) (*keys.Service, ports.RepoManager) {
	repo, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	svc, err := keys.NewService(repo, "regtest", testScryptN)
	require.NoError(t, err)
	return svc, repo
}

func TestKeysLifecycle(t *testing.T) {
	t.Parallel()

	svc, repo := newService(t)
	defer repo.Close()

	words, err := svc.GenSeed(ctx)
	require.NoError(t, err)
	require.Len(t, words, 24)

	xpub, err := svc.InitKeys(ctx, domain.PartyUser, mnemonic, "pass")
	require.NoError(t, err)
	require.NotEmpty(t, xpub)

	_, err = svc.InitKeys(ctx, domain.PartyUser, words, "pass")
	require.Error(t, err)

	pub, err := svc.PublicKey(ctx, domain.PartyUser)
	require.NoError(t, err)
	require.Equal(t, xpub, pub.String())

	_, err = svc.PrivateKey(ctx, domain.PartyUser)
	require.ErrorIs(t, err, domain.ErrMustBeUnlocked)

	require.ErrorIs(t, svc.Unlock(ctx, domain.PartyUser, "wrong"), domain.ErrInvalidPassphrase)
	require.NoError(t, svc.Unlock(ctx, domain.PartyUser, "pass"))

	priv, err := svc.PrivateKey(ctx, domain.PartyUser)
	require.NoError(t, err)
	require.Equal(t, xpub, priv.PublicKey().String())
	require.Equal(t, keys.BasePath, priv.Path)

	err = svc.ChangePassphrase(ctx, domain.PartyUser, "pass", "newpass")
	require.ErrorIs(t, err, domain.ErrMustBeLocked)

	svc.Lock(ctx, domain.PartyUser)
	require.NoError(t, svc.ChangePassphrase(ctx, domain.PartyUser, "pass", "newpass"))
	require.ErrorIs(t, svc.Unlock(ctx, domain.PartyUser, "pass"), domain.ErrInvalidPassphrase)
	require.NoError(t, svc.Unlock(ctx, domain.PartyUser, "newpass"))

	_, err = svc.PublicKey(ctx, domain.PartyService)
	require.Error(t, err)
}
