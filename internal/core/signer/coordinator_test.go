package signer_test

import (
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/signer"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/stretchr/testify/require"
)

func TestFullySign(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		versions []domain.AddressVersion
	}{
		{"v1", []domain.AddressVersion{domain.AddressVersionV1, domain.AddressVersionV1}},
		{"v2", []domain.AddressVersion{domain.AddressVersionV2, domain.AddressVersionV2}},
		{"v3", []domain.AddressVersion{domain.AddressVersionV3, domain.AddressVersionV3}},
		{"v4", []domain.AddressVersion{domain.AddressVersionV4, domain.AddressVersionV4}},
		{"v5", []domain.AddressVersion{domain.AddressVersionV5, domain.AddressVersionV5}},
		{"mixed", domain.AddressVersions()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			keys := newTestKeys(t)
			amounts := make([]int64, len(tt.versions))
			var total int64
			for i := range amounts {
				amounts[i] = int64(100000 * (i + 1))
				total += amounts[i]
			}
			pst := newTestPST(t, keys, tt.versions, amounts, []testOutput{
				{destinationAddress(t), total - 1000},
			})

			coordinator, err := signer.NewCoordinator(network)
			require.NoError(t, err)
			err = coordinator.FullySign(pst, keys.user, keys.service, rand.Reader)
			require.NoError(t, err)
			require.Equal(t, domain.StateComplete, pst.State())
			require.Empty(t, pst.MissingSignatures())

			engine, err := signer.NewEngine(network)
			require.NoError(t, err)
			tx, err := engine.Finalize(pst, keys.userPub, keys.servicePub)
			require.NoError(t, err)
			require.Equal(t, pst.Tx.TxHash().String(), tx.Hash)

			executeScripts(t, keys, pst, pst.Tx)
		})
	}
}

func TestAddPartySignatures(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	versions := []domain.AddressVersion{domain.AddressVersionV3, domain.AddressVersionV3}
	pst := newTestPST(t, keys, versions, []int64{50000, 70000}, []testOutput{
		{destinationAddress(t), 110000},
	})
	coordinator, err := signer.NewCoordinator(network)
	require.NoError(t, err)

	require.Equal(t, domain.StateUnsigned, pst.State())

	err = coordinator.AddPartySignatures(
		pst, domain.PartyService, keys.signingKeys(domain.PartyService),
	)
	require.NoError(t, err)
	require.Equal(t, domain.StatePartiallySigned, pst.State())
	for _, in := range pst.Inputs {
		require.Equal(t, []domain.Party{domain.PartyUser}, in.MissingSignatures())
	}
	for _, txIn := range pst.Tx.TxIn {
		require.Empty(t, txIn.Witness)
	}

	err = coordinator.AddPartySignatures(
		pst, domain.PartyUser, keys.signingKeys(domain.PartyUser),
	)
	require.NoError(t, err)
	require.Equal(t, domain.StateComplete, pst.State())
	for _, txIn := range pst.Tx.TxIn {
		require.Len(t, txIn.Witness, 4)
		require.NotEmpty(t, txIn.SignatureScript)
	}
	executeScripts(t, keys, pst, pst.Tx)

	// Signing again is a precondition violation and leaves the PST intact.
	txBefore := pst.Tx.Copy()
	err = coordinator.AddPartySignatures(
		pst, domain.PartyUser, keys.signingKeys(domain.PartyUser),
	)
	require.ErrorIs(t, err, domain.ErrAlreadySigned)
	require.ErrorIs(t, err, domain.ErrPrecondition)
	require.Equal(t, txBefore.TxHash(), pst.Tx.TxHash())
}

type countingDigests struct {
	signer.DigestSource
	calls []int
}

func (d *countingDigests) SigHash(
	pst *domain.PartiallySignedTransaction, index int,
	userKey, serviceKey *wallet.HDPublicKey,
) ([]byte, error) {
	d.calls = append(d.calls, index)
	return d.DigestSource.SigHash(pst, index, userKey, serviceKey)
}

func TestSignVerifiedTransaction(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	destination := destinationAddress(t)
	versions := []domain.AddressVersion{domain.AddressVersionV3, domain.AddressVersionV3}
	pst := newTestPST(t, keys, versions, []int64{inputA, inputB}, []testOutput{
		{destination, inputA + inputB - fee},
	})
	exp := domain.SigningExpectations{
		Destination: destination,
		Amount:      inputA + inputB - fee,
		Fee:         fee,
	}

	engine, err := signer.NewEngine(network)
	require.NoError(t, err)
	digests := &countingDigests{DigestSource: engine}
	coordinator, err := signer.NewCoordinator(network)
	require.NoError(t, err)
	verifier, err := signer.NewVerifier(network)
	require.NoError(t, err)

	require.NoError(t, verifier.Verify(pst, exp, keys.userPub, keys.servicePub))

	for _, party := range []domain.Party{domain.PartyService, domain.PartyUser} {
		signingKeys := keys.signingKeys(party)
		signingKeys.Digests = digests
		require.NoError(t, coordinator.AddPartySignatures(pst, party, signingKeys))
	}
	require.Equal(t, domain.StateComplete, pst.State())
	require.Equal(t, []int{0, 1, 0, 1}, digests.calls)
	executeScripts(t, keys, pst, pst.Tx)

	require.NoError(t, verifier.Verify(pst, exp, keys.userPub, keys.servicePub))

	exp.Amount++
	err = verifier.Verify(pst, exp, keys.userPub, keys.servicePub)
	require.ErrorIs(t, err, domain.ErrSigningExpectationMismatch)
}

func TestUserCannotSignFirst(t *testing.T) {
	t.Parallel()

	versions := []domain.AddressVersion{
		domain.AddressVersionV2,
		domain.AddressVersionV3,
		domain.AddressVersionV4,
		domain.AddressVersionV5,
	}

	for _, version := range versions {
		version := version
		t.Run(version.String(), func(t *testing.T) {
			t.Parallel()

			keys := newTestKeys(t)
			pst := newTestPST(
				t, keys, []domain.AddressVersion{version}, []int64{100000},
				[]testOutput{{destinationAddress(t), 90000}},
			)
			coordinator, err := signer.NewCoordinator(network)
			require.NoError(t, err)

			err = coordinator.AddPartySignatures(
				pst, domain.PartyUser, keys.signingKeys(domain.PartyUser),
			)
			require.ErrorIs(t, err, domain.ErrSigningOrder)
			require.Equal(t, domain.StateUnsigned, pst.State())
		})
	}
}

func TestServiceSkipsSingleSigInputs(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	pst := newTestPST(
		t, keys, []domain.AddressVersion{domain.AddressVersionV1, domain.AddressVersionV4},
		[]int64{100000, 20000}, []testOutput{{destinationAddress(t), 110000}},
	)
	coordinator, err := signer.NewCoordinator(network)
	require.NoError(t, err)

	err = coordinator.AddPartySignatures(
		pst, domain.PartyService, keys.signingKeys(domain.PartyService),
	)
	require.NoError(t, err)
	require.False(t, pst.Inputs[0].HasSigned(domain.PartyService))
	require.True(t, pst.Inputs[1].HasSigned(domain.PartyService))
	require.Equal(t, map[int][]domain.Party{
		0: {domain.PartyUser},
		1: {domain.PartyUser},
	}, pst.MissingSignatures())
}

func TestAddPartySignaturesFailsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	coordinator, err := signer.NewCoordinator(network)
	require.NoError(t, err)

	t.Run("missing user nonce", func(t *testing.T) {
		pst := newTestPST(
			t, keys, []domain.AddressVersion{domain.AddressVersionV4, domain.AddressVersionV5},
			[]int64{100000, 20000}, []testOutput{{destinationAddress(t), 110000}},
		)
		err := coordinator.AddPartySignatures(
			pst, domain.PartyService, keys.signingKeys(domain.PartyService),
		)
		require.ErrorIs(t, err, domain.ErrMissingNonce)
		require.Equal(t, domain.StateUnsigned, pst.State())
	})

	t.Run("address mismatch", func(t *testing.T) {
		pst := newTestPST(
			t, keys, []domain.AddressVersion{domain.AddressVersionV4, domain.AddressVersionV4},
			[]int64{100000, 20000}, []testOutput{{destinationAddress(t), 110000}},
		)
		pst.Inputs[1].Address.Address = pst.Inputs[0].Address.Address
		err := coordinator.AddPartySignatures(
			pst, domain.PartyService, keys.signingKeys(domain.PartyService),
		)
		require.ErrorIs(t, err, signer.ErrAddressMismatch)
		require.Equal(t, domain.StateUnsigned, pst.State())
	})

	t.Run("wrong private key", func(t *testing.T) {
		pst := newTestPST(
			t, keys, []domain.AddressVersion{domain.AddressVersionV2},
			[]int64{100000}, []testOutput{{destinationAddress(t), 90000}},
		)
		signingKeys := keys.signingKeys(domain.PartyService)
		signingKeys.Private = keys.user
		err := coordinator.AddPartySignatures(pst, domain.PartyService, signingKeys)
		require.ErrorIs(t, err, domain.ErrPrecondition)
		require.Equal(t, domain.StateUnsigned, pst.State())
	})

	t.Run("inputs mismatch", func(t *testing.T) {
		pst := newTestPST(
			t, keys, []domain.AddressVersion{domain.AddressVersionV2},
			[]int64{100000}, []testOutput{{destinationAddress(t), 90000}},
		)
		pst.Tx.TxIn[0].PreviousOutPoint = wire.OutPoint{Index: 7}
		err := coordinator.AddPartySignatures(
			pst, domain.PartyService, keys.signingKeys(domain.PartyService),
		)
		require.ErrorIs(t, err, domain.ErrInputsMismatch)
	})
}

func TestMusigNonceExchange(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	pst := newTestPST(
		t, keys, []domain.AddressVersion{domain.AddressVersionV5, domain.AddressVersionV3},
		[]int64{100000, 20000}, []testOutput{{destinationAddress(t), 110000}},
	)
	coordinator, err := signer.NewCoordinator(network)
	require.NoError(t, err)

	nonces, err := coordinator.PrepareNonces(pst, keys.userPub, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, 2, nonces.Len())
	require.NotNil(t, nonces.At(0))
	require.Nil(t, nonces.At(1))
	require.Equal(t, nonces.At(0).PubNonce[:], pst.Inputs[0].UserPublicNonce)
	require.Empty(t, pst.Inputs[1].UserPublicNonce)

	_, err = coordinator.PrepareNonces(pst, keys.userPub, rand.Reader)
	require.ErrorIs(t, err, domain.ErrNonceAlreadySet)

	err = coordinator.AddPartySignatures(
		pst, domain.PartyService, keys.signingKeys(domain.PartyService),
	)
	require.NoError(t, err)
	require.NotEmpty(t, pst.Inputs[0].ServicePublicNonce)

	// The user can't complete the session without its secret nonces.
	err = coordinator.AddPartySignatures(
		pst, domain.PartyUser, keys.signingKeys(domain.PartyUser),
	)
	require.ErrorIs(t, err, domain.ErrMissingNonce)

	userKeys := keys.signingKeys(domain.PartyUser)
	userKeys.Nonces = nonces
	err = coordinator.AddPartySignatures(pst, domain.PartyUser, userKeys)
	require.NoError(t, err)
	require.True(t, pst.IsComplete())
	require.Len(t, pst.Inputs[0].UserSignature, 65)
	executeScripts(t, keys, pst, pst.Tx)
}
