package domain_test

import (
	"testing"

	"github.com/muun/cosigner/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestInputAttachSignature(t *testing.T) {
	t.Parallel()

	in := &domain.Input{
		Address: domain.MuunAddress{
			Version:        domain.AddressVersionV3,
			DerivationPath: "m/1'/1'/0/0",
			Address:        "2N...",
		},
	}

	require.Equal(t, []domain.Party{domain.PartyService, domain.PartyUser}, in.MissingSignatures())

	err := in.CanBeSignedBy(domain.PartyUser)
	require.ErrorIs(t, err, domain.ErrSigningOrder)
	require.ErrorIs(t, err, domain.ErrPrecondition)

	require.NoError(t, in.CanBeSignedBy(domain.PartyService))
	require.NoError(t, in.AttachSignature(domain.PartyService, []byte{1}))
	require.Equal(t, []domain.Party{domain.PartyUser}, in.MissingSignatures())

	err = in.AttachSignature(domain.PartyService, []byte{2})
	require.ErrorIs(t, err, domain.ErrAlreadySigned)
	require.Equal(t, []byte{1}, in.ServiceSignature)

	require.NoError(t, in.CanBeSignedBy(domain.PartyUser))
	require.NoError(t, in.AttachSignature(domain.PartyUser, []byte{3}))
	require.True(t, in.IsComplete())

	err = in.CanBeSignedBy(domain.PartyUser)
	require.ErrorIs(t, err, domain.ErrAlreadySigned)
}

func TestInputSigners(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version domain.AddressVersion
		signers []domain.Party
	}{
		{domain.AddressVersionV1, []domain.Party{domain.PartyUser}},
		{domain.AddressVersionV2, []domain.Party{domain.PartyService, domain.PartyUser}},
		{domain.AddressVersionV3, []domain.Party{domain.PartyService, domain.PartyUser}},
		{domain.AddressVersionV4, []domain.Party{domain.PartyService, domain.PartyUser}},
		{domain.AddressVersionV5, []domain.Party{domain.PartyService, domain.PartyUser}},
		{domain.AddressVersion(6), nil},
	}
	for _, tt := range tests {
		require.Equal(t, tt.signers, tt.version.Signers(), tt.version.String())
	}

	require.False(t, domain.AddressVersionV1.IsSigner(domain.PartyService))
	require.True(t, domain.AddressVersionV1.IsSigner(domain.PartyUser))
}

func TestInputAttachPublicNonce(t *testing.T) {
	t.Parallel()

	in := &domain.Input{}
	require.NoError(t, in.AttachPublicNonce(domain.PartyUser, []byte{1, 2}))
	require.ErrorIs(
		t, in.AttachPublicNonce(domain.PartyUser, []byte{3}), domain.ErrNonceAlreadySet,
	)
	require.Equal(t, []byte{1, 2}, in.PublicNonce(domain.PartyUser))
	require.Nil(t, in.PublicNonce(domain.PartyService))
	require.ErrorIs(t, in.AttachPublicNonce(domain.Party(9), []byte{1}), domain.ErrUnknownParty)
}
