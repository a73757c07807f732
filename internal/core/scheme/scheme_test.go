package scheme_test

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/stretchr/testify/require"
)

var net = &chaincfg.RegressionNetParams

func testKeys(t *testing.T) (scheme.PublicKeys, *btcec.PrivateKey, *btcec.PrivateKey) {
	userPriv, _ := btcec.PrivKeyFromBytes(sha256Sum("user"))
	servicePriv, _ := btcec.PrivKeyFromBytes(sha256Sum("service"))
	return scheme.PublicKeys{
		User:    userPriv.PubKey(),
		Service: servicePriv.PubKey(),
	}, userPriv, servicePriv
}

func sha256Sum(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

func TestRegistryIsExhaustive(t *testing.T) {
	t.Parallel()

	for _, version := range domain.AddressVersions() {
		s, err := scheme.For(version)
		require.NoError(t, err)
		require.Equal(t, version, s.Version())
	}

	_, err := scheme.For(domain.AddressVersion(0))
	require.ErrorIs(t, err, domain.ErrUnsupportedVersion)
	_, err = scheme.For(domain.AddressVersion(6))
	require.ErrorIs(t, err, domain.ErrUnsupportedVersion)
}

func TestAddressesMatchReferenceEncoding(t *testing.T) {
	t.Parallel()

	keys, _, _ := testKeys(t)
	user := keys.User.SerializeCompressed()
	service := keys.Service.SerializeCompressed()

	multisig, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_2).AddData(user).AddData(service).
		AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG).Script()
	require.NoError(t, err)
	witnessProgram := sha256.Sum256(multisig)
	nested, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).AddData(witnessProgram[:]).Script()
	require.NoError(t, err)

	outputKey, err := scheme.TaprootOutputKey(keys)
	require.NoError(t, err)

	v1Addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(user), net)
	require.NoError(t, err)
	v2Addr, err := btcutil.NewAddressScriptHash(multisig, net)
	require.NoError(t, err)
	v3Addr, err := btcutil.NewAddressScriptHash(nested, net)
	require.NoError(t, err)
	v4Addr, err := btcutil.NewAddressWitnessScriptHash(witnessProgram[:], net)
	require.NoError(t, err)
	v5Addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
	require.NoError(t, err)

	expected := map[domain.AddressVersion]btcutil.Address{
		domain.AddressVersionV1: v1Addr,
		domain.AddressVersionV2: v2Addr,
		domain.AddressVersionV3: v3Addr,
		domain.AddressVersionV4: v4Addr,
		domain.AddressVersionV5: v5Addr,
	}

	for version, addr := range expected {
		s, err := scheme.For(version)
		require.NoError(t, err)

		got, err := s.Address(keys, net)
		require.NoError(t, err)
		require.Equal(t, addr.EncodeAddress(), got, version.String())

		script, err := s.OutputScript(keys)
		require.NoError(t, err)
		expectedScript, err := txscript.PayToAddrScript(addr)
		require.NoError(t, err)
		require.Equal(t, expectedScript, script, version.String())

		decoded, err := scheme.AddressToScript(got, net)
		require.NoError(t, err)
		require.Equal(t, expectedScript, decoded, version.String())
	}
}

func TestSchemeIsolation(t *testing.T) {
	t.Parallel()

	keys, _, _ := testKeys(t)
	addresses := make(map[string]domain.AddressVersion)
	for _, version := range domain.AddressVersions() {
		s, err := scheme.For(version)
		require.NoError(t, err)
		addr, err := s.Address(keys, net)
		require.NoError(t, err)

		other, ok := addresses[addr]
		require.False(t, ok, "%s and %s share address %s", version, other, addr)
		addresses[addr] = version
	}
}

func TestMultisigRequiresServiceKey(t *testing.T) {
	t.Parallel()

	keys, _, _ := testKeys(t)
	userOnly := scheme.PublicKeys{User: keys.User}

	for _, version := range domain.AddressVersions() {
		s, err := scheme.For(version)
		require.NoError(t, err)

		_, err = s.Address(userOnly, net)
		if version == domain.AddressVersionV1 {
			require.NoError(t, err)
			continue
		}
		require.ErrorIs(t, err, scheme.ErrNullKeys, version.String())
	}
}

func TestSignRequestValidation(t *testing.T) {
	t.Parallel()

	keys, userPriv, servicePriv := testKeys(t)
	digest := sha256Sum("digest")
	in := &domain.Input{}

	v1, err := scheme.For(domain.AddressVersionV1)
	require.NoError(t, err)
	_, err = v1.Sign(scheme.SignRequest{
		Party: domain.PartyService, Digest: digest, Key: servicePriv, Keys: keys, Input: in,
	})
	require.ErrorIs(t, err, scheme.ErrNotASigner)

	v2, err := scheme.For(domain.AddressVersionV2)
	require.NoError(t, err)
	_, err = v2.Sign(scheme.SignRequest{
		Party: domain.PartyService, Digest: digest, Key: userPriv, Keys: keys, Input: in,
	})
	require.ErrorIs(t, err, scheme.ErrKeyMismatch)

	_, err = v2.Sign(scheme.SignRequest{
		Party: domain.PartyService, Digest: digest[:31], Key: servicePriv, Keys: keys, Input: in,
	})
	require.ErrorIs(t, err, scheme.ErrInvalidDigest)

	sig, err := v2.Sign(scheme.SignRequest{
		Party: domain.PartyService, Digest: digest, Key: servicePriv, Keys: keys, Input: in,
	})
	require.NoError(t, err)
	require.Equal(t, byte(txscript.SigHashAll), sig.Signature[len(sig.Signature)-1])

	v5, err := scheme.For(domain.AddressVersionV5)
	require.NoError(t, err)
	_, err = v5.Sign(scheme.SignRequest{
		Party: domain.PartyService, Digest: digest, Key: servicePriv, Keys: keys, Input: in,
	})
	require.ErrorIs(t, err, domain.ErrMissingNonce)
}

func TestSpendScriptRequiresAllSignatures(t *testing.T) {
	t.Parallel()

	keys, _, _ := testKeys(t)
	for _, version := range domain.AddressVersions() {
		s, err := scheme.For(version)
		require.NoError(t, err)

		in := &domain.Input{Address: domain.MuunAddress{Version: version}}
		if version != domain.AddressVersionV1 {
			require.NoError(t, in.AttachSignature(domain.PartyService, []byte{1}))
		}
		_, _, err = s.SpendScript(keys, in)
		require.ErrorIs(t, err, domain.ErrNotComplete, version.String())
	}
}

func TestMusigNoncesSerialization(t *testing.T) {
	t.Parallel()

	keys, _, _ := testKeys(t)
	nonces, err := scheme.GenerateNonces(
		[]*btcec.PublicKey{keys.User, nil, keys.User}, nil,
	)
	require.NoError(t, err)
	require.Equal(t, 3, nonces.Len())
	require.NotNil(t, nonces.At(0))
	require.Nil(t, nonces.At(1))
	require.Nil(t, nonces.At(5))
	require.NotEqual(t, nonces.At(0).PubNonce, nonces.At(2).PubNonce)

	restored, err := scheme.DeserializeMusigNonces(nonces.Serialize())
	require.NoError(t, err)
	require.Equal(t, nonces.Len(), restored.Len())
	for i := 0; i < nonces.Len(); i++ {
		require.Equal(t, nonces.At(i), restored.At(i))
	}

	_, err = scheme.DeserializeMusigNonces([]byte{1, 2, 3})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddressToScriptRejectsEncodingMismatch(t *testing.T) {
	t.Parallel()

	mainnet := &chaincfg.MainNetParams
	// Witness v1 program encoded with the Bech32 constant.
	_, err := scheme.AddressToScript(
		"bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqh2y7hd", mainnet,
	)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = scheme.AddressToScript(
		"bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0", mainnet,
	)
	require.NoError(t, err)

	_, err = scheme.AddressToScript("notanaddress", mainnet)
	require.ErrorIs(t, err, domain.ErrValidation)
}
