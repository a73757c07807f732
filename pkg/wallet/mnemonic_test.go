package wallet

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMnemonic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entropySize   int
		expectedWords int
		err           error
	}{
		{0, 12, nil},
		{128, 12, nil},
		{160, 15, nil},
		{256, 24, nil},
		{100, 0, ErrInvalidEntropySize},
		{288, 0, ErrInvalidEntropySize},
		{-1, 0, ErrInvalidEntropySize},
	}
	for _, tt := range tests {
		words, err := NewMnemonic(NewMnemonicOpts{EntropySize: tt.entropySize})
		if tt.err != nil {
			require.Equal(t, tt.err, err)
			continue
		}
		require.NoError(t, err)
		require.Len(t, words, tt.expectedWords)

		seed, err := SeedFromMnemonic(words, "")
		require.NoError(t, err)
		require.Len(t, seed, 64)
	}
}

func TestSeedFromMnemonic(t *testing.T) {
	t.Parallel()

	// BIP39 reference vector with passphrase "TREZOR".
	mnemonic := strings.Split(
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		" ",
	)
	seed, err := SeedFromMnemonic(mnemonic, "TREZOR")
	require.NoError(t, err)
	require.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(seed),
	)

	_, err = SeedFromMnemonic([]string{"abandon", "about"}, "")
	require.Equal(t, ErrInvalidMnemonic, err)
}
