package base58_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	btcbase58 "github.com/btcsuite/btcd/btcutil/base58"
	"github.com/muun/cosigner/pkg/encoding/base58"
	"github.com/stretchr/testify/require"
)

var vectors = []struct {
	hex     string
	encoded string
}{
	{"", ""},
	{"61", "2g"},
	{"626262", "a3gV"},
	{"636363", "aPEr"},
	{"73696d706c792061206c6f6e6720737472696e67", "2cFupjhnEsSn59qHXstmK2ffpLv2"},
	{"00eb15231dfceb60925886b67d065299925915aeb172c06647", "1NS17iag9jJgTHD1VXjvLCEnZuQ3rJDE9L"},
	{"516b6fcd0f", "ABnLTmg"},
	{"bf4f89001e670274dd", "3SEo3LWLoPntC"},
	{"572e4794", "3EFU7m"},
	{"ecac89cad93923c02321", "EJDM8drfXA6uyA"},
	{"10c8511e", "Rt5zm"},
	{"00000000000000000000", "1111111111"},
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	for _, v := range vectors {
		b, err := hex.DecodeString(v.hex)
		require.NoError(t, err)

		require.Equal(t, v.encoded, base58.Encode(b))

		decoded, err := base58.Decode(v.encoded)
		require.NoError(t, err)
		require.True(t, bytes.Equal(b, decoded), v.encoded)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		{},
		{0},
		{0, 0, 0},
		{0, 0, 1, 2, 3},
		bytes.Repeat([]byte{0xff}, 64),
	}
	for i := 0; i < 50; i++ {
		b := make([]byte, i)
		_, err := rand.Read(b)
		require.NoError(t, err)
		if i%3 == 0 && i > 0 {
			b[0] = 0
		}
		inputs = append(inputs, b)
	}

	for _, in := range inputs {
		encoded := base58.Encode(in)
		require.Equal(t, btcbase58.Encode(in), encoded)

		decoded, err := base58.Decode(encoded)
		require.NoError(t, err)
		require.True(t, bytes.Equal(in, decoded))
	}
}

func TestDecodeInvalidCharacter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		char     rune
		position int
	}{
		{"0", '0', 0},
		{"1O", 'O', 1},
		{"abcIdef", 'I', 3},
		{"2gl", 'l', 2},
		{"a3g V", ' ', 3},
		{"a3gé", 'é', 3},
	}
	for _, tt := range tests {
		_, err := base58.Decode(tt.input)
		require.Error(t, err)
		require.True(t, errors.Is(err, base58.ErrInvalidCharacter))

		var charErr *base58.InvalidCharacterError
		require.True(t, errors.As(err, &charErr))
		require.Equal(t, tt.char, charErr.Char)
		require.Equal(t, tt.position, charErr.Position)
	}
}

func TestCheckEncodeDecode(t *testing.T) {
	t.Parallel()

	for version := 0; version < 256; version += 37 {
		payload := make([]byte, 20)
		_, err := rand.Read(payload)
		require.NoError(t, err)

		encoded := base58.CheckEncode(payload, byte(version))
		require.Equal(t, btcbase58.CheckEncode(payload, byte(version)), encoded)

		decoded, gotVersion, err := base58.CheckDecode(encoded)
		require.NoError(t, err)
		require.Equal(t, byte(version), gotVersion)
		require.Equal(t, payload, decoded)
	}

	_, _, err := base58.CheckDecode("3MNQE1X")
	require.Error(t, err)

	encoded := base58.CheckEncode([]byte{1, 2, 3}, 0)
	raw, err := base58.Decode(encoded)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	_, _, err = base58.CheckDecode(base58.Encode(raw))
	require.Equal(t, base58.ErrChecksum, err)

	_, _, err = base58.CheckDecode("1111")
	require.Equal(t, base58.ErrInvalidFormat, err)
}
