// Package bech32 implements the Bech32 (BIP173) and Bech32m (BIP350)
// encodings together with the segwit address rules built on top of them.
package bech32

import (
	"errors"
	"fmt"
	"strings"
)

// Encoding identifies which checksum constant a string was built with.
type Encoding int

const (
	// Invalid is never returned alongside a nil error.
	Invalid Encoding = iota
	// Bech32 checksums are xored with 1.
	Bech32
	// Bech32m checksums are xored with 0x2bc830a3.
	Bech32m
)

const (
	charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

	bech32Const  = 0x1
	bech32mConst = 0x2bc830a3

	// MaxLength is the maximum length of an encoded string.
	MaxLength    = 90
	checksumSize = 6
)

var gen = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

var (
	// ErrMixedCase ...
	ErrMixedCase = errors.New("string mixes upper and lower case")
	// ErrInvalidLength ...
	ErrInvalidLength = fmt.Errorf("string length must be at most %d", MaxLength)
	// ErrMissingSeparator ...
	ErrMissingSeparator = errors.New("separator '1' not found")
	// ErrEmptyHRP ...
	ErrEmptyHRP = errors.New("human readable part is empty")
	// ErrInvalidHRP ...
	ErrInvalidHRP = errors.New("human readable part contains invalid characters")
	// ErrInvalidCharacter ...
	ErrInvalidCharacter = errors.New("invalid data character")
	// ErrInvalidChecksum is returned when neither Bech32 nor Bech32m
	// constants validate the checksum.
	ErrInvalidChecksum = errors.New("invalid checksum")
	// ErrInvalidDataByte ...
	ErrInvalidDataByte = errors.New("data value out of 5 bit range")
	// ErrInvalidPadding ...
	ErrInvalidPadding = errors.New("invalid padding in bit conversion")
)

// String ...
func (e Encoding) String() string {
	switch e {
	case Bech32:
		return "BECH32"
	case Bech32m:
		return "BECH32M"
	default:
		return "INVALID"
	}
}

func (e Encoding) constant() uint32 {
	if e == Bech32m {
		return bech32mConst
	}
	return bech32Const
}

func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func createChecksum(hrp string, data []byte, enc Encoding) []byte {
	values := append(hrpExpand(hrp), data...)
	values = append(values, make([]byte, checksumSize)...)
	mod := polymod(values) ^ enc.constant()
	out := make([]byte, checksumSize)
	for i := range out {
		out[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return out
}

func verifyChecksum(hrp string, data []byte) Encoding {
	switch polymod(append(hrpExpand(hrp), data...)) {
	case bech32Const:
		return Bech32
	case bech32mConst:
		return Bech32m
	default:
		return Invalid
	}
}

// Encode returns the Bech32 encoding of 5-bit data under hrp.
func Encode(hrp string, data []byte) (string, error) {
	return encode(hrp, data, Bech32)
}

// EncodeM returns the Bech32m encoding of 5-bit data under hrp.
func EncodeM(hrp string, data []byte) (string, error) {
	return encode(hrp, data, Bech32m)
}

func encode(hrp string, data []byte, enc Encoding) (string, error) {
	if err := validateHRP(hrp); err != nil {
		return "", err
	}
	if len(hrp)+1+len(data)+checksumSize > MaxLength {
		return "", ErrInvalidLength
	}
	hrp = strings.ToLower(hrp)

	var b strings.Builder
	b.Grow(len(hrp) + 1 + len(data) + checksumSize)
	b.WriteString(hrp)
	b.WriteByte('1')
	for _, d := range data {
		if d >= 32 {
			return "", ErrInvalidDataByte
		}
		b.WriteByte(charset[d])
	}
	for _, d := range createChecksum(hrp, data, enc) {
		b.WriteByte(charset[d])
	}
	return b.String(), nil
}

// Decode validates a Bech32 or Bech32m string and returns the matched
// encoding, the lower case hrp and the 5-bit data without checksum.
func Decode(s string) (Encoding, string, []byte, error) {
	if len(s) > MaxLength {
		return Invalid, "", nil, ErrInvalidLength
	}
	lower := strings.ToLower(s)
	if lower != s && strings.ToUpper(s) != s {
		return Invalid, "", nil, ErrMixedCase
	}
	s = lower

	pos := strings.LastIndexByte(s, '1')
	if pos < 0 {
		return Invalid, "", nil, ErrMissingSeparator
	}
	if pos == 0 {
		return Invalid, "", nil, ErrEmptyHRP
	}
	if pos+checksumSize+1 > len(s) {
		return Invalid, "", nil, fmt.Errorf("%w: checksum too short", ErrInvalidChecksum)
	}

	hrp := s[:pos]
	if err := validateHRP(hrp); err != nil {
		return Invalid, "", nil, err
	}

	data := make([]byte, 0, len(s)-pos-1)
	for i := pos + 1; i < len(s); i++ {
		idx := strings.IndexByte(charset, s[i])
		if idx < 0 {
			return Invalid, "", nil, fmt.Errorf(
				"%w %q at position %d", ErrInvalidCharacter, s[i], i,
			)
		}
		data = append(data, byte(idx))
	}

	enc := verifyChecksum(hrp, data)
	if enc == Invalid {
		return Invalid, "", nil, ErrInvalidChecksum
	}
	return enc, hrp, data[:len(data)-checksumSize], nil
}

func validateHRP(hrp string) error {
	if len(hrp) == 0 {
		return ErrEmptyHRP
	}
	for i := 0; i < len(hrp); i++ {
		if hrp[i] < 33 || hrp[i] > 126 {
			return ErrInvalidHRP
		}
	}
	return nil
}

// ConvertBits regroups data from fromBits-wide values to toBits-wide values.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<toBits - 1
	out := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)
	for _, value := range data {
		if uint32(value)>>fromBits != 0 {
			return nil, ErrInvalidDataByte
		}
		acc = acc<<fromBits | uint32(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte(acc>>bits&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte(acc<<(toBits-bits)&maxv))
		}
	} else if bits >= fromBits || acc<<(toBits-bits)&maxv != 0 {
		return nil, ErrInvalidPadding
	}
	return out, nil
}
