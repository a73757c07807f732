// Package base58 implements the Base58 and Base58Check encodings used by
// bitcoin addresses, extended keys and recovery containers.
package base58

import (
	"errors"
	"fmt"
	"math/big"
)

const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var (
	// ErrChecksum ...
	ErrChecksum = errors.New("checksum mismatch")
	// ErrInvalidFormat ...
	ErrInvalidFormat = errors.New("invalid format: version and/or checksum bytes missing")
	// ErrInvalidCharacter is matched by every InvalidCharacterError.
	ErrInvalidCharacter = errors.New("invalid base58 character")
)

// InvalidCharacterError reports a character outside the alphabet and its
// position in the decoded string.
type InvalidCharacterError struct {
	Char     rune
	Position int
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("%s %q at position %d", ErrInvalidCharacter, e.Char, e.Position)
}

// Is ...
func (e *InvalidCharacterError) Is(target error) bool {
	return target == ErrInvalidCharacter
}

var (
	bigRadix = big.NewInt(58)
	bigZero  = big.NewInt(0)
)

// Encode encodes b as a base58 string. Every leading zero byte becomes a
// leading '1'.
func Encode(b []byte) string {
	zeros := 0
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}

	x := new(big.Int).SetBytes(b)
	mod := new(big.Int)
	// log(256)/log(58) ~ 1.37
	answer := make([]byte, 0, len(b)*138/100+1)
	for x.Cmp(bigZero) > 0 {
		x.DivMod(x, bigRadix, mod)
		answer = append(answer, alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		answer = append(answer, alphabet[0])
	}

	for i, j := 0, len(answer)-1; i < j; i, j = i+1, j-1 {
		answer[i], answer[j] = answer[j], answer[i]
	}
	return string(answer)
}

// Decode decodes a base58 string. Characters outside the alphabet are
// reported with an *InvalidCharacterError.
func Decode(s string) ([]byte, error) {
	answer := new(big.Int)
	scratch := new(big.Int)
	for i, r := range s {
		idx := indexOf(r)
		if idx < 0 {
			return nil, &InvalidCharacterError{Char: r, Position: i}
		}
		answer.Mul(answer, bigRadix)
		scratch.SetInt64(int64(idx))
		answer.Add(answer, scratch)
	}

	zeros := 0
	for zeros < len(s) && s[zeros] == alphabet[0] {
		zeros++
	}

	tmp := answer.Bytes()
	out := make([]byte, zeros+len(tmp))
	copy(out[zeros:], tmp)
	return out, nil
}

func indexOf(r rune) int {
	if r > 127 {
		return -1
	}
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == byte(r) {
			return i
		}
	}
	return -1
}
