package bech32

import (
	"errors"
	"fmt"
)

var (
	// ErrEncodingMismatch is returned when a witness v0 program is not Bech32
	// or a v1+ program is not Bech32m.
	ErrEncodingMismatch = errors.New("witness version and checksum encoding mismatch")
	// ErrInvalidWitnessVersion ...
	ErrInvalidWitnessVersion = errors.New("witness version must be in range [0, 16]")
	// ErrInvalidProgramLength ...
	ErrInvalidProgramLength = errors.New("invalid witness program length")
	// ErrWrongHRP ...
	ErrWrongHRP = errors.New("human readable part doesn't match the network")
)

// SegwitAddress is a decoded segwit address.
type SegwitAddress struct {
	HRP      string
	Version  byte
	Program  []byte
	Encoding Encoding
}

// encodingForVersion returns the only encoding allowed for a witness version.
func encodingForVersion(version byte) Encoding {
	if version == 0 {
		return Bech32
	}
	return Bech32m
}

// EncodeSegwitAddress encodes a witness program picking Bech32 for v0 and
// Bech32m for v1 and above.
func EncodeSegwitAddress(hrp string, version byte, program []byte) (string, error) {
	if err := validateProgram(version, program); err != nil {
		return "", err
	}
	conv, err := ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	data := append([]byte{version}, conv...)
	return encode(hrp, data, encodingForVersion(version))
}

// DecodeSegwitAddress decodes addr and enforces the encoding rules strictly.
// It is the parser for any path that moves funds.
func DecodeSegwitAddress(hrp, addr string) (byte, []byte, error) {
	decoded, err := ParseSegwitAddressLenient(hrp, addr)
	if err != nil {
		return 0, nil, err
	}
	if decoded.Encoding != encodingForVersion(decoded.Version) {
		return 0, nil, fmt.Errorf(
			"%w: version %d encoded as %s",
			ErrEncodingMismatch, decoded.Version, decoded.Encoding,
		)
	}
	return decoded.Version, decoded.Program, nil
}

// ParseSegwitAddressLenient decodes addr without enforcing which checksum
// constant goes with the witness version. Callers get the matched encoding
// back and decide how to surface a mismatch; it must not be used for
// building outputs.
func ParseSegwitAddressLenient(hrp, addr string) (*SegwitAddress, error) {
	enc, gotHRP, data, err := Decode(addr)
	if err != nil {
		return nil, err
	}
	if gotHRP != hrp {
		return nil, fmt.Errorf("%w: got %s, expected %s", ErrWrongHRP, gotHRP, hrp)
	}
	if len(data) < 1 {
		return nil, ErrInvalidProgramLength
	}
	version := data[0]
	program, err := ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, err
	}
	if err := validateProgram(version, program); err != nil {
		return nil, err
	}
	return &SegwitAddress{
		HRP:      gotHRP,
		Version:  version,
		Program:  program,
		Encoding: enc,
	}, nil
}

// MatchesVersion tells whether the address used the encoding its witness
// version mandates.
func (a *SegwitAddress) MatchesVersion() bool {
	return a.Encoding == encodingForVersion(a.Version)
}

func validateProgram(version byte, program []byte) error {
	if version > 16 {
		return ErrInvalidWitnessVersion
	}
	if len(program) < 2 || len(program) > 40 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidProgramLength, len(program))
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return fmt.Errorf(
			"%w: v0 program must be 20 or 32 bytes, got %d",
			ErrInvalidProgramLength, len(program),
		)
	}
	return nil
}
