package base58

import "crypto/sha256"

func checksum(input []byte) [4]byte {
	first := sha256.Sum256(input)
	second := sha256.Sum256(first[:])
	var cksum [4]byte
	copy(cksum[:], second[:4])
	return cksum
}

// CheckEncode prepends a version byte and appends a four byte double-SHA256
// checksum before encoding.
func CheckEncode(input []byte, version byte) string {
	b := make([]byte, 0, 1+len(input)+4)
	b = append(b, version)
	b = append(b, input...)
	cksum := checksum(b)
	b = append(b, cksum[:]...)
	return Encode(b)
}

// CheckDecode decodes a string produced by CheckEncode, verifying the
// checksum.
func CheckDecode(input string) ([]byte, byte, error) {
	decoded, err := Decode(input)
	if err != nil {
		return nil, 0, err
	}
	if len(decoded) < 5 {
		return nil, 0, ErrInvalidFormat
	}
	version := decoded[0]
	var cksum [4]byte
	copy(cksum[:], decoded[len(decoded)-4:])
	if checksum(decoded[:len(decoded)-4]) != cksum {
		return nil, 0, ErrChecksum
	}
	payload := decoded[1 : len(decoded)-4]
	return payload, version, nil
}
