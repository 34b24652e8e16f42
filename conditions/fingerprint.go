package conditions

const (
	// FingerprintSize is the canonical in-memory fingerprint width.
	FingerprintSize = 32

	// Secp256k1HashFingerprintSize is the wire width of a secp256k1hash
	// fingerprint.
	Secp256k1HashFingerprintSize = PubKeyHashSize
)

// PadFingerprint right pads a secp256k1hash fingerprint with zeros up to
// FingerprintSize. Fingerprints of other types, and secp256k1hash
// fingerprints that are already wide enough, are returned as a copy.
func PadFingerprint(fp []byte, t ConditionType) []byte {
	if t == TypeSecp256k1Hash && len(fp) < FingerprintSize {
		padded := make([]byte, FingerprintSize)
		copy(padded, fp)
		return padded
	}
	return append([]byte(nil), fp...)
}

// ShrinkFingerprint truncates fp to the wire width of type t. Shorter
// input is returned as a copy.
func ShrinkFingerprint(fp []byte, t ConditionType) []byte {
	size := FingerprintSize
	if t == TypeSecp256k1Hash {
		size = Secp256k1HashFingerprintSize
	}
	if len(fp) > size {
		fp = fp[:size]
	}
	return append([]byte(nil), fp...)
}
