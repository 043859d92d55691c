package envelope

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns hex(sha256(canonical(v))). Every checksum of a structured
// value in this module routes through it (payload checksums, envelope
// checksums, evidence-pack stability hashes, report checksums).
func Checksum(v interface{}) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ChecksumBytes hashes the given bytes directly, without canonicalizing them;
// the analyzer's input hash uses it for its plain "match_id:evidence_hash" string.
func ChecksumBytes(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
