package download

import (
	"encoding/hex"
	"fmt"
	"hash"
)

// checksumVerifier tees downloaded bytes into a hash so the finished
// file can be checked against the expected digest before the rename.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

// Verify compares the accumulated digest with the expected one. A nil
// verifier passes; checksum validation is opt-in.
func (v *checksumVerifier) Verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if actual != v.expected {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", v.expected, actual),
		}
	}

	return nil
}
