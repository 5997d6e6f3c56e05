package store

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed result identity. The version
// suffix enables future algorithm migration.
const domainResult = "macrolens/result/v1"

// ResultID computes the content-addressed identity of one processed
// file: the same run inputs and emitted module always hash to the same
// ID. Text is NFC normalized at the hashing boundary so byte-level
// encoding differences in paths never split identities.
func ResultID(runID, file, module string) string {
	h := sha256.New()
	h.Write([]byte(domainResult))
	h.Write([]byte{0x00}) // Null separator between domain and data
	writeField(h, runID)
	writeField(h, file)
	writeField(h, module)
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h interface{ Write(p []byte) (int, error) }, s string) {
	normalized := norm.NFC.String(s)
	h.Write([]byte(normalized))
	h.Write([]byte{0x00})
}
