// Package digest computes BLAKE3 digests of coverage documents and manages
// golden digest files for regression checks.
//
// Digests are taken over the canonical encoding, so two documents with the
// same flavor, module table, and blocks have the same digest regardless of
// how their source files were formatted or compressed.
package digest

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/drcovkit/core/drcov"
	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// Bytes returns the hex BLAKE3 digest of raw data.
func Bytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Document returns the hex BLAKE3 digest of doc's canonical encoding.
func Document(doc *drcov.Document) (string, error) {
	data, err := drcov.Encode(doc)
	if err != nil {
		return "", err
	}
	return Bytes(data), nil
}

// SaveGolden writes a digest to a golden file, one hash per file.
func SaveGolden(path, digest string) error {
	if err := os.WriteFile(path, []byte(digest+"\n"), 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// ReadGolden reads a digest previously written by SaveGolden.
func ReadGolden(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIO("read", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
