package drcov

import (
	"github.com/FocuswithJustin/drcovkit/internal/covfile"
)

// FromFile parses the coverage file at path. Files ending in .gz or .xz are
// decompressed transparently.
func FromFile(path string) (*Document, error) {
	data, err := covfile.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ToFile writes doc to path, compressing per the path suffix like FromFile.
func ToFile(doc *Document, path string) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return covfile.WriteFile(path, data)
}
