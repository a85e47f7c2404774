package drcov

import (
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// Encode serializes a Document to the DrCov wire format. The document is
// validated first, so a buffer is only produced for consistent data;
// Parse(Encode(doc)) reproduces doc, and encoding a parsed canonical buffer
// reproduces it byte for byte.
func Encode(doc *Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%d\n", versionPrefix, doc.Version)
	fmt.Fprintf(&sb, "%s%s\n", flavorPrefix, doc.Flavor)
	encodeModuleTable(&sb, doc)
	fmt.Fprintf(&sb, "%s%d bbs\n", bbTablePrefix, len(doc.BasicBlocks))

	out := []byte(sb.String())
	if len(doc.BasicBlocks) > 0 {
		out = append(out, encodeBasicBlocks(doc.BasicBlocks)...)
	}
	return out, nil
}

// ToWriter encodes doc and writes the result to w.
func ToWriter(doc *Document, w io.Writer) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.NewIO("write", "", err)
	}
	return nil
}
