package drcov

import (
	"strconv"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// ConvertVersion rebuilds doc under a different module table version.
//
// Columns the target layout cannot represent are dropped (containing id
// below v3, offset below v4, the Windows pair below v2); columns the target
// adds encode with their defaults (-1 containing id, zero offset). The input
// document is not modified.
func ConvertVersion(doc *Document, target TableVersion) (*Document, error) {
	if !target.Supported() {
		return nil, errors.NewUnsupported("module table version", strconv.Itoa(int(target)))
	}

	out := &Document{
		Version:      doc.Version,
		Flavor:       doc.Flavor,
		TableVersion: target,
		Modules:      make([]Module, len(doc.Modules)),
		BasicBlocks:  append([]BasicBlock(nil), doc.BasicBlocks...),
	}
	for i, m := range doc.Modules {
		if target < TableVersionV3 {
			m.ContainingID = nil
		}
		if target < TableVersionV4 {
			m.Offset = nil
		}
		if target == TableVersionLegacy {
			m.Checksum = nil
			m.Timestamp = nil
		}
		out.Modules[i] = m
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
