package drcov

import (
	"fmt"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// Merge unions the coverage of documents that share a module table.
//
// All inputs must list the same modules (path, base, end) in the same order;
// a mismatched table is a validation error, since block module ids would not
// resolve to the same binaries. Duplicate blocks are kept once, in
// first-seen order. Header and table version are taken from the first input.
func Merge(docs ...*Document) (*Document, error) {
	if len(docs) == 0 {
		return nil, errors.NewValidation("merge", "no documents given")
	}

	first := docs[0]
	for i, doc := range docs[1:] {
		if err := sameModuleTable(first, doc); err != nil {
			return nil, errors.NewValidation(fmt.Sprintf("document %d", i+1), err.Error())
		}
	}

	seen := make(map[BasicBlock]struct{})
	var blocks []BasicBlock
	for _, doc := range docs {
		for _, bb := range doc.BasicBlocks {
			if _, dup := seen[bb]; dup {
				continue
			}
			seen[bb] = struct{}{}
			blocks = append(blocks, bb)
		}
	}

	out := &Document{
		Version:      first.Version,
		Flavor:       first.Flavor,
		TableVersion: first.TableVersion,
		Modules:      append([]Module(nil), first.Modules...),
		BasicBlocks:  blocks,
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func sameModuleTable(a, b *Document) error {
	if len(a.Modules) != len(b.Modules) {
		return fmt.Errorf("module table mismatch: %d modules vs %d", len(b.Modules), len(a.Modules))
	}
	for i := range a.Modules {
		ma, mb := &a.Modules[i], &b.Modules[i]
		if ma.Path != mb.Path || ma.Base != mb.Base || ma.End != mb.End {
			return fmt.Errorf("module table mismatch at id %d: %s [0x%x, 0x%x) vs %s [0x%x, 0x%x)",
				i, mb.Path, mb.Base, mb.End, ma.Path, ma.Base, ma.End)
		}
	}
	return nil
}
