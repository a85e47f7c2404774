package drcov

// Builder accumulates coverage data and produces a validated Document.
//
// A Builder is exclusively owned by one call chain; it must not be shared
// across concurrent writers. Independent goroutines each use their own
// Builder, there is no shared state between them.
type Builder struct {
	doc Document
}

// NewBuilder returns a Builder for file format version 2 with the default
// flavor and a legacy module table.
func NewBuilder() *Builder {
	return &Builder{doc: Document{
		Version:      SupportedFileVersion,
		Flavor:       DefaultFlavor,
		TableVersion: TableVersionLegacy,
	}}
}

// Flavor sets the tool flavor string.
func (b *Builder) Flavor(flavor string) *Builder {
	b.doc.Flavor = flavor
	return b
}

// TableVersion sets the module table version to be generated.
func (b *Builder) TableVersion(v TableVersion) *Builder {
	b.doc.TableVersion = v
	return b
}

// AddModule appends a module covering [base, end) and assigns it the next
// sequential id.
func (b *Builder) AddModule(path string, base, end uint64) *Builder {
	b.doc.Modules = append(b.doc.Modules, Module{
		ID:   uint32(len(b.doc.Modules)),
		Base: base,
		End:  end,
		Path: path,
	})
	return b
}

// AddModuleEntry appends a fully specified module row. The id is taken as
// given; Build rejects ids that break the dense 0..N sequence.
func (b *Builder) AddModuleEntry(m Module) *Builder {
	b.doc.Modules = append(b.doc.Modules, m)
	return b
}

// AddCoverage appends a basic block of the given size at offset within the
// referenced module.
func (b *Builder) AddCoverage(moduleID uint16, offset uint32, size uint16) *Builder {
	b.doc.BasicBlocks = append(b.doc.BasicBlocks, BasicBlock{
		Start:    offset,
		Size:     size,
		ModuleID: moduleID,
	})
	return b
}

// AddBasicBlock appends a BasicBlock as-is.
func (b *Builder) AddBasicBlock(bb BasicBlock) *Builder {
	b.doc.BasicBlocks = append(b.doc.BasicBlocks, bb)
	return b
}

// Build validates the accumulated data once and returns the Document.
// Module id density is checked before coverage cross-references, so the
// first violation reported is deterministic. The Builder must not be used
// after a successful Build.
func (b *Builder) Build() (*Document, error) {
	if err := b.doc.Validate(); err != nil {
		return nil, err
	}
	doc := b.doc
	return &doc, nil
}
