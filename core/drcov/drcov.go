// Package drcov implements reading and writing of DrCov coverage files.
//
// DrCov is the coverage-trace format produced by dynamic binary
// instrumentation tooling (DynamoRIO's drcov, Frida-based collectors, and
// others). A file combines a textual preamble with a fixed-layout binary
// payload:
//
//	DRCOV VERSION: <int>
//	DRCOV FLAVOR: <string>
//	Module Table: version <int>, count <int>
//	Columns: <column header>
//	<module row>{count}
//	BB Table: <int> bbs
//	<binary blob: 8 bytes per basic block, little-endian:
//	 u32 start offset, u16 size, u16 module id>
//
// File format version 2 is supported, with module table versions 1 (legacy,
// no version header and no Columns line) through 4. Parsing either yields a
// fully validated Document or an error; serialization is the exact inverse
// and reproduces canonical input byte for byte.
package drcov

import (
	"fmt"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// Format constants shared by the reader and writer.
const (
	// SupportedFileVersion is the only DRCOV file format version understood.
	SupportedFileVersion = 2

	// DefaultFlavor is the flavor written when a builder never sets one.
	DefaultFlavor = "drcov"

	bbEntrySize = 8

	versionPrefix     = "DRCOV VERSION: "
	flavorPrefix      = "DRCOV FLAVOR: "
	moduleTablePrefix = "Module Table: "
	columnsPrefix     = "Columns: "
	bbTablePrefix     = "BB Table: "
)

// TableVersion identifies the module table layout of a coverage file.
type TableVersion int

// Supported module table versions.
const (
	TableVersionLegacy TableVersion = 1
	TableVersionV2     TableVersion = 2
	TableVersionV3     TableVersion = 3
	TableVersionV4     TableVersion = 4
)

// Supported reports whether v is one of the known table layouts.
func (v TableVersion) Supported() bool {
	return v >= TableVersionLegacy && v <= TableVersionV4
}

func (v TableVersion) String() string {
	if v == TableVersionLegacy {
		return "legacy"
	}
	return fmt.Sprintf("v%d", int(v))
}

// Document is a complete, validated DrCov coverage trace.
//
// A Document is produced either by parsing bytes or by a Builder, and is
// immutable once built: consumers treat it as read-only and rebuild instead
// of mutating. Module ids form a dense 0..N range matching table order, and
// every basic block references an existing module.
type Document struct {
	Version      int    // file format version, always SupportedFileVersion
	Flavor       string // free-text tag of the producing tool
	TableVersion TableVersion
	Modules      []Module
	BasicBlocks  []BasicBlock
}

// Validate checks the document invariants. It is called by the parser and
// the writer; a Document obtained from either is already consistent.
func (d *Document) Validate() error {
	if d.Version != SupportedFileVersion {
		return errors.NewValidation("version", fmt.Sprintf("unsupported file version %d", d.Version))
	}
	if !d.TableVersion.Supported() {
		return errors.NewValidation("module table version", fmt.Sprintf("unknown version %d", int(d.TableVersion)))
	}
	if d.Flavor == "" {
		return errors.NewValidation("flavor", "must not be empty")
	}
	for i, m := range d.Modules {
		if m.ID != uint32(i) {
			return errors.NewValidation(fmt.Sprintf("module %d", i), fmt.Sprintf("non-sequential id %d", m.ID))
		}
	}
	for i, m := range d.Modules {
		if m.End <= m.Base {
			return errors.NewValidation(fmt.Sprintf("module %d", i),
				fmt.Sprintf("end 0x%x not above base 0x%x", m.End, m.Base))
		}
	}
	for i, bb := range d.BasicBlocks {
		if int(bb.ModuleID) >= len(d.Modules) {
			return errors.NewValidation(fmt.Sprintf("basic block %d", i),
				fmt.Sprintf("references unknown module id %d", bb.ModuleID))
		}
	}
	for i, bb := range d.BasicBlocks {
		if bb.Size == 0 {
			return errors.NewValidation(fmt.Sprintf("basic block %d", i), "size must be positive")
		}
	}
	return nil
}

// FindModule returns the module with the given id, or nil.
func (d *Document) FindModule(id uint16) *Module {
	if int(id) >= len(d.Modules) {
		return nil
	}
	return &d.Modules[id]
}

// FindModuleByAddress returns the first module whose address range contains
// addr, or nil.
func (d *Document) FindModuleByAddress(addr uint64) *Module {
	for i := range d.Modules {
		if d.Modules[i].ContainsAddress(addr) {
			return &d.Modules[i]
		}
	}
	return nil
}

// HitCounts returns the number of recorded basic blocks per module id.
func (d *Document) HitCounts() map[uint16]int {
	counts := make(map[uint16]int)
	for _, bb := range d.BasicBlocks {
		counts[bb.ModuleID]++
	}
	return counts
}

// CoveredBytes returns the total size of all basic blocks recorded for the
// given module id.
func (d *Document) CoveredBytes(moduleID uint16) uint64 {
	var total uint64
	for _, bb := range d.BasicBlocks {
		if bb.ModuleID == moduleID {
			total += uint64(bb.Size)
		}
	}
	return total
}

// TotalCoveredBytes returns the total size of all recorded basic blocks.
func (d *Document) TotalCoveredBytes() uint64 {
	var total uint64
	for _, bb := range d.BasicBlocks {
		total += uint64(bb.Size)
	}
	return total
}

// hasWindowsColumns reports whether any module carries the optional
// checksum/timestamp pair, which selects the wider column layout on encode.
func (d *Document) hasWindowsColumns() bool {
	for i := range d.Modules {
		if d.Modules[i].Checksum != nil || d.Modules[i].Timestamp != nil {
			return true
		}
	}
	return false
}
