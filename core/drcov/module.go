package drcov

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// Module is one row of the module table: a binary or library loaded in the
// traced process.
//
// The pointer fields are columns that only exist in some table layouts:
// ContainingID from v3 on, Offset from v4 on, and the Checksum/Timestamp
// pair whenever the producing tool recorded Windows PE header fields. A nil
// pointer means the column was absent, which keeps re-encoding byte-stable.
type Module struct {
	ID    uint32
	Base  uint64
	End   uint64
	Entry uint64
	Path  string

	ContainingID *int32  // v3+; -1 when the module is not contained in another
	Offset       *uint64 // v4+
	Checksum     *uint32 // optional Windows column
	Timestamp    *uint32 // optional Windows column
}

// Size returns the size of the module's address range in bytes.
func (m *Module) Size() uint64 {
	if m.End < m.Base {
		return 0
	}
	return m.End - m.Base
}

// ContainsAddress reports whether addr falls inside [Base, End).
func (m *Module) ContainsAddress(addr uint64) bool {
	return addr >= m.Base && addr < m.End
}

// Column names used in module table layouts.
const (
	colID           = "id"
	colContainingID = "containing_id"
	colBase         = "base"
	colStart        = "start" // v3+ name for the base column
	colEnd          = "end"
	colEntry        = "entry"
	colOffset       = "offset"
	colChecksum     = "checksum"
	colTimestamp    = "timestamp"
	colPath         = "path"
)

// moduleLayout is the fixed, ordered column set of one module table variant.
// The set of layouts is closed: every supported table version has exactly
// one layout without and one with the optional Windows columns.
type moduleLayout struct {
	version TableVersion
	windows bool
	columns []string
}

var moduleLayouts = []moduleLayout{
	{TableVersionLegacy, false, []string{colID, colBase, colEnd, colEntry, colPath}},
	{TableVersionV2, false, []string{colID, colBase, colEnd, colEntry, colPath}},
	{TableVersionV2, true, []string{colID, colBase, colEnd, colEntry, colChecksum, colTimestamp, colPath}},
	{TableVersionV3, false, []string{colID, colContainingID, colStart, colEnd, colEntry, colPath}},
	{TableVersionV3, true, []string{colID, colContainingID, colStart, colEnd, colEntry, colChecksum, colTimestamp, colPath}},
	{TableVersionV4, false, []string{colID, colContainingID, colStart, colEnd, colEntry, colOffset, colPath}},
	{TableVersionV4, true, []string{colID, colContainingID, colStart, colEnd, colEntry, colOffset, colChecksum, colTimestamp, colPath}},
}

// layoutFor returns the layout a writer uses for the given version. The
// legacy table has a single layout; the Windows columns only exist in
// versioned tables.
func layoutFor(version TableVersion, windows bool) moduleLayout {
	if version == TableVersionLegacy {
		windows = false
	}
	for _, l := range moduleLayouts {
		if l.version == version && l.windows == windows {
			return l
		}
	}
	// TableVersion.Supported is checked before any layout lookup.
	panic(fmt.Sprintf("drcov: no module layout for version %d", int(version)))
}

// matchLayout resolves a parsed Columns header against the known layouts for
// the declared version. The legacy "base" name is accepted where "start" is
// canonical.
func matchLayout(version TableVersion, columns []string) (moduleLayout, bool) {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		if c == colBase {
			c = colStart
		}
		normalized[i] = c
	}
	for _, l := range moduleLayouts {
		if l.version != version || len(l.columns) != len(normalized) {
			continue
		}
		ok := true
		for i, c := range l.columns {
			if c == colBase {
				c = colStart
			}
			if c != normalized[i] {
				ok = false
				break
			}
		}
		if ok {
			return l, true
		}
	}
	return moduleLayout{}, false
}

// columnHeader returns the canonical "Columns:" value for the layout.
func (l moduleLayout) columnHeader() string {
	return strings.Join(l.columns, ", ")
}

// decodeModuleRow parses one module table row against the layout. The path
// column is always last, so embedded commas in paths survive the split.
func decodeModuleRow(l moduleLayout, line string, lineNo int) (Module, error) {
	values := strings.SplitN(line, ",", len(l.columns))
	if len(values) != len(l.columns) {
		return Module{}, errors.NewParse("module table", lineNo,
			fmt.Sprintf("expected %d columns, got %d", len(l.columns), len(values)))
	}

	var m Module
	for i, col := range l.columns {
		value := strings.TrimSpace(values[i])
		if err := decodeModuleColumn(&m, col, value); err != nil {
			return Module{}, errors.NewParse("module table", lineNo,
				fmt.Sprintf("bad %s value %q", col, value))
		}
	}
	return m, nil
}

func decodeModuleColumn(m *Module, col, value string) error {
	switch col {
	case colID:
		id, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		m.ID = uint32(id)
	case colContainingID:
		cid, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return err
		}
		v := int32(cid)
		m.ContainingID = &v
	case colBase, colStart:
		return decodeHex64(value, &m.Base)
	case colEnd:
		return decodeHex64(value, &m.End)
	case colEntry:
		return decodeHex64(value, &m.Entry)
	case colOffset:
		var off uint64
		if err := decodeHex64(value, &off); err != nil {
			return err
		}
		m.Offset = &off
	case colChecksum:
		return decodeHex32(value, &m.Checksum)
	case colTimestamp:
		return decodeHex32(value, &m.Timestamp)
	case colPath:
		m.Path = value
	}
	return nil
}

// Address columns are hexadecimal with an optional 0x prefix.
func decodeHex64(value string, dst *uint64) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func decodeHex32(value string, dst **uint32) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 32)
	if err != nil {
		return err
	}
	u := uint32(v)
	*dst = &u
	return nil
}

// encodeModuleRow renders one module in the layout's canonical column order
// and formatting: decimal ids, zero-padded 16-digit hex addresses, "0x%x"
// offsets, 8-digit hex checksum/timestamp, ", " separators.
func encodeModuleRow(l moduleLayout, m *Module) string {
	parts := make([]string, 0, len(l.columns))
	for _, col := range l.columns {
		switch col {
		case colID:
			parts = append(parts, strconv.FormatUint(uint64(m.ID), 10))
		case colContainingID:
			cid := int32(-1)
			if m.ContainingID != nil {
				cid = *m.ContainingID
			}
			parts = append(parts, strconv.FormatInt(int64(cid), 10))
		case colBase, colStart:
			parts = append(parts, fmt.Sprintf("0x%016x", m.Base))
		case colEnd:
			parts = append(parts, fmt.Sprintf("0x%016x", m.End))
		case colEntry:
			parts = append(parts, fmt.Sprintf("0x%016x", m.Entry))
		case colOffset:
			var off uint64
			if m.Offset != nil {
				off = *m.Offset
			}
			parts = append(parts, fmt.Sprintf("0x%x", off))
		case colChecksum:
			var sum uint32
			if m.Checksum != nil {
				sum = *m.Checksum
			}
			parts = append(parts, fmt.Sprintf("0x%08x", sum))
		case colTimestamp:
			var ts uint32
			if m.Timestamp != nil {
				ts = *m.Timestamp
			}
			parts = append(parts, fmt.Sprintf("0x%08x", ts))
		case colPath:
			parts = append(parts, m.Path)
		}
	}
	return strings.Join(parts, ", ")
}
