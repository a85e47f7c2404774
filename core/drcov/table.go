package drcov

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// parseTableHeader parses the value of a "Module Table:" line. Versioned
// tables read "version <n>, count <n>"; the legacy table is a bare count.
func parseTableHeader(content string, lineNo int) (TableVersion, int, error) {
	if rest, ok := strings.CutPrefix(content, "version "); ok {
		parts := strings.SplitN(rest, ",", 2)
		if len(parts) != 2 {
			return 0, 0, errors.NewParse("module table", lineNo, "malformed versioned header")
		}
		ver, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, errors.NewParse("module table", lineNo, fmt.Sprintf("bad version %q", strings.TrimSpace(parts[0])))
		}
		countStr, ok := strings.CutPrefix(strings.TrimSpace(parts[1]), "count ")
		if !ok {
			return 0, 0, errors.NewParse("module table", lineNo, "missing count")
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count < 0 {
			return 0, 0, errors.NewParse("module table", lineNo, fmt.Sprintf("bad count %q", strings.TrimSpace(countStr)))
		}
		version := TableVersion(ver)
		if version == TableVersionLegacy || !version.Supported() {
			return 0, 0, errors.NewUnsupported("module table version", strconv.Itoa(ver))
		}
		return version, count, nil
	}

	count, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil || count < 0 {
		return 0, 0, errors.NewParse("module table", lineNo, fmt.Sprintf("bad legacy count %q", strings.TrimSpace(content)))
	}
	return TableVersionLegacy, count, nil
}

// decodeModuleTable reads the optional Columns header and exactly count
// module rows from lr. Module identity is structural: each decoded row gets
// id = its position, regardless of what the row's id column said.
func decodeModuleTable(lr *lineReader, version TableVersion, count int) ([]Module, error) {
	layout := layoutFor(version, false)
	if version != TableVersionLegacy {
		line, ok := lr.readLine()
		if !ok {
			return nil, errors.NewParse("module table", lr.lineNo(), "missing Columns header")
		}
		content, ok := strings.CutPrefix(strings.TrimSpace(line), columnsPrefix)
		if !ok {
			return nil, errors.NewParse("module table", lr.lineNo(), "missing Columns header")
		}
		columns := strings.Split(content, ",")
		for i := range columns {
			columns[i] = strings.TrimSpace(columns[i])
		}
		layout, ok = matchLayout(version, columns)
		if !ok {
			return nil, errors.NewParse("module table", lr.lineNo(),
				fmt.Sprintf("unknown %s column layout: %s", version, content))
		}
	}

	modules := make([]Module, 0, count)
	for i := 0; i < count; i++ {
		line, ok := lr.readLine()
		if !ok {
			return nil, errors.NewParse("module table", lr.lineNo(),
				fmt.Sprintf("truncated: expected %d module rows, got %d", count, i))
		}
		m, err := decodeModuleRow(layout, strings.TrimSpace(line), lr.lineNo())
		if err != nil {
			return nil, err
		}
		m.ID = uint32(i)
		modules = append(modules, m)
	}
	return modules, nil
}

// encodeModuleTable writes the table metadata line, the Columns header for
// versioned tables, and each module row in sequence order.
func encodeModuleTable(sb *strings.Builder, doc *Document) {
	if doc.TableVersion == TableVersionLegacy {
		fmt.Fprintf(sb, "%s%d\n", moduleTablePrefix, len(doc.Modules))
	} else {
		fmt.Fprintf(sb, "%sversion %d, count %d\n", moduleTablePrefix, int(doc.TableVersion), len(doc.Modules))
	}
	layout := layoutFor(doc.TableVersion, doc.hasWindowsColumns())
	if doc.TableVersion != TableVersionLegacy {
		fmt.Fprintf(sb, "%s%s\n", columnsPrefix, layout.columnHeader())
	}
	for i := range doc.Modules {
		sb.WriteString(encodeModuleRow(layout, &doc.Modules[i]))
		sb.WriteByte('\n')
	}
}
