package drcov

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// lineReader walks the textual preamble of a coverage buffer, tracking line
// numbers for error reporting. The binary payload is whatever remains after
// the last consumed line.
type lineReader struct {
	data []byte
	pos  int
	line int
}

// readLine returns the next line without its trailing newline. The second
// return value is false at end of input.
func (lr *lineReader) readLine() (string, bool) {
	if lr.pos >= len(lr.data) {
		return "", false
	}
	lr.line++
	idx := bytes.IndexByte(lr.data[lr.pos:], '\n')
	if idx < 0 {
		line := string(lr.data[lr.pos:])
		lr.pos = len(lr.data)
		return line, true
	}
	line := string(lr.data[lr.pos : lr.pos+idx])
	lr.pos += idx + 1
	return line, true
}

// lineNo returns the 1-based number of the last line read.
func (lr *lineReader) lineNo() int {
	return lr.line
}

// rest returns the unconsumed remainder of the buffer.
func (lr *lineReader) rest() []byte {
	return lr.data[lr.pos:]
}

// Parse decodes a complete DrCov file from data.
//
// Decoding is strictly sequential with no backtracking: version line, flavor
// line, module table, BB table, then the binary payload. It either returns a
// fully validated Document or the first error encountered; no partial
// documents are produced.
func Parse(data []byte) (*Document, error) {
	lr := &lineReader{data: data}

	version, err := parseHeaderLine(lr, versionPrefix)
	if err != nil {
		return nil, err
	}
	fileVersion, convErr := strconv.Atoi(version)
	if convErr != nil {
		return nil, errors.NewParse("header", lr.lineNo(), "malformed version number")
	}
	if fileVersion != SupportedFileVersion {
		return nil, errors.NewUnsupported("drcov version", version)
	}

	flavor, err := parseHeaderLine(lr, flavorPrefix)
	if err != nil {
		return nil, err
	}

	tableLine, ok := lr.readLine()
	if !ok {
		return nil, errors.NewParse("module table", lr.lineNo()+1, "missing Module Table header")
	}
	content, ok := strings.CutPrefix(strings.TrimSpace(tableLine), moduleTablePrefix)
	if !ok {
		return nil, errors.NewParse("module table", lr.lineNo(), "missing Module Table header")
	}
	tableVersion, count, err := parseTableHeader(content, lr.lineNo())
	if err != nil {
		return nil, err
	}

	modules, err := decodeModuleTable(lr, tableVersion, count)
	if err != nil {
		return nil, err
	}

	blocks, err := decodeBBSection(lr)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Version:      fileVersion,
		Flavor:       flavor,
		TableVersion: tableVersion,
		Modules:      modules,
		BasicBlocks:  blocks,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromReader decodes a DrCov file from r. Acquiring and releasing the
// underlying source is the caller's responsibility.
func FromReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", "", err)
	}
	return Parse(data)
}

// parseHeaderLine reads one preamble line and strips the required prefix.
func parseHeaderLine(lr *lineReader, prefix string) (string, error) {
	line, ok := lr.readLine()
	if !ok {
		return "", errors.NewParse("header", lr.lineNo()+1,
			"expected line with prefix "+strconv.Quote(prefix)+", found end of input")
	}
	value, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return "", errors.NewParse("header", lr.lineNo(),
			"expected prefix "+strconv.Quote(prefix))
	}
	return value, nil
}

// decodeBBSection reads the "BB Table: <n> bbs" line and the binary payload
// after it. A missing BB line at end of input is an empty table; declared
// blocks must account for every remaining byte.
func decodeBBSection(lr *lineReader) ([]BasicBlock, error) {
	line, ok := lr.readLine()
	if !ok {
		return nil, nil
	}
	content, found := strings.CutPrefix(strings.TrimSpace(line), bbTablePrefix)
	if !found {
		return nil, errors.NewParse("bb table", lr.lineNo(), "missing BB Table header")
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return nil, errors.NewParse("bb table", lr.lineNo(), "missing block count")
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return nil, errors.NewParse("bb table", lr.lineNo(), "bad block count "+strconv.Quote(fields[0]))
	}
	return decodeBasicBlocks(lr.rest(), count)
}
