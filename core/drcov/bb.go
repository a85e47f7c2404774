package drcov

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/drcovkit/core/errors"
)

// BasicBlock is one executed code region, recorded relative to its module.
//
// The wire layout is 8 bytes little-endian: u32 start offset, u16 size,
// u16 module id. Field and byte order are part of the external contract.
type BasicBlock struct {
	Start    uint32 // offset of the block start from the module base
	Size     uint16 // size of the block in bytes
	ModuleID uint16 // id of the module containing the block
}

// AbsoluteAddress returns the block's address within the given module.
func (bb BasicBlock) AbsoluteAddress(m *Module) uint64 {
	return m.Base + uint64(bb.Start)
}

// decodeBasicBlocks converts the binary BB table payload into blocks. The
// payload must hold exactly count entries: a short payload is truncated
// data, surplus bytes are trailing data.
func decodeBasicBlocks(data []byte, count int) ([]BasicBlock, error) {
	want := count * bbEntrySize
	if len(data) < want {
		return nil, errors.NewParse("bb table", 0,
			fmt.Sprintf("truncated coverage data: expected %d bytes for %d blocks, got %d", want, count, len(data)))
	}
	if len(data) > want {
		return nil, errors.NewParse("bb table", 0,
			fmt.Sprintf("trailing data: %d bytes after %d blocks", len(data)-want, count))
	}

	blocks := make([]BasicBlock, count)
	for i := range blocks {
		entry := data[i*bbEntrySize:]
		blocks[i] = BasicBlock{
			Start:    binary.LittleEndian.Uint32(entry[0:4]),
			Size:     binary.LittleEndian.Uint16(entry[4:6]),
			ModuleID: binary.LittleEndian.Uint16(entry[6:8]),
		}
	}
	return blocks, nil
}

// encodeBasicBlocks is the exact inverse of decodeBasicBlocks.
func encodeBasicBlocks(blocks []BasicBlock) []byte {
	data := make([]byte, len(blocks)*bbEntrySize)
	for i, bb := range blocks {
		entry := data[i*bbEntrySize:]
		binary.LittleEndian.PutUint32(entry[0:4], bb.Start)
		binary.LittleEndian.PutUint16(entry[4:6], bb.Size)
		binary.LittleEndian.PutUint16(entry[6:8], bb.ModuleID)
	}
	return data
}
