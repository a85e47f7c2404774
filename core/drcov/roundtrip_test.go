package drcov

import (
	"bytes"
	"testing"
)

// TestEncodeByteStable verifies that canonical input survives a
// parse/encode cycle byte for byte, for every table layout.
func TestEncodeByteStable(t *testing.T) {
	row := func(cols string) string { return cols + ", /bin/test\n" }
	cases := map[string][]byte{
		"legacy": sampleLegacy(),
		"v2": []byte("DRCOV VERSION: 2\nDRCOV FLAVOR: test\n" +
			"Module Table: version 2, count 1\n" +
			"Columns: id, base, end, entry, path\n" +
			row("0, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000") +
			"BB Table: 0 bbs\n"),
		"v2 windows": []byte("DRCOV VERSION: 2\nDRCOV FLAVOR: test\n" +
			"Module Table: version 2, count 1\n" +
			"Columns: id, base, end, entry, checksum, timestamp, path\n" +
			row("0, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0x12345678, 0x87654321") +
			"BB Table: 0 bbs\n"),
		"v3": []byte("DRCOV VERSION: 2\nDRCOV FLAVOR: test\n" +
			"Module Table: version 3, count 1\n" +
			"Columns: id, containing_id, start, end, entry, path\n" +
			row("0, -1, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000") +
			"BB Table: 0 bbs\n"),
		"v4 windows": append([]byte("DRCOV VERSION: 2\nDRCOV FLAVOR: test\n"+
			"Module Table: version 4, count 1\n"+
			"Columns: id, containing_id, start, end, entry, offset, checksum, timestamp, path\n"+
			row("0, -1, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0x1000, 0x12345678, 0x87654321")+
			"BB Table: 1 bbs\n"),
			bbBytes(BasicBlock{Start: 0x1000, Size: 32, ModuleID: 0})...),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			out, err := Encode(doc)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(out, input) {
				t.Errorf("re-encoded output differs from input:\ngot:  %q\nwant: %q", out, input)
			}
		})
	}
}

// TestBuildEncodeParse is the full producer path: build, encode, parse back.
func TestBuildEncodeParse(t *testing.T) {
	doc, err := NewBuilder().
		Flavor("frida").
		TableVersion(TableVersionV2).
		AddModule("/bin/program", 0x400000, 0x450000).
		AddCoverage(0, 0x1000, 32).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	wantText := "DRCOV VERSION: 2\n" +
		"DRCOV FLAVOR: frida\n" +
		"Module Table: version 2, count 1\n" +
		"Columns: id, base, end, entry, path\n" +
		"0, 0x0000000000400000, 0x0000000000450000, 0x0000000000000000, /bin/program\n" +
		"BB Table: 1 bbs\n"
	want := append([]byte(wantText), bbBytes(BasicBlock{Start: 0x1000, Size: 32, ModuleID: 0})...)
	if !bytes.Equal(data, want) {
		t.Errorf("encoded output:\ngot:  %q\nwant: %q", data, want)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Flavor != "frida" {
		t.Errorf("Flavor = %q, want %q", parsed.Flavor, "frida")
	}
	if len(parsed.BasicBlocks) != 1 || parsed.BasicBlocks[0].Size != 32 {
		t.Errorf("BasicBlocks = %+v, want one 32-byte block", parsed.BasicBlocks)
	}

	again, err := Encode(parsed)
	if err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Error("second encode not byte-identical to first")
	}
}

// TestEncodeWindowsColumnSelection verifies that any module carrying the
// checksum/timestamp pair switches the whole table to the wide layout.
func TestEncodeWindowsColumnSelection(t *testing.T) {
	doc, err := NewBuilder().
		Flavor("test").
		TableVersion(TableVersionV2).
		AddModuleEntry(Module{ID: 0, Base: 0x400000, End: 0x450000, Path: "/bin/a", Checksum: u32p(0xaa), Timestamp: u32p(0xbb)}).
		AddModuleEntry(Module{ID: 1, Base: 0x500000, End: 0x550000, Path: "/bin/b"}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Contains(data, []byte("Columns: id, base, end, entry, checksum, timestamp, path\n")) {
		t.Errorf("encoded output missing wide column header:\n%q", data)
	}
	if !bytes.Contains(data, []byte("1, 0x0000000000500000, 0x0000000000550000, 0x0000000000000000, 0x00000000, 0x00000000, /bin/b\n")) {
		t.Errorf("module without Windows data should encode with zero defaults:\n%q", data)
	}
}

func TestToWriter(t *testing.T) {
	doc, err := Parse(sampleLegacy())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var buf bytes.Buffer
	if err := ToWriter(doc, &buf); err != nil {
		t.Fatalf("ToWriter failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), sampleLegacy()) {
		t.Error("ToWriter output differs from Encode")
	}
}
