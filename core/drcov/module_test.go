package drcov

import (
	"strings"
	"testing"
)

func u32p(v uint32) *uint32 { return &v }
func u64p(v uint64) *uint64 { return &v }
func i32p(v int32) *int32   { return &v }

// TestDecodeModuleRowLegacy verifies decoding a legacy five-column row.
func TestDecodeModuleRowLegacy(t *testing.T) {
	layout := layoutFor(TableVersionLegacy, false)
	m, err := decodeModuleRow(layout, "3, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, /bin/test", 4)
	if err != nil {
		t.Fatalf("decodeModuleRow failed: %v", err)
	}

	if m.ID != 3 {
		t.Errorf("ID = %d, want 3", m.ID)
	}
	if m.Base != 0x400000 {
		t.Errorf("Base = 0x%x, want 0x400000", m.Base)
	}
	if m.End != 0x450000 {
		t.Errorf("End = 0x%x, want 0x450000", m.End)
	}
	if m.Entry != 0x401000 {
		t.Errorf("Entry = 0x%x, want 0x401000", m.Entry)
	}
	if m.Path != "/bin/test" {
		t.Errorf("Path = %q, want %q", m.Path, "/bin/test")
	}
	if m.ContainingID != nil || m.Offset != nil || m.Checksum != nil || m.Timestamp != nil {
		t.Error("legacy row should leave optional columns nil")
	}
}

// TestDecodeModuleRowHexWithoutPrefix verifies that address columns parse
// as hex even without the 0x prefix.
func TestDecodeModuleRowHexWithoutPrefix(t *testing.T) {
	layout := layoutFor(TableVersionLegacy, false)
	m, err := decodeModuleRow(layout, "0, 400000, 450000, 401000, /bin/test", 4)
	if err != nil {
		t.Fatalf("decodeModuleRow failed: %v", err)
	}
	if m.Base != 0x400000 {
		t.Errorf("Base = 0x%x, want 0x400000", m.Base)
	}
}

// TestDecodeModuleRowV3 verifies containing_id and the start column name.
func TestDecodeModuleRowV3(t *testing.T) {
	layout := layoutFor(TableVersionV3, false)
	m, err := decodeModuleRow(layout, "1, -1, 0x0000000000450000, 0x0000000000460000, 0x0000000000451000, /bin/main.dll", 5)
	if err != nil {
		t.Fatalf("decodeModuleRow failed: %v", err)
	}
	if m.ContainingID == nil || *m.ContainingID != -1 {
		t.Errorf("ContainingID = %v, want -1", m.ContainingID)
	}
	if m.Base != 0x450000 {
		t.Errorf("Base = 0x%x, want 0x450000", m.Base)
	}
}

// TestDecodeModuleRowV4Windows verifies the widest layout.
func TestDecodeModuleRowV4Windows(t *testing.T) {
	layout := layoutFor(TableVersionV4, true)
	m, err := decodeModuleRow(layout,
		"0, -1, 0x0000000000400000, 0x0000000000500000, 0x0000000000401000, 0x1000, 0x12345678, 0x87654321, /usr/bin/test", 5)
	if err != nil {
		t.Fatalf("decodeModuleRow failed: %v", err)
	}
	if m.Offset == nil || *m.Offset != 0x1000 {
		t.Errorf("Offset = %v, want 0x1000", m.Offset)
	}
	if m.Checksum == nil || *m.Checksum != 0x12345678 {
		t.Errorf("Checksum = %v, want 0x12345678", m.Checksum)
	}
	if m.Timestamp == nil || *m.Timestamp != 0x87654321 {
		t.Errorf("Timestamp = %v, want 0x87654321", m.Timestamp)
	}
}

// TestDecodeModuleRowPathWithCommas verifies that the final path column
// keeps embedded commas.
func TestDecodeModuleRowPathWithCommas(t *testing.T) {
	layout := layoutFor(TableVersionLegacy, false)
	m, err := decodeModuleRow(layout, "0, 0x400000, 0x450000, 0x401000, /path,with,commas/file", 4)
	if err != nil {
		t.Fatalf("decodeModuleRow failed: %v", err)
	}
	if m.Path != "/path,with,commas/file" {
		t.Errorf("Path = %q, want %q", m.Path, "/path,with,commas/file")
	}
}

// TestDecodeModuleRowMalformed verifies strict failures on arity and value
// errors.
func TestDecodeModuleRowMalformed(t *testing.T) {
	layout := layoutFor(TableVersionLegacy, false)

	cases := []struct {
		name string
		line string
	}{
		{"too few columns", "0, 0x400000, 0x450000"},
		{"bad id", "x, 0x400000, 0x450000, 0x401000, /bin/test"},
		{"bad base", "0, zz, 0x450000, 0x401000, /bin/test"},
		{"empty base", "0, , 0x450000, 0x401000, /bin/test"},
	}
	for _, tc := range cases {
		if _, err := decodeModuleRow(layout, tc.line, 4); err == nil {
			t.Errorf("%s: decodeModuleRow(%q) should fail", tc.name, tc.line)
		}
	}
}

// TestEncodeModuleRowCanonical verifies canonical column formatting.
func TestEncodeModuleRowCanonical(t *testing.T) {
	m := Module{
		ID:    0,
		Base:  0x400000,
		End:   0x450000,
		Entry: 0x401000,
		Path:  "/bin/test",
	}

	got := encodeModuleRow(layoutFor(TableVersionLegacy, false), &m)
	want := "0, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, /bin/test"
	if got != want {
		t.Errorf("legacy row = %q, want %q", got, want)
	}

	m.ContainingID = i32p(-1)
	m.Offset = u64p(0x1000)
	m.Checksum = u32p(0x12345678)
	m.Timestamp = u32p(0x87654321)
	got = encodeModuleRow(layoutFor(TableVersionV4, true), &m)
	want = "0, -1, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0x1000, 0x12345678, 0x87654321, /bin/test"
	if got != want {
		t.Errorf("v4 row = %q, want %q", got, want)
	}
}

// TestEncodeModuleRowDefaults verifies defaults for absent optional columns
// when the layout requires them.
func TestEncodeModuleRowDefaults(t *testing.T) {
	m := Module{Base: 0x400000, End: 0x500000, Path: "/bin/x"}
	got := encodeModuleRow(layoutFor(TableVersionV4, false), &m)
	want := "0, -1, 0x0000000000400000, 0x0000000000500000, 0x0000000000000000, 0x0, /bin/x"
	if got != want {
		t.Errorf("row = %q, want %q", got, want)
	}
}

// TestRowRoundTrip verifies encode(decode(x)) == x for every layout.
func TestRowRoundTrip(t *testing.T) {
	rows := map[string]string{
		"legacy":     "7, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, /bin/test",
		"v2":         "7, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, /bin/test",
		"v2 windows": "7, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0x12345678, 0x87654321, /bin/test",
		"v3":         "7, -1, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, /bin/test",
		"v3 windows": "7, 0, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0xabcdef00, 0x11223344, /bin/test",
		"v4":         "7, -1, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0x0, /bin/test",
		"v4 windows": "7, -1, 0x0000000000400000, 0x0000000000450000, 0x0000000000401000, 0x1000, 0x12345678, 0x87654321, /bin/test",
	}
	layouts := map[string]moduleLayout{
		"legacy":     layoutFor(TableVersionLegacy, false),
		"v2":         layoutFor(TableVersionV2, false),
		"v2 windows": layoutFor(TableVersionV2, true),
		"v3":         layoutFor(TableVersionV3, false),
		"v3 windows": layoutFor(TableVersionV3, true),
		"v4":         layoutFor(TableVersionV4, false),
		"v4 windows": layoutFor(TableVersionV4, true),
	}

	for name, row := range rows {
		m, err := decodeModuleRow(layouts[name], row, 1)
		if err != nil {
			t.Errorf("%s: decode failed: %v", name, err)
			continue
		}
		if got := encodeModuleRow(layouts[name], &m); got != row {
			t.Errorf("%s: round trip = %q, want %q", name, got, row)
		}
	}
}

// TestMatchLayout verifies Columns header resolution, including the base
// alias for start.
func TestMatchLayout(t *testing.T) {
	split := func(s string) []string {
		cols := strings.Split(s, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		return cols
	}

	l, ok := matchLayout(TableVersionV4, split("id, containing_id, start, end, entry, offset, checksum, timestamp, path"))
	if !ok {
		t.Fatal("v4 windows layout not matched")
	}
	if !l.windows || l.version != TableVersionV4 {
		t.Errorf("matched layout = %+v, want v4 windows", l)
	}

	if _, ok := matchLayout(TableVersionV3, split("id, containing_id, base, end, entry, path")); !ok {
		t.Error("base should be accepted as alias for start")
	}

	if _, ok := matchLayout(TableVersionV2, split("id, base, end, entry, future_field, path")); ok {
		t.Error("unknown column set should not match")
	}

	if _, ok := matchLayout(TableVersionV2, split("path, id, base, end, entry")); ok {
		t.Error("reordered columns should not match")
	}
}
