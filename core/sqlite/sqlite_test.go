package sqlite

import (
	"path/filepath"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("Info.DriverName = %q, want %q", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("Info.IsCGO = %v, want %v", info.IsCGO, IsCGO())
	}
	if info.Package == "" {
		t.Error("Info.Package should name the driver package")
	}

	switch DriverType() {
	case "purego", "cgo":
	default:
		t.Errorf("DriverType = %q, want purego or cgo", DriverType())
	}
}

func TestOpenAndQuery(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t (name) VALUES (?)`, "coverage"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM t WHERE id = 1`).Scan(&name); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if name != "coverage" {
		t.Errorf("name = %q, want %q", name, "coverage")
	}
}
