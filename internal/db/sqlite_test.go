package db

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM kv_store").Scan(&n); err != nil {
		t.Fatalf("kv_store should exist: %v", err)
	}
	if n != 0 {
		t.Errorf("new kv_store has %d rows, want 0", n)
	}
}

func TestOpenSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := db.Exec("INSERT INTO kv_store (key, value_json, updated_at) VALUES ('k', '1', CURRENT_TIMESTAMP)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	var v string
	if err := db.QueryRow("SELECT value_json FROM kv_store WHERE key = 'k'").Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "1" {
		t.Errorf("value_json = %q, want %q", v, "1")
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("OpenSQLite(\"\") should fail")
	}
}

func TestMigrationFS_ContainsKVStore(t *testing.T) {
	for _, name := range []string{"migrations/000001_kv_store.up.sql", "migrations/000001_kv_store.down.sql"} {
		if _, err := MigrationFS.ReadFile(name); err != nil {
			t.Errorf("embedded %s: %v", name, err)
		}
	}
}
