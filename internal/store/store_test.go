package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%t err=%v", ok, err)
	}

	if err := s.Save(ctx, "a", json.RawMessage(`"12.5"`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "a", json.RawMessage(`"7"`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, err := s.Load(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if string(got) != `"7"` {
		t.Fatalf("expected %q, got %q", `"7"`, got)
	}

	// Corrupt text is stored as is.
	if err := s.Save(ctx, "corrupt", json.RawMessage(`invalid json`)); err != nil {
		t.Fatalf("save corrupt: %v", err)
	}
	got, ok, err = s.Load(ctx, "corrupt")
	if err != nil || !ok || string(got) != "invalid json" {
		t.Fatalf("expected corrupt value back, got %q ok=%t err=%v", got, ok, err)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	testStore(t, s)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Save(context.Background(), "a", json.RawMessage(`1`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calc.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	testStore(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Load(context.Background(), "a")
	if err != nil || !ok || string(got) != `"7"` {
		t.Fatalf("expected persisted value, got %q ok=%t err=%v", got, ok, err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", s)
	}

	if _, err := Open("redis", ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
