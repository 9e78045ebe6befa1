package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("termination.checkmate", map[string]any{"Winner": "White"})
	if err != nil || got != "White wins by checkmate." {
		t.Fatalf("Render = %q, %v", got, err)
	}
	if _, err := c.Render("errors.illegal_move", map[string]any{}); err == nil {
		t.Fatalf("expected missingkey error")
	}
	if got := c.Text("errors.nope", nil, "fallback"); got != "fallback" {
		t.Fatalf("Text fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("errors:\n  out_of_turn: \"Wait for your opponent.\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("errors.out_of_turn", nil, ""); got != "Wait for your opponent." {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("termination.stalemate", nil, ""); got != "Draw by stalemate." {
		t.Fatalf("defaults lost: %q", got)
	}
}

func TestOverrideDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("errors:\n  conflict: x\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestNilCatalogText(t *testing.T) {
	var c *Catalog
	if got := c.Text("errors.internal", nil, "fb"); got != "fb" {
		t.Fatalf("nil catalog Text = %q", got)
	}
}
