package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadLanguages_Default(t *testing.T) {
	languages := loadLanguages("", zerolog.Nop())

	if !languages.Supported("en") {
		t.Error("expected built-in table to support en")
	}
	if !languages.Supported("hi") {
		t.Error("expected built-in table to support hi")
	}
	if languages.Supported("bho") {
		t.Error("did not expect bho without an override file")
	}
}

func TestLoadLanguages_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	if err := os.WriteFile(path, []byte("bho: bho_Deva\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	languages := loadLanguages(path, zerolog.Nop())

	if !languages.Supported("bho") {
		t.Error("expected override file to add bho")
	}
	if !languages.Supported("en") {
		t.Error("expected overrides to merge over the built-in table, not replace it")
	}
}

func TestLoadLanguages_BadFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	languages := loadLanguages(path, zerolog.Nop())

	if languages == nil {
		t.Fatal("expected fallback table, got nil")
	}
	if !languages.Supported("en") {
		t.Error("expected fallback to the built-in table")
	}
}
