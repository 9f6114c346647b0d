package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := Defaults()
	original.NotesDir = filepath.Join(dir, "notes")
	original.Language = "zh"
	original.ProcessLimit = 7

	if err := Save(path, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.NotesDir != original.NotesDir {
		t.Fatalf("NotesDir mismatch: got %q want %q", loaded.NotesDir, original.NotesDir)
	}
	if loaded.Language != "zh" {
		t.Fatalf("Language mismatch: got %q", loaded.Language)
	}
	if loaded.ProcessLimit != 7 {
		t.Fatalf("ProcessLimit mismatch: got %d", loaded.ProcessLimit)
	}
}

func TestLoadBackfillsZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("notes_dir: /tmp/notes\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	defaults := Defaults()
	if loaded.NotesDir != "/tmp/notes" {
		t.Fatalf("NotesDir overridden: %q", loaded.NotesDir)
	}
	if loaded.TimeoutSec != defaults.TimeoutSec {
		t.Fatalf("TimeoutSec not backfilled: %d", loaded.TimeoutSec)
	}
	if loaded.PreferredBackend != defaults.PreferredBackend {
		t.Fatalf("PreferredBackend not backfilled: %q", loaded.PreferredBackend)
	}
	if loaded.ProcessLimit != defaults.ProcessLimit {
		t.Fatalf("ProcessLimit not backfilled: %d", loaded.ProcessLimit)
	}
}

func TestLoadBackfillsNotesDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("language: en\nnotes_dir: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.NotesDir != Defaults().NotesDir {
		t.Fatalf("NotesDir not backfilled: %q", loaded.NotesDir)
	}
}

func TestEnsureCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	notesDir := filepath.Join(dir, "notes")
	t.Setenv("PODSCRIBE_NOTES_DIR", notesDir)

	cfg, err := Ensure(context.Background(), path)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	if cfg.NotesDir != notesDir {
		t.Fatalf("NotesDir = %q, want %q", cfg.NotesDir, notesDir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	if _, err := os.Stat(notesDir); err != nil {
		t.Fatalf("expected notes directory to be created: %v", err)
	}
}

func TestTimeout(t *testing.T) {
	cfg := Config{TimeoutSec: 45}
	if cfg.Timeout() != 45*time.Second {
		t.Fatalf("Timeout() = %v", cfg.Timeout())
	}

	cfg.TimeoutSec = 0
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("zero timeout should fall back to 30s, got %v", cfg.Timeout())
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	secrets, err := LoadSecrets(context.Background())
	if err != nil {
		t.Fatalf("LoadSecrets() error = %v", err)
	}
	if secrets.OpenAIKey != "sk-test" {
		t.Fatalf("OpenAIKey = %q", secrets.OpenAIKey)
	}
}
