package iohelper

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadText_NilReader(t *testing.T) {
	got, err := ReadText(nil, 10)
	if err != nil {
		t.Errorf("Expected no error for nil reader, got %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty text, got %q", got)
	}
}

func TestReadText_ReplacesIllFormed(t *testing.T) {
	got, err := ReadText(strings.NewReader("ok \xff\xfe end"), 1024)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "ok ") || !strings.HasSuffix(got, " end") {
		t.Errorf("valid text must survive, got %q", got)
	}
	if !strings.Contains(got, "�") {
		t.Errorf("expected replacement character in %q", got)
	}
}

func TestReadText_RespectsLimit(t *testing.T) {
	_, err := ReadText(strings.NewReader(strings.Repeat("x", 101)), 100)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	got, err := ReadText(strings.NewReader(strings.Repeat("x", 100)), 100)
	if err != nil {
		t.Fatalf("input at the limit must be accepted: %v", err)
	}
	if len(got) != 100 {
		t.Errorf("Expected 100 bytes, got %d", len(got))
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burp.log")
	if err := os.WriteFile(path, []byte("GET / HTTP/1.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path, 1024)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got != "GET / HTTP/1.1\n" {
		t.Errorf("ReadFile() = %q", got)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.log"), 1024); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
	if _, err := ReadFile(dir, 1024); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := ReadFile(path, 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized file error = %v, want ErrTooLarge", err)
	}
}
