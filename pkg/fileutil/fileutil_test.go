package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	for _, filename := range []string{"Hello.em", "LOOPS.EM", "fib.em"} {
		if err := os.WriteFile(filepath.Join(tmpDir, filename), []byte("x;"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "classes.em"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "Hello.em", true, "Hello.em"},
		{"lowercase search", "hello.em", true, "Hello.em"},
		{"uppercase search", "FIB.EM", true, "fib.em"},
		{"mixed search for uppercase file", "Loops.em", true, "LOOPS.EM"},
		{"directories are skipped", "classes.em", false, ""},
		{"missing file", "arrays.em", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFileCaseInsensitive(tmpDir, tt.searchName)
			if !tt.shouldFind {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := filepath.Join(tmpDir, tt.expectedMatch); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestFindFileCaseInsensitive_MissingDirectory(t *testing.T) {
	if _, err := FindFileCaseInsensitive(filepath.Join(t.TempDir(), "nope"), "a.em"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFindFileCaseInsensitiveFS(t *testing.T) {
	fsys := fstest.MapFS{
		"examples/Hello.em": {Data: []byte("x;")},
		"examples/fib.em":   {Data: []byte("y;")},
	}

	got, err := FindFileCaseInsensitiveFS(fsys, "examples", "HELLO.EM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "examples/Hello.em" {
		t.Errorf("got %q, want %q", got, "examples/Hello.em")
	}

	if _, err := FindFileCaseInsensitiveFS(fsys, "examples", "loops.em"); err == nil {
		t.Error("expected error for missing file")
	}
}
