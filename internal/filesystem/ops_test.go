package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "My Playlist", "My Playlist"},
		{"slashes", `AC/DC - Back\In Black`, "ACDC - BackIn Black"},
		{"all illegal chars", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"trailing dots", "Mix Vol. 2...", "Mix Vol. 2"},
		{"trailing spaces", "name   ", "name"},
		{"only illegal", `<>:"/\|?*`, "unknown"},
		{"only dots and spaces", " .. . ", "unknown"},
		{"empty", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "nested", "dir", "dst.mp3")

	if err := os.WriteFile(src, []byte("audio bytes"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("failed to read dest: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("unexpected contents: %q", data)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "missing.mp3"), filepath.Join(dir, "out.mp3"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
