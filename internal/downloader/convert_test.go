package downloader

import (
	"reflect"
	"testing"
)

func TestConvertArgs(t *testing.T) {
	got := convertArgs("/music/Song.flac", "/music/Song.mp3")
	want := []string{
		"-y",
		"-i", "/music/Song.flac",
		"-map_metadata", "0",
		"-codec:a", "libmp3lame",
		"-b:a", "320k",
		"/music/Song.mp3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("convertArgs = %v, want %v", got, want)
	}
}

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/music/Song.flac", "/music/Song.mp3"},
		{"/music/Song.Name.flac", "/music/Song.Name.mp3"},
		{"/music/noext", "/music/noext.mp3"},
	}
	for _, tt := range tests {
		if got := replaceExt(tt.path, ".mp3"); got != tt.want {
			t.Errorf("replaceExt(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
