package downloader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"soulspot/internal/constants"
)

// RemoteBasename extracts the final path element of a peer's shared
// filename. Peers report paths in their native separator, so both
// backslash and forward slash are treated as separators.
func RemoteBasename(remote string) string {
	if i := strings.LastIndexAny(remote, `\/`); i >= 0 {
		return remote[i+1:]
	}
	return remote
}

// LocateDownload finds a completed download on disk by its remote
// basename, searching root recursively. An exact name match wins;
// failing that the search is retried case-insensitively, since slskd
// may normalize names on some filesystems. On a miss the error carries
// a bounded listing of root, so the track record shows what the daemon
// actually wrote.
func LocateDownload(root, remoteFilename string) (string, error) {
	base := RemoteBasename(remoteFilename)
	if base == "" {
		return "", fmt.Errorf("empty remote filename")
	}

	var exact, folded string
	lowerBase := strings.ToLower(base)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip unreadable entries, keep walking.
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case d.Name() == base:
			exact = path
			return fs.SkipAll
		case folded == "" && strings.ToLower(d.Name()) == lowerBase:
			folded = path
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", root, err)
	}

	if exact != "" {
		return exact, nil
	}
	if folded != "" {
		return folded, nil
	}

	return "", fmt.Errorf("file %q not found under %s; directory tree:\n%s",
		base, root, strings.Join(describeTree(root), "\n"))
}

// describeTree renders a bounded listing of root for diagnostics:
// limited depth, limited files per directory, limited total lines.
func describeTree(root string) []string {
	var lines []string
	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		if depth > constants.DirDumpMaxDepth || len(lines) >= constants.DirDumpMaxLines {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s%s (unreadable: %v)", indent(depth), filepath.Base(dir), err))
			return
		}
		lines = append(lines, indent(depth)+filepath.Base(dir)+"/")
		files := 0
		for _, e := range entries {
			if len(lines) >= constants.DirDumpMaxLines {
				return
			}
			if e.IsDir() {
				walk(filepath.Join(dir, e.Name()), depth+1)
				continue
			}
			if files >= constants.DirDumpMaxFiles {
				continue
			}
			files++
			lines = append(lines, indent(depth+1)+e.Name())
		}
	}
	walk(root, 0)
	return lines
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
