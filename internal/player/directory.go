package player

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/drgolem/directoryplayer/pkg/decoders"
)

// ListDirectory returns the supported audio files directly inside dir,
// sorted by filename, as absolute paths. If path is itself a supported
// audio file rather than a directory, it is returned as a single-element
// queue.
func ListDirectory(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if !info.IsDir() {
		return []string{abs}, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !decoders.IsSupportedExtension(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(abs, e.Name()))
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})

	return files, nil
}
