package session

import (
	"fmt"
	"os"
)

// FileEntry describes a physical file inside a resource directory.
type FileEntry struct {
	Name  string
	Size  int64
	IsDir bool
}

// ListFiles lists the physical files in a resource directory, sorted
// by name. A missing directory yields an empty list, matching the
// tolerant behavior of the rest of the store.
func ListFiles(dir string) ([]FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	out := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		fe := FileEntry{Name: entry.Name(), IsDir: entry.IsDir()}
		if !fe.IsDir {
			if info, err := entry.Info(); err == nil {
				fe.Size = info.Size()
			}
		}
		out = append(out, fe)
	}
	return out, nil
}
