// Package image manages qcow2 disk images and their backing chains
// through the qemu-img utility.
package image

import (
	"encoding/json"
	"fmt"
	"os/exec"
)

// DefaultBinary is the image utility invoked when no override is
// configured.
const DefaultBinary = "qemu-img"

// Info is the subset of `qemu-img info --output=json` output this tool
// relies on. Unknown fields in future qemu-img versions are ignored;
// the backing-filename field being absent means the image is a base
// image.
type Info struct {
	Filename        string `json:"filename"`
	Format          string `json:"format"`
	VirtualSize     int64  `json:"virtual-size"`
	ActualSize      int64  `json:"actual-size"`
	BackingFilename string `json:"backing-filename"`
}

// Tool abstracts the qemu-img operations the backing-chain manager
// needs. The exec-backed implementation is CLITool; tests substitute a
// fake that simulates qcow2 semantics on plain files.
type Tool interface {
	// Info inspects an image's metadata.
	Info(path string) (*Info, error)

	// Create creates a qcow2 image called name inside dir. A non-empty
	// backing names a backing file relative to dir; a non-empty size
	// sets the virtual size of a fresh base image.
	Create(dir, name, backing, size string) error

	// Commit applies an overlay's deltas onto its backing file in
	// place. The overlay file itself is not touched.
	Commit(path string) error
}

// CLITool runs the real qemu-img binary.
type CLITool struct {
	binary string
}

// NewTool returns a Tool backed by the given qemu-img binary, or
// DefaultBinary when empty.
func NewTool(binary string) *CLITool {
	if binary == "" {
		binary = DefaultBinary
	}
	return &CLITool{binary: binary}
}

func (t *CLITool) Info(path string) (*Info, error) {
	out, err := exec.Command(t.binary, "info", "--output=json", path).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect image %s: %w", path, err)
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("unexpected qemu-img info output for %s: %w", path, err)
	}
	return &info, nil
}

func (t *CLITool) Create(dir, name, backing, size string) error {
	args := []string{"create", "-f", "qcow2"}
	if backing != "" {
		args = append(args, "-b", backing, "-F", "qcow2")
	}
	args = append(args, name)
	if size != "" {
		args = append(args, size)
	}

	cmd := exec.Command(t.binary, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to create image %s: %w: %s", name, err, out)
	}
	return nil
}

func (t *CLITool) Commit(path string) error {
	if out, err := exec.Command(t.binary, "commit", path).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to commit image %s: %w: %s", path, err, out)
	}
	return nil
}
