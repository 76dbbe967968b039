package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eternamaze/qvm/internal/session"
)

// State classifies a disk image within its backing chain.
type State int

const (
	// StateUnknown means the image could not be inspected (missing
	// file, malformed metadata). All transitions refuse to proceed on
	// an unknown state.
	StateUnknown State = iota

	// StateBase is an image with no backing file reference.
	StateBase

	// StateOverlay is a copy-on-write image referencing a backing
	// file, resolved relative to the disk directory.
	StateOverlay
)

func (s State) String() string {
	switch s {
	case StateBase:
		return "base"
	case StateOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// Chain-manager errors.
var (
	ErrUnknownState   = errors.New("disk state could not be determined")
	ErrNotOverlay     = errors.New("disk is not an overlay")
	ErrNotBase        = errors.New("disk is not a base image")
	ErrOverlayExists  = errors.New("overlay file already exists")
	ErrBackingMissing = errors.New("backing file is missing")
	ErrDiskExists     = errors.New("disk file already exists")
)

// OverlaySuffix is appended to a disk's stem to name its overlay.
const OverlaySuffix = ".snap.qcow2"

// OverlayName derives the overlay filename for a disk.
func OverlayName(disk string) string {
	return strings.TrimSuffix(disk, filepath.Ext(disk)) + OverlaySuffix
}

// Manager moves a session's disks between base and overlay states.
// Every transition persists the session's disk list immediately after
// a successful filesystem operation, ordered so the persisted config
// never references a file that does not exist: repoint before delete,
// never the other way around. Destructive-action confirmation is the
// caller's responsibility.
type Manager struct {
	store *session.Store
	tool  Tool
}

// NewManager returns a backing-chain manager using the given store for
// persistence and tool for image operations.
func NewManager(store *session.Store, tool Tool) *Manager {
	return &Manager{store: store, tool: tool}
}

// Inspect classifies the disk at the given list index. Inspection
// failures yield StateUnknown with a nil Info, not an error: unknown
// is an explicit outcome, distinct from base.
func (m *Manager) Inspect(sess *session.Session, index int) (State, *Info) {
	path := sess.DiskPath(sess.Disks[index])
	if _, err := os.Stat(path); err != nil {
		return StateUnknown, nil
	}
	info, err := m.tool.Info(path)
	if err != nil {
		return StateUnknown, nil
	}
	if info.BackingFilename != "" {
		return StateOverlay, info
	}
	return StateBase, info
}

// CreateDisk creates a fresh base image in the session's disk
// directory and appends it to the disk list.
func (m *Manager) CreateDisk(sess *session.Session, name, size string) error {
	if _, err := os.Stat(sess.DiskPath(name)); err == nil {
		return fmt.Errorf("%w: %s", ErrDiskExists, name)
	}
	if err := m.tool.Create(sess.DiskDir(), name, "", size); err != nil {
		return err
	}
	sess.Disks = append(sess.Disks, name)
	return m.store.Save(sess)
}

// CreateOverlay moves a base disk into overlay mode: a new qcow2 file
// backed by the current disk, with the disk-list slot repointed to the
// overlay. The base file is untouched. Fails without mutating the disk
// list if the overlay filename is already taken. Returns the overlay
// filename.
func (m *Manager) CreateOverlay(sess *session.Session, index int) (string, error) {
	disk := sess.Disks[index]
	state, _ := m.Inspect(sess, index)
	switch state {
	case StateUnknown:
		return "", fmt.Errorf("%w: %s", ErrUnknownState, disk)
	case StateOverlay:
		return "", fmt.Errorf("%w: %s", ErrNotBase, disk)
	}

	overlay := OverlayName(disk)
	if _, err := os.Stat(sess.DiskPath(overlay)); err == nil {
		return "", fmt.Errorf("%w: %s", ErrOverlayExists, overlay)
	}

	if err := m.tool.Create(sess.DiskDir(), overlay, disk, ""); err != nil {
		return "", err
	}
	sess.Disks[index] = overlay
	if err := m.store.Save(sess); err != nil {
		return "", err
	}
	return overlay, nil
}

// Reset discards all writes in an overlay by deleting it and
// recreating an empty overlay with the same name and backing file. The
// disk list is unchanged.
func (m *Manager) Reset(sess *session.Session, index int) error {
	disk := sess.Disks[index]
	state, info := m.Inspect(sess, index)
	switch state {
	case StateUnknown:
		return fmt.Errorf("%w: %s", ErrUnknownState, disk)
	case StateBase:
		return fmt.Errorf("%w: %s", ErrNotOverlay, disk)
	}

	if err := os.Remove(sess.DiskPath(disk)); err != nil {
		return fmt.Errorf("failed to remove overlay: %w", err)
	}
	return m.tool.Create(sess.DiskDir(), disk, info.BackingFilename, "")
}

// Commit applies the overlay's deltas onto its backing base image in
// place. The overlay file is left as-is afterwards, so its deltas stay
// visible on the next run; use CommitReset to start clean instead.
func (m *Manager) Commit(sess *session.Session, index int) error {
	disk := sess.Disks[index]
	state, _ := m.Inspect(sess, index)
	switch state {
	case StateUnknown:
		return fmt.Errorf("%w: %s", ErrUnknownState, disk)
	case StateBase:
		return fmt.Errorf("%w: %s", ErrNotOverlay, disk)
	}
	return m.tool.Commit(sess.DiskPath(disk))
}

// CommitReset commits the overlay into its base and then resets the
// overlay to empty, so subsequent runs start from the freshly
// committed base.
func (m *Manager) CommitReset(sess *session.Session, index int) error {
	if err := m.Commit(sess, index); err != nil {
		return err
	}
	return m.Reset(sess, index)
}

// Discard drops the overlay from the configuration and switches the
// disk-list slot back to the backing file. Refuses if the backing file
// is absent, leaving the overlay active and unmodified. The repointed
// list is persisted before the overlay file is deleted; when the
// delete itself fails the configuration is still consistent and the
// error only reports the leftover file. Returns the backing filename.
func (m *Manager) Discard(sess *session.Session, index int) (string, error) {
	disk := sess.Disks[index]
	state, info := m.Inspect(sess, index)
	switch state {
	case StateUnknown:
		return "", fmt.Errorf("%w: %s", ErrUnknownState, disk)
	case StateBase:
		return "", fmt.Errorf("%w: %s", ErrNotOverlay, disk)
	}

	backing := info.BackingFilename
	if _, err := os.Stat(sess.DiskPath(backing)); err != nil {
		return "", fmt.Errorf("%w: %s", ErrBackingMissing, backing)
	}

	sess.Disks[index] = backing
	if err := m.store.Save(sess); err != nil {
		sess.Disks[index] = disk
		return "", err
	}

	if err := os.Remove(sess.DiskPath(disk)); err != nil {
		return backing, fmt.Errorf("configuration updated but overlay file could not be removed: %w", err)
	}
	return backing, nil
}
