package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
)

// Store errors.
var (
	// ErrNotFound is returned when a session has no config file.
	ErrNotFound = errors.New("session not found")

	// ErrResourceExists is returned by Import when the target filename
	// is already taken and overwrite was not requested.
	ErrResourceExists = errors.New("resource already exists")
)

// Store manages session persistence under a save root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at root, creating the directory if
// needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the save root directory.
func (s *Store) Root() string {
	return s.root
}

// New returns an empty in-memory session with its paths rooted under
// the store. Nothing is written to disk.
func (s *Store) New(name string) *Session {
	return &Session{
		Name:   name,
		Values: NewValues(),
		dir:    filepath.Join(s.root, name),
	}
}

// Exists reports whether a session's config file is present.
func (s *Store) Exists(name string) bool {
	sess := s.New(name)
	_, err := os.Stat(sess.ConfigFile())
	return err == nil
}

// Load reads a session's config file. Lines without a KEY=VALUE shape
// are skipped, as are DISK_/ISO_ keys with a non-numeric index. The
// disk and ISO lists are reconstructed by sorting the numeric index,
// not by line order.
func (s *Store) Load(name string) (*Session, error) {
	sess := s.New(name)

	data, err := os.ReadFile(sess.ConfigFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read session config: %w", err)
	}

	diskMap := make(map[int]string)
	isoMap := make(map[int]string)

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val = strings.Trim(strings.Trim(val, `"`), `'`)

		switch {
		case strings.HasPrefix(key, "DISK_"):
			idx, err := strconv.Atoi(strings.TrimPrefix(key, "DISK_"))
			if err != nil {
				continue
			}
			diskMap[idx] = val
		case strings.HasPrefix(key, "ISO_"):
			idx, err := strconv.Atoi(strings.TrimPrefix(key, "ISO_"))
			if err != nil {
				continue
			}
			isoMap[idx] = val
		default:
			sess.Values.Set(key, val)
		}
	}

	sess.Disks = sortedByIndex(diskMap)
	sess.ISOs = sortedByIndex(isoMap)
	return sess, nil
}

// Save writes the full config file: scalar values in insertion order,
// then DISK_0..n, then ISO_0..n. The file is rewritten in full on
// every call. Values are double-quoted with no escaping, so embedded
// quote characters in filenames are not supported.
func (s *Store) Save(sess *Session) error {
	if err := s.CreateStructure(sess); err != nil {
		return err
	}

	var b strings.Builder
	for _, key := range sess.Values.Keys() {
		fmt.Fprintf(&b, "%s=\"%s\"\n", key, sess.Values.Get(key))
	}
	for i, disk := range sess.Disks {
		fmt.Fprintf(&b, "DISK_%d=\"%s\"\n", i, disk)
	}
	for i, iso := range sess.ISOs {
		fmt.Fprintf(&b, "ISO_%d=\"%s\"\n", i, iso)
	}

	if err := os.WriteFile(sess.ConfigFile(), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write session config: %w", err)
	}
	return nil
}

// CreateStructure creates the session directory and its resource
// subdirectories. Safe to call repeatedly.
func (s *Store) CreateStructure(sess *Session) error {
	for _, dir := range []string{sess.Dir(), sess.SharedDir(), sess.ISODir(), sess.DiskDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	return nil
}

// Delete removes the entire session directory tree. Irreversible;
// confirmation is the caller's responsibility.
func (s *Store) Delete(sess *Session) error {
	if err := os.RemoveAll(sess.Dir()); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns the names of all sessions under the save root, sorted.
// Only directories containing a config file count.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && s.Exists(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Import copies a source file into targetDir under its basename. The
// copy goes through a temp file and a rename, so a failed copy never
// leaves a partial target behind. When the target already exists and
// overwrite is false, ErrResourceExists is returned and the caller
// decides. Returns the imported filename.
func (s *Store) Import(src, targetDir string, overwrite bool) (string, error) {
	expanded, err := homedir.Expand(src)
	if err != nil {
		expanded = src
	}
	expanded, err = filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid source path: %w", err)
	}

	if _, err := os.Stat(expanded); err != nil {
		return "", fmt.Errorf("source file not found: %s", expanded)
	}

	name := filepath.Base(expanded)
	dest := filepath.Join(targetDir, name)

	if _, err := os.Stat(dest); err == nil && !overwrite {
		return name, fmt.Errorf("%w: %s", ErrResourceExists, name)
	}

	if err := copyFile(expanded, dest); err != nil {
		return "", fmt.Errorf("failed to import %s: %w", name, err)
	}
	return name, nil
}

// EnsureVars copies the UEFI vars template into the session on first
// use. Existing variable stores are left alone.
func (s *Store) EnsureVars(sess *Session, template string) error {
	if _, err := os.Stat(sess.VarsFile()); err == nil {
		return nil
	}
	if err := copyFile(template, sess.VarsFile()); err != nil {
		return fmt.Errorf("failed to initialize UEFI variable store: %w", err)
	}
	if err := os.Chmod(sess.VarsFile(), 0644); err != nil {
		return fmt.Errorf("failed to set variable store permissions: %w", err)
	}
	return nil
}

// copyFile copies src over dest atomically via a temp file in the
// destination directory.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".import-" + uuid.NewString()
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func sortedByIndex(m map[int]string) []string {
	indexes := make([]int, 0, len(m))
	for idx := range m {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, m[idx])
	}
	return out
}
