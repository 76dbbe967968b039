package session

import "path/filepath"

// Well-known scalar configuration keys.
const (
	KeyVMName   = "VM_NAME"
	KeyMemory   = "MEM_SIZE"
	KeyCPUCores = "CPU_CORES"
)

// Names of the files and directories inside a session directory.
const (
	ConfigFileName = "config.conf"
	VarsFileName   = "OVMF_VARS.fd"
	SharedDirName  = "shared"
	ISODirName     = "isos"
	DiskDirName    = "disks"
)

// Values holds scalar configuration entries in insertion order, so a
// load/save cycle rewrites the config file with the keys in the same
// order they were read.
type Values struct {
	keys []string
	m    map[string]string
}

// NewValues returns an empty ordered value set.
func NewValues() *Values {
	return &Values{m: make(map[string]string)}
}

// Set stores a value, appending the key on first use.
func (v *Values) Set(key, value string) {
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = value
}

// Get returns the value for key, or "" when unset.
func (v *Values) Get(key string) string {
	return v.m[key]
}

// GetDefault returns the value for key, or fallback when unset or empty.
func (v *Values) GetDefault(key, fallback string) string {
	if val, ok := v.m[key]; ok && val != "" {
		return val
	}
	return fallback
}

// Keys returns the keys in insertion order.
func (v *Values) Keys() []string {
	return v.keys
}

// Len returns the number of stored keys.
func (v *Values) Len() int {
	return len(v.keys)
}

// Session is a named VM session backed by a directory under the save
// root: a config file, a per-session UEFI variable store, and the three
// resource directories (shared/, isos/, disks/).
type Session struct {
	Name   string
	Values *Values
	Disks  []string
	ISOs   []string

	// TransientMounts are host paths attached for the next run only.
	// They are never written to the config file.
	TransientMounts []string

	dir string
}

// Dir returns the session directory.
func (s *Session) Dir() string {
	return s.dir
}

// ConfigFile returns the path of the persisted configuration file. Its
// existence is the sole existence test for a session.
func (s *Session) ConfigFile() string {
	return filepath.Join(s.dir, ConfigFileName)
}

// VarsFile returns the path of the per-session UEFI variable store.
func (s *Session) VarsFile() string {
	return filepath.Join(s.dir, VarsFileName)
}

// SharedDir returns the default shared folder directory.
func (s *Session) SharedDir() string {
	return filepath.Join(s.dir, SharedDirName)
}

// ISODir returns the ISO image directory.
func (s *Session) ISODir() string {
	return filepath.Join(s.dir, ISODirName)
}

// DiskDir returns the disk image directory.
func (s *Session) DiskDir() string {
	return filepath.Join(s.dir, DiskDirName)
}

// DiskPath resolves a disk filename inside the disk directory.
func (s *Session) DiskPath(name string) string {
	return filepath.Join(s.DiskDir(), name)
}

// ISOPath resolves an ISO filename inside the ISO directory.
func (s *Session) ISOPath(name string) string {
	return filepath.Join(s.ISODir(), name)
}

// Memory returns the configured memory size, defaulting to 4G.
func (s *Session) Memory() string {
	return s.Values.GetDefault(KeyMemory, "4G")
}

// CPUCores returns the configured core count, defaulting to 2.
func (s *Session) CPUCores() string {
	return s.Values.GetDefault(KeyCPUCores, "2")
}
