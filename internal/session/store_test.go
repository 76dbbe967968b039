package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := store.New("win11")
	sess.Values.Set(KeyVMName, "win11")
	sess.Values.Set(KeyMemory, "8G")
	sess.Values.Set(KeyCPUCores, "4")
	sess.Disks = []string{"system.qcow2", "data.qcow2"}
	sess.ISOs = []string{"installer.iso"}
	sess.TransientMounts = []string{"/tmp/never-saved"}

	require.NoError(t, store.Save(sess))

	loaded, err := store.Load("win11")
	require.NoError(t, err)

	assert.Equal(t, "win11", loaded.Values.Get(KeyVMName))
	assert.Equal(t, "8G", loaded.Memory())
	assert.Equal(t, "4", loaded.CPUCores())
	assert.Equal(t, []string{"system.qcow2", "data.qcow2"}, loaded.Disks)
	assert.Equal(t, []string{"installer.iso"}, loaded.ISOs)

	// Transient mounts are session-lifetime only.
	assert.Empty(t, loaded.TransientMounts)
}

func TestLoadSortsByIndexNotLineOrder(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	require.NoError(t, store.CreateStructure(sess))

	content := "DISK_1=\"b.qcow2\"\n" +
		"ISO_1=\"second.iso\"\n" +
		"DISK_0=\"a.qcow2\"\n" +
		"ISO_0=\"first.iso\"\n"
	require.NoError(t, os.WriteFile(sess.ConfigFile(), []byte(content), 0644))

	loaded, err := store.Load("vm")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.qcow2", "b.qcow2"}, loaded.Disks)
	assert.Equal(t, []string{"first.iso", "second.iso"}, loaded.ISOs)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	require.NoError(t, store.CreateStructure(sess))

	content := "this line has no assignment\n" +
		"MEM_SIZE=\"2G\"\n" +
		"DISK_x=\"bad-index.qcow2\"\n" +
		"ISO_=\"no-index.iso\"\n" +
		"DISK_0=\"good.qcow2\"\n" +
		"\n"
	require.NoError(t, os.WriteFile(sess.ConfigFile(), []byte(content), 0644))

	loaded, err := store.Load("vm")
	require.NoError(t, err)
	assert.Equal(t, "2G", loaded.Memory())
	assert.Equal(t, []string{"good.qcow2"}, loaded.Disks)
	assert.Empty(t, loaded.ISOs)
}

func TestLoadNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRewritesInFull(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	sess.Values.Set(KeyVMName, "vm")
	sess.Disks = []string{"a.qcow2", "b.qcow2"}
	require.NoError(t, store.Save(sess))

	sess.Disks = []string{"a.qcow2"}
	require.NoError(t, store.Save(sess))

	data, err := os.ReadFile(sess.ConfigFile())
	require.NoError(t, err)
	assert.Contains(t, string(data), "DISK_0=\"a.qcow2\"")
	assert.NotContains(t, string(data), "DISK_1")
	assert.NotContains(t, string(data), "b.qcow2")
}

func TestSaveKeepsScalarOrder(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	require.NoError(t, store.CreateStructure(sess))

	// Keys in a non-default order, with a custom one in the middle.
	content := "CPU_CORES=\"2\"\nEXTRA_FLAG=\"on\"\nVM_NAME=\"vm\"\nMEM_SIZE=\"4G\"\n"
	require.NoError(t, os.WriteFile(sess.ConfigFile(), []byte(content), 0644))

	loaded, err := store.Load("vm")
	require.NoError(t, err)
	require.NoError(t, store.Save(loaded))

	data, err := os.ReadFile(sess.ConfigFile())
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestExistsAndList(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.Exists("vm"))

	sess := store.New("vm")
	sess.Values.Set(KeyVMName, "vm")
	require.NoError(t, store.Save(sess))
	assert.True(t, store.Exists("vm"))

	// A directory without a config file is not a session.
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "not-a-session"), 0755))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"vm"}, names)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	sess.Values.Set(KeyVMName, "vm")
	require.NoError(t, store.Save(sess))

	require.NoError(t, store.Delete(sess))
	assert.False(t, store.Exists("vm"))
	_, err := os.Stat(sess.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestCreateStructureIdempotent(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")

	require.NoError(t, store.CreateStructure(sess))
	require.NoError(t, store.CreateStructure(sess))

	for _, dir := range []string{sess.SharedDir(), sess.ISODir(), sess.DiskDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestImport(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	require.NoError(t, store.CreateStructure(sess))

	src := filepath.Join(t.TempDir(), "image.iso")
	require.NoError(t, os.WriteFile(src, []byte("iso payload"), 0644))

	t.Run("copies under basename", func(t *testing.T) {
		name, err := store.Import(src, sess.ISODir(), false)
		require.NoError(t, err)
		assert.Equal(t, "image.iso", name)

		data, err := os.ReadFile(sess.ISOPath("image.iso"))
		require.NoError(t, err)
		assert.Equal(t, "iso payload", string(data))
	})

	t.Run("collision without overwrite", func(t *testing.T) {
		name, err := store.Import(src, sess.ISODir(), false)
		assert.ErrorIs(t, err, ErrResourceExists)
		assert.Equal(t, "image.iso", name)
	})

	t.Run("collision with overwrite", func(t *testing.T) {
		require.NoError(t, os.WriteFile(src, []byte("new payload"), 0644))

		name, err := store.Import(src, sess.ISODir(), true)
		require.NoError(t, err)
		assert.Equal(t, "image.iso", name)

		data, err := os.ReadFile(sess.ISOPath("image.iso"))
		require.NoError(t, err)
		assert.Equal(t, "new payload", string(data))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := store.Import("/nonexistent/file.iso", sess.ISODir(), false)
		assert.Error(t, err)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := ListFiles(sess.ISODir())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "image.iso", entries[0].Name)
	})
}

func TestEnsureVars(t *testing.T) {
	store := newTestStore(t)
	sess := store.New("vm")
	require.NoError(t, store.CreateStructure(sess))

	template := filepath.Join(t.TempDir(), "OVMF_VARS.fd")
	require.NoError(t, os.WriteFile(template, []byte("vars template"), 0644))

	require.NoError(t, store.EnsureVars(sess, template))
	data, err := os.ReadFile(sess.VarsFile())
	require.NoError(t, err)
	assert.Equal(t, "vars template", string(data))

	// A second call must not clobber the live variable store.
	require.NoError(t, os.WriteFile(sess.VarsFile(), []byte("guest state"), 0644))
	require.NoError(t, store.EnsureVars(sess, template))

	data, err = os.ReadFile(sess.VarsFile())
	require.NoError(t, err)
	assert.Equal(t, "guest state", string(data))
}
