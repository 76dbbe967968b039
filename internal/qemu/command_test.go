package qemu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternamaze/qvm/internal/session"
)

func newTestSession(t *testing.T) (*session.Store, *session.Session) {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	sess := store.New("vm")
	sess.Values.Set(session.KeyVMName, "vm")
	sess.Values.Set(session.KeyMemory, "8G")
	sess.Values.Set(session.KeyCPUCores, "4")
	require.NoError(t, store.Save(sess))
	return store, sess
}

func testFirmware(t *testing.T) Firmware {
	t.Helper()
	dir := t.TempDir()
	code := filepath.Join(dir, "OVMF_CODE.fd")
	vars := filepath.Join(dir, "OVMF_VARS.fd")
	require.NoError(t, os.WriteFile(code, []byte("code"), 0644))
	require.NoError(t, os.WriteFile(vars, []byte("vars"), 0644))
	return Firmware{Code: code, VarsTemplate: vars}
}

// countPrefixed counts argument values starting with prefix.
func countPrefixed(args []string, prefix string) int {
	n := 0
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			n++
		}
	}
	return n
}

func findPrefixed(args []string, prefix string) []string {
	var out []string
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			out = append(out, arg)
		}
	}
	return out
}

func TestBuildArgsPreamble(t *testing.T) {
	_, sess := newTestSession(t)
	fw := testFirmware(t)

	args, warnings := BuildArgs(sess, fw)
	assert.Empty(t, warnings)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-name vm")
	assert.Contains(t, joined, "-machine q35")
	assert.Contains(t, joined, "-accel kvm")
	assert.Contains(t, joined, "iothread,id=io0")
	assert.Contains(t, joined, "-m 8G")
	assert.Contains(t, joined, "-smp 4")
	assert.Contains(t, joined, "hv_time")
	assert.Contains(t, joined, fmt.Sprintf("if=pflash,format=raw,readonly=on,file=%s", fw.Code))
	assert.Contains(t, joined, fmt.Sprintf("if=pflash,format=raw,file=%s", sess.VarsFile()))
	assert.Contains(t, joined, "virtio-net-pci,netdev=net0,mq=on")
	assert.Contains(t, joined, "user,id=net0")
	for _, device := range []string{"virtio-balloon-pci", "virtio-rng-pci", "virtio-serial-pci",
		"virtio-keyboard-pci", "virtio-tablet-pci", "qemu-xhci,id=usb", "usb-tablet", "usb-kbd",
		"virtio-vga-gl", "intel-hda", "hda-duplex"} {
		assert.Contains(t, args, device)
	}
}

func TestBuildArgsConfigFallbacks(t *testing.T) {
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	sess := store.New("vm")
	require.NoError(t, store.Save(sess))

	args, _ := BuildArgs(sess, testFirmware(t))
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-name unknown")
	assert.Contains(t, joined, "-m 4G")
	assert.Contains(t, joined, "-smp 2")
}

func TestBuildArgsEmptySessionHasExactlyOneUSBStorage(t *testing.T) {
	_, sess := newTestSession(t)

	args, warnings := BuildArgs(sess, testFirmware(t))
	assert.Empty(t, warnings)

	devices := findPrefixed(args, "usb-storage,")
	require.Len(t, devices, 1)
	assert.Contains(t, devices[0], "drive=drive_shared")
	assert.Contains(t, devices[0], "serial=SHARED_AUTO")
	assert.Contains(t, devices[0], "removable=on")

	shared := findPrefixed(args, "file=fat:ro:")
	require.Len(t, shared, 1)
	assert.Contains(t, shared[0], sess.SharedDir())
}

func TestBuildArgsBootIndexNotRenumberedAfterSkips(t *testing.T) {
	_, sess := newTestSession(t)
	sess.Disks = []string{"a.qcow2", "b.qcow2", "c.qcow2"}

	// a.qcow2 deliberately missing on disk.
	require.NoError(t, os.WriteFile(sess.DiskPath("b.qcow2"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(sess.DiskPath("c.qcow2"), []byte("c"), 0644))

	args, warnings := BuildArgs(sess, testFirmware(t))

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "a.qcow2")

	devices := findPrefixed(args, "virtio-blk-pci,")
	require.Len(t, devices, 2)
	assert.Contains(t, devices[0], "drive=drive_disk_1")
	assert.Contains(t, devices[0], "serial=DISK_1")
	assert.Contains(t, devices[0], "bootindex=2")
	assert.Contains(t, devices[1], "drive=drive_disk_2")
	assert.Contains(t, devices[1], "bootindex=3")
	assert.NotContains(t, strings.Join(args, " "), "a.qcow2")

	for _, device := range devices {
		assert.Contains(t, device, "iothread=io0")
	}

	drives := findPrefixed(args, "file="+sess.DiskDir())
	for _, drive := range drives {
		assert.Contains(t, drive, "format=qcow2")
		assert.Contains(t, drive, "cache=writeback")
	}
}

func TestBuildArgsISOs(t *testing.T) {
	_, sess := newTestSession(t)
	sess.ISOs = []string{"present.iso", "missing.iso"}
	require.NoError(t, os.WriteFile(sess.ISOPath("present.iso"), []byte("iso"), 0644))

	args, warnings := BuildArgs(sess, testFirmware(t))

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "missing.iso")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, fmt.Sprintf("file=%s,media=cdrom,readonly=on", sess.ISOPath("present.iso")))
	assert.NotContains(t, joined, "missing.iso")

	// ISO drives never get a paired device line.
	assert.Equal(t, 0, countPrefixed(args, "ide-cd"))
}

func TestBuildArgsTransientMounts(t *testing.T) {
	_, sess := newTestSession(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "payload.img")
	require.NoError(t, os.WriteFile(file, []byte("raw"), 0644))

	sess.TransientMounts = []string{dir, file, "/nonexistent/path"}

	args, warnings := BuildArgs(sess, testFirmware(t))

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "/nonexistent/path")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, fmt.Sprintf("file=fat:ro:%s,format=raw,if=none,id=drive_trans_0,readonly=on", dir))
	assert.Contains(t, joined, fmt.Sprintf("file=%s,format=raw,if=none,id=drive_trans_1,readonly=on", file))
	assert.Contains(t, joined, "usb-storage,drive=drive_trans_0,serial=TRANS_0,removable=on")
	assert.Contains(t, joined, "usb-storage,drive=drive_trans_1,serial=TRANS_1,removable=on")

	// Shared folder plus the two valid transient mounts.
	assert.Equal(t, 3, countPrefixed(args, "usb-storage,"))
}

func TestBuildArgsDeterministic(t *testing.T) {
	_, sess := newTestSession(t)
	sess.Disks = []string{"a.qcow2"}
	require.NoError(t, os.WriteFile(sess.DiskPath("a.qcow2"), []byte("a"), 0644))
	fw := testFirmware(t)

	first, _ := BuildArgs(sess, fw)
	second, _ := BuildArgs(sess, fw)
	assert.Equal(t, first, second)
}
