package qemu

import (
	"fmt"
	"os"

	"github.com/eternamaze/qvm/internal/session"
)

// cpuFeatures is a fixed, highly compatible feature set for
// para-virtualized guests, including the Hyper-V enlightenments
// Windows guests expect.
const cpuFeatures = "host,hv_relaxed,hv_spinlocks=0x1fff,hv_vapic,hv_time," +
	"hv_synic,hv_stimer,hv_reset,hv_vpindex,hv_runtime,hv_frequencies"

// BuildArgs deterministically maps a session and a firmware pair to
// the qemu-system argument vector. It has no side effects: missing
// resource files are skipped from the vector and reported through the
// returned warnings, never removed from the session's lists, so a
// session can always be launched even with some resources absent.
func BuildArgs(sess *session.Session, fw Firmware) (args []string, warnings []string) {
	args = []string{
		"-name", sess.Values.GetDefault(session.KeyVMName, "unknown"),
		"-machine", "q35", "-accel", "kvm",
		"-object", "iothread,id=io0",
		"-cpu", cpuFeatures,
		"-m", sess.Memory(),
		"-smp", sess.CPUCores(),
		"-drive", fmt.Sprintf("if=pflash,format=raw,readonly=on,file=%s", fw.Code),
		"-drive", fmt.Sprintf("if=pflash,format=raw,file=%s", sess.VarsFile()),
		"-device", "virtio-balloon-pci",
		"-device", "virtio-rng-pci",
		"-device", "virtio-serial-pci",
		"-device", "virtio-keyboard-pci",
		"-device", "virtio-tablet-pci",
		"-device", "qemu-xhci,id=usb",
		"-device", "usb-tablet",
		"-device", "usb-kbd",
		"-device", "virtio-vga-gl", "-display", "gtk,gl=on,zoom-to-fit=on",
		"-device", "intel-hda", "-device", "hda-duplex",
		"-device", "virtio-net-pci,netdev=net0,mq=on", "-netdev", "user,id=net0",
	}

	// Boot index stays tied to list position even when files are
	// missing, so reattaching a disk later does not reshuffle boot
	// order.
	for i, disk := range sess.Disks {
		path := sess.DiskPath(disk)
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("disk file missing: %s", disk))
			continue
		}
		driveID := fmt.Sprintf("drive_disk_%d", i)
		args = append(args,
			"-drive", fmt.Sprintf("file=%s,format=qcow2,if=none,id=%s,cache=writeback", path, driveID),
			"-device", fmt.Sprintf("virtio-blk-pci,drive=%s,serial=DISK_%d,bootindex=%d,iothread=io0", driveID, i, i+1),
		)
	}

	// CD-ROM drives carry no device line; QEMU infers an IDE CD-ROM.
	for _, iso := range sess.ISOs {
		path := sess.ISOPath(iso)
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("ISO file missing: %s", iso))
			continue
		}
		args = append(args, "-drive", fmt.Sprintf("file=%s,media=cdrom,readonly=on", path))
	}

	// The default shared folder is always attached, even when empty.
	args = append(args,
		"-drive", fmt.Sprintf("file=fat:ro:%s,format=raw,if=none,id=drive_shared,readonly=on", sess.SharedDir()),
		"-device", "usb-storage,drive=drive_shared,serial=SHARED_AUTO,removable=on",
	)

	for i, mount := range sess.TransientMounts {
		driveID := fmt.Sprintf("drive_trans_%d", i)
		serial := fmt.Sprintf("TRANS_%d", i)

		info, err := os.Stat(mount)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("ignoring invalid mount path: %s", mount))
			continue
		case info.IsDir():
			args = append(args,
				"-drive", fmt.Sprintf("file=fat:ro:%s,format=raw,if=none,id=%s,readonly=on", mount, driveID))
		default:
			args = append(args,
				"-drive", fmt.Sprintf("file=%s,format=raw,if=none,id=%s,readonly=on", mount, driveID))
		}
		args = append(args,
			"-device", fmt.Sprintf("usb-storage,drive=%s,serial=%s,removable=on", driveID, serial))
	}

	return args, warnings
}
