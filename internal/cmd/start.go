package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/qemu"
)

var startMounts []string

var startCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a VM session",
	Long: `Start a VM session with QEMU.

The session's shared folder and any --mount paths are exposed to the
guest as removable USB mass-storage devices. Directories are presented
as read-only VVFAT filesystems, regular files as read-only raw drives.
Mounts given with --mount apply to this run only and are never saved.

Examples:
  qvm start win11
  qvm start win11 --mount ~/Downloads --mount ~/driver.img`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringArrayVarP(&startMounts, "mount", "m", []string{}, "transient host path to attach for this run (repeatable)")

	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	for _, mount := range startMounts {
		expanded, err := homedir.Expand(mount)
		if err != nil {
			expanded = mount
		}
		expanded, err = filepath.Abs(expanded)
		if err != nil {
			return fmt.Errorf("invalid mount path %s: %w", mount, err)
		}
		sess.TransientMounts = append(sess.TransientMounts, expanded)
	}

	// Firmware is the one fatal precondition: without the UEFI pflash
	// pair nothing can boot.
	fw, err := qemu.DetectFirmware(cfg.Firmware.CodePaths, cfg.Firmware.VarsCandidates)
	if err != nil {
		return fmt.Errorf("%w: install ovmf (Debian/Ubuntu) or edk2-ovmf (Fedora/Arch)", err)
	}
	Debug("Firmware code: %s", fw.Code)
	Debug("Vars template: %s", fw.VarsTemplate)

	if err := store.EnsureVars(sess, fw.VarsTemplate); err != nil {
		return err
	}

	qemuArgs, warnings := qemu.BuildArgs(sess, fw)
	for _, warning := range warnings {
		warnf("Warning: %s", warning)
	}
	Debug("QEMU args: %v", qemuArgs)

	okf("Starting %s...", sess.Name)
	fmt.Println(mutedStyle.Render("Attached mounts appear in the guest as removable USB storage."))

	runner := &qemu.Runner{Binary: cfg.QemuBinary}
	if err := runner.Run(qemuArgs); err != nil {
		return err
	}
	fmt.Println("VM stopped.")
	return nil
}
