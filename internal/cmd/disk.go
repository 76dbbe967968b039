package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/image"
	"github.com/eternamaze/qvm/internal/session"
)

var diskCreateSize string

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Manage a session's disk images",
}

var diskListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List a session's disks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiskList,
}

var diskCreateCmd = &cobra.Command{
	Use:   "create <name> <file>",
	Short: "Create a new blank qcow2 disk and attach it",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiskCreate,
}

var diskImportCmd = &cobra.Command{
	Use:   "import <name> <path>",
	Short: "Copy an existing disk image into the session and attach it",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiskImport,
}

var diskDetachCmd = &cobra.Command{
	Use:   "detach <name> <disk>",
	Short: "Remove a disk from the configuration (the file is kept)",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiskDetach,
}

func init() {
	diskCreateCmd.Flags().StringVarP(&diskCreateSize, "size", "s", "60G", "virtual disk size")

	diskCmd.AddCommand(diskListCmd)
	diskCmd.AddCommand(diskCreateCmd)
	diskCmd.AddCommand(diskImportCmd)
	diskCmd.AddCommand(diskDetachCmd)
	rootCmd.AddCommand(diskCmd)
}

func runDiskList(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	if len(sess.Disks) == 0 {
		fmt.Println("No disks. Attach one with: qvm disk create or qvm disk import")
		return nil
	}

	mgr := chainManager(cfg, store)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tFILE\tSTATE\tBACKING")
	for i, disk := range sess.Disks {
		state, info := mgr.Inspect(sess, i)
		backing := "-"
		if state == image.StateOverlay {
			backing = info.BackingFilename
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, disk, state, backing)
	}
	_ = w.Flush()
	return nil
}

func runDiskCreate(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	name := args[1]
	if err := chainManager(cfg, store).CreateDisk(sess, name, diskCreateSize); err != nil {
		return err
	}
	okf("Disk %s created (%s) and attached.", name, diskCreateSize)
	return nil
}

func runDiskImport(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	name, err := importResource(store, args[1], sess.DiskDir(), "disk image")
	if err != nil {
		return err
	}

	for _, disk := range sess.Disks {
		if disk == name {
			fmt.Printf("Disk %s is already attached.\n", name)
			return nil
		}
	}
	sess.Disks = append(sess.Disks, name)
	if err := store.Save(sess); err != nil {
		return err
	}
	okf("Disk %s imported and attached.", name)
	return nil
}

func runDiskDetach(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	idx, err := resolveEntry(sess.Disks, args[1])
	if err != nil {
		return err
	}

	disk := sess.Disks[idx]
	if !confirm(fmt.Sprintf("Detach '%s' from the configuration? (The file is kept.)", disk)) {
		fmt.Println("Aborted.")
		return nil
	}

	sess.Disks = append(sess.Disks[:idx], sess.Disks[idx+1:]...)
	if err := store.Save(sess); err != nil {
		return err
	}
	okf("Disk %s detached.", disk)
	return nil
}

// importResource copies a file into a resource directory, prompting
// for overwrite on a name collision. Declining the overwrite keeps the
// already-archived copy and returns its name.
func importResource(store *session.Store, src, targetDir, kind string) (string, error) {
	name, err := store.Import(src, targetDir, false)
	if errors.Is(err, session.ErrResourceExists) {
		if !confirm(fmt.Sprintf("File '%s' already exists in the session. Overwrite?", name)) {
			fmt.Printf("Keeping the existing copy of %s.\n", name)
			return name, nil
		}
		name, err = store.Import(src, targetDir, true)
	}
	if err != nil {
		return "", fmt.Errorf("failed to import %s: %w", kind, err)
	}
	return name, nil
}
