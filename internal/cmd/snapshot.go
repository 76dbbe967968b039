package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/image"
	"github.com/eternamaze/qvm/internal/session"
)

var snapshotCommitReset bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage qcow2 snapshots (backing-file overlays)",
	Long: `Manage disk snapshots through the qcow2 backing-file mechanism.

A base image holds the full disk contents. Creating a snapshot switches
the disk to an overlay: a copy-on-write file that stores only the
changes against the untouched base. Reset empties the overlay, commit
writes its changes into the base, discard drops the overlay and goes
back to the base.`,
}

var snapshotStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show the snapshot state of every disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotStatus,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create <name> <disk>",
	Short: "Switch a base disk into snapshot (overlay) mode",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshotCreate,
}

var snapshotResetCmd = &cobra.Command{
	Use:   "reset <name> <disk>",
	Short: "Discard all overlay changes, back to the base state",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshotReset,
}

var snapshotCommitCmd = &cobra.Command{
	Use:   "commit <name> <disk>",
	Short: "Write the overlay's changes into the base image",
	Long: `Write the overlay's changes permanently into the base image.

Without --reset the overlay file is left as-is, so its (now committed)
changes stay visible on the next run and further incremental commits
are possible. With --reset the overlay is emptied after the commit, so
the next run starts from the freshly committed base.`,
	Args: cobra.ExactArgs(2),
	RunE: runSnapshotCommit,
}

var snapshotDiscardCmd = &cobra.Command{
	Use:   "discard <name> <disk>",
	Short: "Delete the overlay and switch back to the base image",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshotDiscard,
}

func init() {
	snapshotCommitCmd.Flags().BoolVar(&snapshotCommitReset, "reset", false, "empty the overlay after committing")

	snapshotCmd.AddCommand(snapshotStatusCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotResetCmd)
	snapshotCmd.AddCommand(snapshotCommitCmd)
	snapshotCmd.AddCommand(snapshotDiscardCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotStatus(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	if len(sess.Disks) == 0 {
		fmt.Println("No disks.")
		return nil
	}

	mgr := chainManager(cfg, store)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tFILE\tSTATE\tBACKING")
	for i, disk := range sess.Disks {
		state, info := mgr.Inspect(sess, i)
		backing := "-"
		if state == image.StateOverlay {
			backing = filepath.Base(info.BackingFilename)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, disk, state, backing)
	}
	_ = w.Flush()
	return nil
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	mgr, sess, idx, err := snapshotTarget(args)
	if err != nil {
		return err
	}

	overlay, err := mgr.CreateOverlay(sess, idx)
	if err != nil {
		return err
	}
	okf("Snapshot created: the disk now runs on overlay %s.", overlay)
	return nil
}

func runSnapshotReset(cmd *cobra.Command, args []string) error {
	mgr, sess, idx, err := snapshotTarget(args)
	if err != nil {
		return err
	}

	if !confirm("Reset the snapshot? All unsaved changes in the overlay will be lost.") {
		fmt.Println("Aborted.")
		return nil
	}

	if err := mgr.Reset(sess, idx); err != nil {
		return err
	}
	okf("Snapshot reset: %s is back to its base state.", sess.Disks[idx])
	return nil
}

func runSnapshotCommit(cmd *cobra.Command, args []string) error {
	mgr, sess, idx, err := snapshotTarget(args)
	if err != nil {
		return err
	}

	warnf("This writes the snapshot's changes permanently into the base image.")
	if !confirm("Commit the snapshot?") {
		fmt.Println("Aborted.")
		return nil
	}

	if snapshotCommitReset {
		err = mgr.CommitReset(sess, idx)
	} else {
		err = mgr.Commit(sess, idx)
	}
	if err != nil {
		return err
	}

	if snapshotCommitReset {
		okf("Snapshot committed and reset.")
	} else {
		okf("Snapshot committed. The overlay still carries the committed changes; use --reset to start clean.")
	}
	return nil
}

func runSnapshotDiscard(cmd *cobra.Command, args []string) error {
	mgr, sess, idx, err := snapshotTarget(args)
	if err != nil {
		return err
	}

	if !confirm("Discard the snapshot and switch back to the base image?") {
		fmt.Println("Aborted.")
		return nil
	}

	backing, err := mgr.Discard(sess, idx)
	if err != nil {
		if backing != "" {
			// Config already repointed; only the file removal failed.
			warnf("%v", err)
			return nil
		}
		return err
	}
	okf("Snapshot discarded: the disk is back on base image %s.", backing)
	return nil
}

// snapshotTarget resolves the common <name> <disk> argument pair.
func snapshotTarget(args []string) (*image.Manager, *session.Session, int, error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, nil, 0, err
	}
	sess, err := store.Load(args[0])
	if err != nil {
		return nil, nil, 0, err
	}
	idx, err := resolveEntry(sess.Disks, args[1])
	if err != nil {
		return nil, nil, 0, err
	}
	return chainManager(cfg, store), sess, idx, nil
}
