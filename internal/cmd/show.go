package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/image"
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a session's configuration and resources",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Session " + sess.Name))
	fmt.Printf("Directory: %s\n", sess.Dir())
	fmt.Printf("Hardware:  %s cores / %s RAM\n", sess.CPUCores(), sess.Memory())

	fmt.Printf("\nDisks (%d):\n", len(sess.Disks))
	if len(sess.Disks) == 0 {
		fmt.Println(mutedStyle.Render("  (none)"))
	}
	mgr := chainManager(cfg, store)
	for i, disk := range sess.Disks {
		state, info := mgr.Inspect(sess, i)
		tag := "[" + state.String() + "]"
		if state == image.StateOverlay {
			tag += " -> " + filepath.Base(info.BackingFilename)
		}
		fmt.Printf("  [%d] %s %s\n", i+1, disk, mutedStyle.Render(tag))
	}

	fmt.Printf("\nISOs (%d):\n", len(sess.ISOs))
	if len(sess.ISOs) == 0 {
		fmt.Println(mutedStyle.Render("  (none)"))
	}
	for i, iso := range sess.ISOs {
		fmt.Printf("  [%d] %s\n", i+1, iso)
	}

	fmt.Printf("\nShared folder: %s\n", sess.SharedDir())
	return nil
}
