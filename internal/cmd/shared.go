package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "Manage a session's default shared folder",
	Long: `Manage the session's default shared folder. Its contents are always
exposed to the guest as a read-only removable USB drive (VVFAT).`,
}

var sharedListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List the shared folder's files",
	Args:  cobra.ExactArgs(1),
	RunE:  runSharedList,
}

var sharedImportCmd = &cobra.Command{
	Use:   "import <name> <path>",
	Short: "Copy a file into the shared folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runSharedImport,
}

var sharedOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open the shared folder in the file manager",
	Args:  cobra.ExactArgs(1),
	RunE:  runSharedOpen,
}

func init() {
	sharedCmd.AddCommand(sharedListCmd)
	sharedCmd.AddCommand(sharedImportCmd)
	sharedCmd.AddCommand(sharedOpenCmd)
	rootCmd.AddCommand(sharedCmd)
}

func runSharedList(cmd *cobra.Command, args []string) error {
	return listResourceFiles(args[0], "shared")
}

func runSharedImport(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	name, err := importResource(store, args[1], sess.SharedDir(), "shared file")
	if err != nil {
		return err
	}
	okf("File %s is available in the shared folder.", name)
	return nil
}

func runSharedOpen(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	if err := exec.Command("xdg-open", sess.SharedDir()).Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", sess.SharedDir(), err)
	}
	fmt.Printf("Opened %s\n", sess.SharedDir())
	return nil
}
