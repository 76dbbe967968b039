package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a VM session and all its data",
	Long: `Delete a VM session: its configuration, UEFI variable store, disks,
ISOs and shared folder. This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete session '%s' and all of its data?", sess.Name)) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := store.Delete(sess); err != nil {
		return err
	}
	okf("Session %s deleted.", sess.Name)
	return nil
}
