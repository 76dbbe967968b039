package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all VM sessions",
	Long:  `List all VM sessions under the save root with their hardware configuration.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No sessions. Create one with: qvm create <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tMEMORY\tCPUS\tDISKS\tISOS")
	_, _ = fmt.Fprintln(w, "----\t------\t----\t-----\t----")

	for _, name := range names {
		sess, err := store.Load(name)
		if err != nil {
			// A half-written session dir; show it rather than hide it.
			_, _ = fmt.Fprintf(w, "%s\t?\t?\t?\t?\n", name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			sess.Name, sess.Memory(), sess.CPUCores(), len(sess.Disks), len(sess.ISOs))
	}

	_ = w.Flush()
	return nil
}
