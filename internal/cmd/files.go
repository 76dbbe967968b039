package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/session"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect and clean up a session's physical files",
	Long: `Inspect and clean up the physical files inside a session's resource
directories (disks, isos, shared), including files no longer referenced
by the configuration.`,
}

var filesListCmd = &cobra.Command{
	Use:   "list <name> <disks|isos|shared>",
	Short: "List the physical files of a resource directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilesList,
}

var filesRemoveCmd = &cobra.Command{
	Use:   "remove <name> <disks|isos|shared> <file>",
	Short: "Permanently delete a physical file",
	Long: `Permanently delete a physical file from a resource directory. When
the file is referenced by the session configuration it is detached from
the configuration as well.`,
	Args: cobra.ExactArgs(3),
	RunE: runFilesRemove,
}

func init() {
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesRemoveCmd)
	rootCmd.AddCommand(filesCmd)
}

// resourceDir maps a kind argument to the session directory and the
// config list referencing files in it (nil for the shared folder).
func resourceDir(sess *session.Session, kind string) (string, []string, error) {
	switch kind {
	case "disks":
		return sess.DiskDir(), sess.Disks, nil
	case "isos":
		return sess.ISODir(), sess.ISOs, nil
	case "shared":
		return sess.SharedDir(), nil, nil
	default:
		return "", nil, fmt.Errorf("unknown resource kind %q (want disks, isos or shared)", kind)
	}
}

func listResourceFiles(name, kind string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(name)
	if err != nil {
		return err
	}

	dir, inUse, err := resourceDir(sess, kind)
	if err != nil {
		return err
	}

	entries, err := session.ListFiles(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Directory is empty:", dir)
		return nil
	}

	used := make(map[string]bool, len(inUse))
	for _, f := range inUse {
		used[f] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FILE\tSIZE\tSTATUS")
	for _, entry := range entries {
		size := "dir"
		if !entry.IsDir {
			size = fmt.Sprintf("%.1f MB", float64(entry.Size)/1024/1024)
		}
		status := "-"
		if used[entry.Name] {
			status = "in use"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Name, size, status)
	}
	_ = w.Flush()
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	return listResourceFiles(args[0], args[1])
}

func runFilesRemove(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	kind, name := args[1], args[2]
	dir, inUse, err := resourceDir(sess, kind)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no such file: %s", path)
	}

	used := false
	for _, f := range inUse {
		if f == name {
			used = true
			break
		}
	}
	if used {
		warnf("Warning: this file is referenced by the current configuration. Deleting it detaches it too.")
	}
	if !confirm(fmt.Sprintf("Permanently delete '%s'?", name)) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	if used {
		switch kind {
		case "disks":
			sess.Disks = removeString(sess.Disks, name)
		case "isos":
			sess.ISOs = removeString(sess.ISOs, name)
		}
		if err := store.Save(sess); err != nil {
			return err
		}
	}

	okf("File %s deleted.", name)
	return nil
}

func removeString(list []string, name string) []string {
	out := list[:0]
	for _, item := range list {
		if item != name {
			out = append(out, item)
		}
	}
	return out
}
