package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var isoCmd = &cobra.Command{
	Use:   "iso",
	Short: "Manage a session's CD-ROM images",
}

var isoListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List a session's ISOs",
	Args:  cobra.ExactArgs(1),
	RunE:  runISOList,
}

var isoImportCmd = &cobra.Command{
	Use:   "import <name> <path>",
	Short: "Copy an ISO into the session and attach it",
	Args:  cobra.ExactArgs(2),
	RunE:  runISOImport,
}

var isoDetachCmd = &cobra.Command{
	Use:   "detach <name> <iso>",
	Short: "Eject an ISO from the configuration (the file is kept)",
	Args:  cobra.ExactArgs(2),
	RunE:  runISODetach,
}

func init() {
	isoCmd.AddCommand(isoListCmd)
	isoCmd.AddCommand(isoImportCmd)
	isoCmd.AddCommand(isoDetachCmd)
	rootCmd.AddCommand(isoCmd)
}

func runISOList(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	if len(sess.ISOs) == 0 {
		fmt.Println("No ISOs. Attach one with: qvm iso import")
		return nil
	}
	for i, iso := range sess.ISOs {
		fmt.Printf("  [%d] %s\n", i+1, iso)
	}
	return nil
}

func runISOImport(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	name, err := importResource(store, args[1], sess.ISODir(), "ISO image")
	if err != nil {
		return err
	}

	for _, iso := range sess.ISOs {
		if iso == name {
			fmt.Printf("ISO %s is already attached.\n", name)
			return nil
		}
	}
	sess.ISOs = append(sess.ISOs, name)
	if err := store.Save(sess); err != nil {
		return err
	}
	okf("ISO %s imported and attached.", name)
	return nil
}

func runISODetach(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	idx, err := resolveEntry(sess.ISOs, args[1])
	if err != nil {
		return err
	}

	iso := sess.ISOs[idx]
	sess.ISOs = append(sess.ISOs[:idx], sess.ISOs[idx+1:]...)
	if err := store.Save(sess); err != nil {
		return err
	}
	okf("ISO %s ejected.", iso)
	return nil
}
