package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/session"
)

var (
	createMemory string
	createCPUs   string
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new VM session",
	Long: `Create a new VM session: the session directory with its shared,
ISO and disk subdirectories, and an initial hardware configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createMemory, "memory", "m", "", "memory size (e.g. 8G)")
	createCmd.Flags().StringVarP(&createCPUs, "cpus", "c", "", "CPU core count")

	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, store, err := openStore()
	if err != nil {
		return err
	}

	if store.Exists(name) {
		return fmt.Errorf("session already exists: %s", name)
	}

	if createMemory == "" {
		createMemory = cfg.Defaults.Memory
	}
	if createCPUs == "" {
		createCPUs = cfg.Defaults.CPUs
	}

	sess := store.New(name)
	sess.Values.Set(session.KeyVMName, name)
	sess.Values.Set(session.KeyMemory, createMemory)
	sess.Values.Set(session.KeyCPUCores, createCPUs)

	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	okf("Session %s created (%s memory, %s cores).", name, createMemory, createCPUs)
	fmt.Printf("Directory: %s\n", sess.Dir())
	return nil
}
