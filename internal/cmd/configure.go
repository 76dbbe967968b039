package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/session"
)

var (
	configureMemory string
	configureCPUs   string
)

var configureCmd = &cobra.Command{
	Use:   "configure <name>",
	Short: "Change a session's hardware configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigure,
}

func init() {
	configureCmd.Flags().StringVarP(&configureMemory, "memory", "m", "", "memory size (e.g. 8G)")
	configureCmd.Flags().StringVarP(&configureCPUs, "cpus", "c", "", "CPU core count")

	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0])
	if err != nil {
		return err
	}

	if configureMemory == "" && configureCPUs == "" {
		return fmt.Errorf("nothing to change: pass --memory and/or --cpus")
	}

	if configureMemory != "" {
		sess.Values.Set(session.KeyMemory, configureMemory)
	}
	if configureCPUs != "" {
		sess.Values.Set(session.KeyCPUCores, configureCPUs)
	}

	if err := store.Save(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	okf("Session %s updated: %s memory, %s cores.", sess.Name, sess.Memory(), sess.CPUCores())
	return nil
}
