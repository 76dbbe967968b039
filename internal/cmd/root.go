package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eternamaze/qvm/internal/config"
	"github.com/eternamaze/qvm/internal/image"
	"github.com/eternamaze/qvm/internal/session"
)

var (
	saveRoot  string
	debug     bool
	assumeYes bool
)

// Debug prints a message if debug mode is enabled
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qvm",
	Short: "qvm - QEMU VM session manager",
	Long: `qvm manages named QEMU virtual machine sessions: per-session
hardware configuration, UEFI variable store, disk images, ISO images
and shared folders, plus qcow2 snapshot (backing file) management.

Create and start a session:
  qvm create win11 --memory 8G --cpus 4
  qvm disk create win11 system.qcow2 --size 60G
  qvm iso import win11 ~/Downloads/installer.iso
  qvm start win11

Manage snapshots:
  qvm snapshot status win11
  qvm snapshot create win11 system.qcow2`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&saveRoot, "root", "", "save root directory (default is ~/.qvm/machines)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "assume yes on confirmation prompts")
}

// openStore loads the configuration and opens the session store,
// honoring the --root override.
func openStore() (*config.Config, *session.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	root := cfg.Root
	if saveRoot != "" {
		root = saveRoot
	}
	Debug("Save root: %s", root)

	store, err := session.NewStore(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return cfg, store, nil
}

// chainManager returns the backing-chain manager for the configured
// qemu-img binary.
func chainManager(cfg *config.Config, store *session.Store) *image.Manager {
	return image.NewManager(store, image.NewTool(cfg.QemuImgBinary))
}

// confirm asks a yes/no question on stdin. Anything but an explicit
// "y" leaves state unchanged. --yes answers affirmatively without
// prompting.
func confirm(prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// resolveEntry resolves a resource argument, either a 1-based list
// index or an exact filename, to its list position.
func resolveEntry(list []string, arg string) (int, error) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > len(list) {
			return 0, fmt.Errorf("index out of range: %d", idx)
		}
		return idx - 1, nil
	}
	for i, name := range list {
		if name == arg {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no such entry: %s", arg)
}
