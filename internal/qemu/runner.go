package qemu

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// DefaultBinary is the emulator invoked when no override is
// configured.
const DefaultBinary = "qemu-system-x86_64"

// Runner launches the VM process and blocks until it exits.
type Runner struct {
	// Binary overrides the qemu-system binary. Empty means
	// DefaultBinary resolved through PATH.
	Binary string
}

// Run executes the emulator with the given argument vector, attaching
// the current stdio. An interrupt while the VM is running is swallowed
// here and treated as a normal VM shutdown, not an error: the signal
// reaches the foreground process group and QEMU handles its own exit.
func (r *Runner) Run(args []string) error {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("emulator not found: %w", err)
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-interrupts:
			case <-done:
				return
			}
		}
	}()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok &&
				status.Signaled() && status.Signal() == syscall.SIGINT {
				return nil
			}
		}
		return fmt.Errorf("emulator exited with error: %w", err)
	}
	return nil
}
