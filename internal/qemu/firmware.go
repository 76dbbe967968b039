package qemu

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrFirmwareNotFound is returned when no OVMF firmware could be
// located. This is fatal for the whole tool: a session cannot boot
// without the UEFI pflash pair.
var ErrFirmwareNotFound = errors.New("OVMF firmware not found")

// DefaultCodePaths are the firmware code candidates, in preference
// order, covering the usual distro packaging locations.
var DefaultCodePaths = []string{
	"/usr/share/OVMF/OVMF_CODE_4M.fd",
	"/usr/share/OVMF/OVMF_CODE.fd",
	"/usr/share/edk2/ovmf/OVMF_CODE.fd",
	"/usr/share/ovmf/x64/OVMF_CODE.fd",
	"/usr/share/qemu/ovmf-x86_64-code.bin",
	"/usr/share/qemu/OVMF.fd",
	"/usr/share/ovmf/OVMF.fd",
}

// DefaultVarsCandidates are the variable-store template filenames
// searched in the directory of the matched code path.
var DefaultVarsCandidates = []string{
	"OVMF_VARS.fd",
	"OVMF_VARS_4M.fd",
	"OVMF_VARS.4m.fd",
	"ovmf-x86_64-vars.bin",
}

// Firmware is a detected UEFI firmware pair: read-only code and a
// variable-store template to seed per-session stores from.
type Firmware struct {
	Code         string
	VarsTemplate string
}

// DetectFirmware returns the first existing code path and the first
// existing vars candidate next to it. Empty candidate lists fall back
// to the defaults.
func DetectFirmware(codePaths, varsCandidates []string) (Firmware, error) {
	if len(codePaths) == 0 {
		codePaths = DefaultCodePaths
	}
	if len(varsCandidates) == 0 {
		varsCandidates = DefaultVarsCandidates
	}

	var code string
	for _, path := range codePaths {
		if _, err := os.Stat(path); err == nil {
			code = path
			break
		}
	}
	if code == "" {
		return Firmware{}, ErrFirmwareNotFound
	}

	dir := filepath.Dir(code)
	for _, candidate := range varsCandidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return Firmware{Code: code, VarsTemplate: path}, nil
		}
	}
	return Firmware{}, ErrFirmwareNotFound
}
