package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/eternamaze/qvm/internal/qemu"
)

// Config is the tool configuration, read from ~/.qvm/config.yaml when
// present and filled with defaults otherwise.
type Config struct {
	// Root is the save root holding all session directories.
	Root string `mapstructure:"root"`

	Defaults Defaults `mapstructure:"defaults"`
	Firmware Firmware `mapstructure:"firmware"`

	// QemuBinary overrides the qemu-system binary.
	QemuBinary string `mapstructure:"qemu_binary"`

	// QemuImgBinary overrides the qemu-img binary.
	QemuImgBinary string `mapstructure:"qemu_img_binary"`
}

// Defaults are the hardware values applied to newly created sessions.
type Defaults struct {
	Memory string `mapstructure:"memory"`
	CPUs   string `mapstructure:"cpus"`
}

// Firmware lets the candidate lists for OVMF detection be overridden.
type Firmware struct {
	CodePaths      []string `mapstructure:"code_paths"`
	VarsCandidates []string `mapstructure:"vars_candidates"`
}

// ConfigDir returns the qvm configuration directory path.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".qvm"), nil
}

// Load reads the configuration. A missing config file is not an error;
// defaults apply.
func Load() (*Config, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	setDefaults(configDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	expanded, err := homedir.Expand(cfg.Root)
	if err == nil {
		cfg.Root = expanded
	}

	return &cfg, nil
}

func setDefaults(configDir string) {
	viper.SetDefault("root", filepath.Join(configDir, "machines"))
	viper.SetDefault("defaults.memory", "8G")
	viper.SetDefault("defaults.cpus", "4")
	viper.SetDefault("firmware.code_paths", qemu.DefaultCodePaths)
	viper.SetDefault("firmware.vars_candidates", qemu.DefaultVarsCandidates)
	viper.SetDefault("qemu_binary", qemu.DefaultBinary)
	viper.SetDefault("qemu_img_binary", "qemu-img")
}
