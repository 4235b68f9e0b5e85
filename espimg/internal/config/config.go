// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the espimg configuration file
// (~/.config/espimg/config.yaml) and applies the ESPIMG_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Chip string `yaml:"chip"`

	// BootloaderDir contains the default MCUboot images named
	// mcuboot-CHIP.bin.
	BootloaderDir string `yaml:"bootloader_dir"`

	// Bootloaders maps chip names to bootloader files. It takes precedence
	// over BootloaderDir.
	Bootloaders map[string]string `yaml:"bootloaders"`

	Format string `yaml:"format"`
	Pad    uint8  `yaml:"pad"`

	OTAAddr string `yaml:"ota_addr"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Chip:      "esp32",
		Format:    "bin",
		Pad:       0xff,
		OTAAddr:   "127.0.0.1:8070",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Path returns the default location of the configuration file or an empty
// string if the user configuration directory is unknown.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "espimg", "config.yaml")
}

// Load reads the configuration file at path on top of Default and applies
// the environment overrides. A missing file isn't an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	env.Load()
	c.Chip = env.Str("ESPIMG_CHIP", c.Chip)
	c.BootloaderDir = env.Str("ESPIMG_BOOTLOADER_DIR", c.BootloaderDir)
	c.Format = env.Str("ESPIMG_FORMAT", c.Format)
	c.OTAAddr = env.Str("ESPIMG_OTA_ADDR", c.OTAAddr)
	c.LogLevel = env.Str("ESPIMG_LOG_LEVEL", c.LogLevel)
	c.LogFormat = env.Str("ESPIMG_LOG_FORMAT", c.LogFormat)
}

// Bootloader returns the bootloader file configured for chip or an empty
// string.
func (c *Config) Bootloader(chip string) string {
	key := strings.ReplaceAll(strings.ToLower(chip), "-", "")
	return c.Bootloaders[key]
}
