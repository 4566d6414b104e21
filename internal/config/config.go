/*
* Configuration file handling
* Copyright (C) 2025  Artem Stefankiv
*
* This program is free software: you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation, either version 3 of the License, or
* (at your option) any later version.
*
* This program is distributed in the hope that it will be useful,
* but WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
* GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const maxBlockSize = 64 << 20

// Config holds the settings shared by the console and GUI front ends.
type Config struct {
	ChunkSize        int    `json:"chunk_size"`
	Progress         bool   `json:"progress"`
	JSONOutput       bool   `json:"json_output"`
	Profile          bool   `json:"profile"`
	ProfileBlockSize int    `json:"profile_block_size"`
	AutocorrMaxLag   int    `json:"autocorr_max_lag"`
	Compression      bool   `json:"compression"`
	Signatures       bool   `json:"signatures"`
	LogFile          bool   `json:"log_file"`
	OutputDir        string `json:"output_dir"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:        1 << 20,
		Progress:         true,
		ProfileBlockSize: 1 << 20,
		AutocorrMaxLag:   50,
	}
}

// LoadConfig loads the configuration from standard locations
func LoadConfig() (*Config, error) {
	path := FindConfigFile()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfigFile(path)
}

// LoadConfigFile reads path on top of the defaults. On error the defaults
// are still returned so callers can carry on with a warning.
func LoadConfigFile(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("could not open config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("could not decode config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// FindConfigFile looks for a config file in standard locations
func FindConfigFile() string {
	for _, p := range []string{".entropyrc", ".entropy.json"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		paths := []string{
			filepath.Join(home, ".entropyrc"),
			filepath.Join(home, ".entropy.json"),
			filepath.Join(home, ".config", "entropy", "config.json"),
		}

		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	return ""
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate checks the block sizes and the autocorrelation lag.
func (c *Config) Validate() error {
	var errs []error
	if !isPowerOfTwo(c.ChunkSize) || c.ChunkSize > maxBlockSize {
		errs = append(errs, fmt.Errorf("chunk_size %d must be a power of two up to %d", c.ChunkSize, maxBlockSize))
	}
	if !isPowerOfTwo(c.ProfileBlockSize) || c.ProfileBlockSize > maxBlockSize {
		errs = append(errs, fmt.Errorf("profile_block_size %d must be a power of two up to %d", c.ProfileBlockSize, maxBlockSize))
	}
	if c.AutocorrMaxLag < 2 {
		errs = append(errs, fmt.Errorf("autocorr_max_lag %d must be at least 2", c.AutocorrMaxLag))
	}
	return errors.Join(errs...)
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
