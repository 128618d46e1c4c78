// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML configuration file strictly (unknown keys are
// rejected) and layers it over the defaults. Pass the result to FromEnvWith
// so environment variables still win.
func LoadFile(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := Defaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return cfg, nil
}
