// Copyright 2023 VMware, Inc.
//
// This product is licensed to you under the BSD-2 license (the "License").
// You may not use this product except in compliance with the BSD-2 License.
// This product may include a number of subcomponents with separate copyright
// notices and license terms. Your use of these subcomponents is subject to
// the terms and conditions of the subcomponent's license, as noted in the
// LICENSE file.
//
// SPDX-License-Identifier: BSD-2-Clause

package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/rdimitrov/go-tuf-mitm/metadata/alteration"
)

// Config is the run configuration of the alteration tool
type Config struct {
	// KeysDir is the root of the key store used to add signatures
	KeysDir string `yaml:"keys_dir"`
	// Alterations is the allow-list of alteration names. Unknown names
	// are kept and never match.
	Alterations []string `yaml:"alterations"`
	// Seed fixes the random source when set
	Seed *int64 `yaml:"seed"`
	// StrictKeyPermissions rejects private keys readable by others
	StrictKeyPermissions bool `yaml:"strict_key_permissions"`
	// FetchMaxLength caps the size of documents fetched over HTTP
	FetchMaxLength int64 `yaml:"fetch_max_length"`
	// FetchTimeout bounds a single HTTP fetch
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// New creates a new Config holding the defaults: every registered
// alteration allowed and an unseeded random source
func New() *Config {
	return &Config{
		KeysDir:              "keys",
		Alterations:          alteration.Names(),
		StrictKeyPermissions: false,
		FetchMaxLength:       5000000, // bytes
		FetchTimeout:         15 * time.Second,
	}
}

// FromFile loads a YAML file over the defaults. Keys absent from the file
// keep their default value.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values nothing can run with
func (c *Config) Validate() error {
	if c.KeysDir == "" {
		return fmt.Errorf("keys_dir must not be empty")
	}
	if c.FetchMaxLength <= 0 {
		return fmt.Errorf("fetch_max_length must be positive, got %d", c.FetchMaxLength)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	return nil
}

// UnknownAlterations returns, sorted and without duplicates, the allowed
// names that are not in registered
func (c *Config) UnknownAlterations(registered []string) []string {
	unknown := map[string]struct{}{}
	for _, name := range c.Alterations {
		if !slices.Contains(registered, name) {
			unknown[name] = struct{}{}
		}
	}
	res := maps.Keys(unknown)
	slices.Sort(res)
	return res
}
