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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rdimitrov/go-tuf-mitm/metadata/config"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var Verbosity bool
var ConfigFile string
var LogFormat string

// cfg is loaded before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tuf-mitm",
	Short: "tuf-mitm - corrupts TUF metadata to test how clients verify it",
	Long: `tuf-mitm is a CLI tool that deliberately alters signed TUF metadata.

It twiddles values, adds signatures made with unrelated keys, deletes or
duplicates signatures, and prints the result so that it can be served to
a client under test.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(LogFormat, Verbosity, cmd.ErrOrStderr()); err != nil {
			return err
		}
		loaded, err := loadConfig(ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// show the help message if no command has been used
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbosity, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&LogFormat, "log-format", LogFormatText, "log format, text or json")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, or returns the defaults when
// no file was given
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.New(), nil
	}
	c, err := config.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return c, nil
}

// ReadInput reads the content of a file, or of in when name is "-"
func ReadInput(name string, in io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(in)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}
