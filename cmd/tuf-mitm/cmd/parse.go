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
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdimitrov/go-tuf-mitm/metadata"
)

var parseCanonical bool

var parseCmd = &cobra.Command{
	Use:     "parse FILE|-",
	Aliases: []string{"p"},
	Short:   "Validate a metadata document and summarize it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ParseCmd(args[0], parseCanonical, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseCanonical, "canonical", false, "print the canonical encoding instead of a summary")
	rootCmd.AddCommand(parseCmd)
}

// ParseCmd parses a document and writes either its summary or its
// canonical encoding to out
func ParseCmd(input string, canonical bool, in io.Reader, out io.Writer) error {
	data, err := ReadInput(input, in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}
	meta, err := metadata.FromBytes(data)
	if err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}
	if canonical {
		b, err := meta.ToBytes()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}

	fmt.Fprintf(out, "Role:       %s\n", meta.Role)
	fmt.Fprintf(out, "Version:    %d\n", meta.Version)
	fmt.Fprintf(out, "Expires:    %s\n", meta.Expires)
	fmt.Fprintf(out, "Signatures: %d\n", len(meta.Signatures))
	for _, s := range meta.Signatures {
		fmt.Fprintf(out, "  %s %s\n", s.KeyID, s.Method)
	}
	if meta.Role == metadata.TARGETS {
		fmt.Fprintf(out, "Targets:    %d\n", len(meta.Targets))
		for _, t := range meta.Targets {
			fmt.Fprintf(out, "  %s (%d bytes)\n", t.Filepath, t.Length)
		}
	}
	if keys := meta.Extra.Keys(); len(keys) > 0 {
		fmt.Fprintf(out, "Extra:      %s\n", strings.Join(keys, ", "))
	}
	return nil
}
