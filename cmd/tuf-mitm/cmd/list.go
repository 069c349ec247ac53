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

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"

	"github.com/rdimitrov/go-tuf-mitm/metadata/alteration"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the registered alterations",
	Args:    cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ListCmd(cfg.Alterations, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// ListCmd prints every registered alteration, marking the allowed ones
func ListCmd(allowed []string, out io.Writer) error {
	for _, name := range alteration.Names() {
		mark := " "
		if slices.Contains(allowed, name) {
			mark = "*"
		}
		if _, err := fmt.Fprintf(out, "%s %s\n", mark, name); err != nil {
			return err
		}
	}
	return nil
}
