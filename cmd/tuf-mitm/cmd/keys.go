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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rdimitrov/go-tuf-mitm/metadata/keystore"
)

var keysDir string
var keysCount int
var keysRSABits int

var keysCmd = &cobra.Command{
	Use:     "keys",
	Aliases: []string{"k"},
	Short:   "Manage the key store used to add signatures",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keys of the key store",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return KeysListCmd(keysRoot(cmd), cfg.StrictKeyPermissions, cmd.OutOrStdout())
	},
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate RSA and Ed25519 key pairs into the key store",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return KeysGenerateCmd(keysRoot(cmd), keysCount, keysRSABits, cmd.OutOrStdout())
	},
}

func init() {
	keysCmd.PersistentFlags().StringVarP(&keysDir, "keys", "k", "", "key store directory")
	keysGenerateCmd.Flags().IntVar(&keysCount, "count", keystore.DefaultKeyCount, "number of key pairs per scheme")
	keysGenerateCmd.Flags().IntVar(&keysRSABits, "rsa-bits", 2048, "RSA modulus size")
	keysCmd.AddCommand(keysListCmd, keysGenerateCmd)
	rootCmd.AddCommand(keysCmd)
}

func keysRoot(cmd *cobra.Command) string {
	if cmd.Flags().Changed("keys") {
		return keysDir
	}
	return cfg.KeysDir
}

// KeysListCmd prints scheme, index, key ID and path of every stored key
func KeysListCmd(root string, strict bool, out io.Writer) error {
	entries, err := keystore.NewFileStore(root, keystore.WithStrictPermissions(strict)).List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tINDEX\tKEYID\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Scheme, e.Index, e.KeyID, e.Path)
	}
	return w.Flush()
}

// KeysGenerateCmd writes count key pairs per scheme into root
func KeysGenerateCmd(root string, count, rsaBits int, out io.Writer) error {
	if err := keystore.Generate(root, count, rsaBits); err != nil {
		return fmt.Errorf("failed to generate keys: %w", err)
	}
	fmt.Fprintf(out, "Generated %d RSA and %d Ed25519 key pairs in %s\n", count, count, root)
	return nil
}
