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

	"github.com/rdimitrov/go-tuf-mitm/metadata/alteration"
	"github.com/rdimitrov/go-tuf-mitm/metadata/config"
	"github.com/rdimitrov/go-tuf-mitm/metadata/fetcher"
	"github.com/rdimitrov/go-tuf-mitm/metadata/keystore"
)

var alterURL string
var alterNames []string
var alterKeysDir string
var alterSeed int64
var alterContentType string

var alterCmd = &cobra.Command{
	Use:     "alter [FILE|-]",
	Aliases: []string{"a"},
	Short:   "Alter a metadata document and print the result",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		if cmd.Flags().Changed("alteration") {
			c.Alterations = alterNames
		}
		if cmd.Flags().Changed("keys") {
			c.KeysDir = alterKeysDir
		}
		if cmd.Flags().Changed("seed") {
			c.Seed = &alterSeed
		}
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		return AlterCmd(&c, input, alterURL, alterContentType, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	alterCmd.Flags().StringVarP(&alterURL, "url", "u", "", "fetch the document from URL instead of reading a file")
	alterCmd.Flags().StringSliceVarP(&alterNames, "alteration", "a", nil, "allowed alteration, can be repeated (default: all)")
	alterCmd.Flags().StringVarP(&alterKeysDir, "keys", "k", "", "key store directory")
	alterCmd.Flags().Int64Var(&alterSeed, "seed", 0, "seed of the random source, for reproducible runs")
	alterCmd.Flags().StringVarP(&alterContentType, "content-type", "t", alteration.MediaTypeJSON, "content type of a document read from a file")
	rootCmd.AddCommand(alterCmd)
}

// AlterCmd runs the engine over one document and writes the resulting body
// to out. The name of the alteration that ran is reported on errOut.
func AlterCmd(c *config.Config, input, url, contentType string, in io.Reader, out, errOut io.Writer) error {
	resp, err := readResponse(c, input, url, contentType, in)
	if err != nil {
		return err
	}

	engine := newEngine(c)
	if unknown := c.UnknownAlterations(engine.Names()); len(unknown) > 0 {
		fmt.Fprintf(errOut, "Warning: unknown alterations are ignored: %s\n", strings.Join(unknown, ", "))
	}

	res, a, err := engine.Alter(resp, c.Alterations)
	if err != nil {
		return fmt.Errorf("alteration %s failed: %w", a.Name(), err)
	}
	fmt.Fprintf(errOut, "Applied alteration: %s\n", a.Name())
	if _, err := out.Write(res.Body()); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func readResponse(c *config.Config, input, url, contentType string, in io.Reader) (alteration.Response, error) {
	switch {
	case url != "" && input != "":
		return nil, fmt.Errorf("either a file or --url can be given, not both")
	case url != "":
		resp, err := fetcher.New("tuf-mitm").Fetch(url, c.FetchMaxLength, c.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
		}
		return resp, nil
	case input != "":
		data, err := ReadInput(input, in)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", input, err)
		}
		return alteration.NewResponse(contentType, data), nil
	default:
		return nil, fmt.Errorf("a file, - for standard input, or --url is required")
	}
}

func newEngine(c *config.Config) *alteration.Engine {
	store := keystore.NewCachingStore(
		keystore.NewFileStore(c.KeysDir, keystore.WithStrictPermissions(c.StrictKeyPermissions)),
	)
	opts := []alteration.Option{alteration.WithKeyStore(store)}
	if c.Seed != nil {
		opts = append(opts, alteration.WithRand(alteration.NewRand(*c.Seed)))
	}
	return alteration.NewEngine(opts...)
}
