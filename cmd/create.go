/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/es4forensics"
)

// Create is the es4forensics create subcommand.
func Create() *cobra.Command {
	var mappingsFile string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the index unless it exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var mappings map[string]interface{}
			if mappingsFile != "" {
				f, err := appFS.Open(mappingsFile)
				if err != nil {
					return err
				}
				defer f.Close()
				if mappings, err = es4forensics.LoadMappings(f); err != nil {
					return err
				}
			}

			client, closer, err := newClient(cfg, mappings)
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := es4forensics.NewIndexBuilder(cfg.Index, client).CreateIfMissing(commandContext(cmd)); err != nil {
				return err
			}
			slog.Info("index ready", "index", cfg.Index)
			return nil
		},
	}
	createCmd.Flags().StringVar(&mappingsFile, "mappings", "", "YAML file with the index settings and mappings")
	return createCmd
}

// Exists is the es4forensics exists subcommand. It prints true or false.
func Exists() *cobra.Command {
	return &cobra.Command{
		Use:   "exists",
		Short: "Check whether the index exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, closer, err := newClient(cfg, nil)
			if err != nil {
				return err
			}
			defer closer.Close()

			exists, err := es4forensics.NewIndexBuilder(cfg.Index, client).IndexExists(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	}
}
