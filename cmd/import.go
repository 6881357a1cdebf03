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
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/forensicanalysis/es4forensics"
	"github.com/forensicanalysis/es4forensics/input"
)

// Import is the es4forensics import subcommand.
func Import() *cobra.Command {
	var format, metricsFile string
	importCmd := &cobra.Command{
		Use:   "import [<file>...]",
		Short: "Import evidence files into the index",
		Long: `Import evidence files into the index. Without files standard input is read.
Files ending in .gz or .zst are decompressed, file names may contain glob patterns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			client, closer, err := newClient(cfg, nil)
			if err != nil {
				return err
			}
			defer closer.Close()

			builder := es4forensics.NewIndexBuilder(cfg.Index, client)
			if err := builder.CreateIfMissing(ctx); err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			metrics := es4forensics.NewMetrics(registry)
			idx, err := builder.Build(cfg.BulkSize, es4forensics.WithMetrics(metrics))
			if err != nil {
				return err
			}
			defer idx.Close()

			importer := es4forensics.NewImporter(idx, cfg.Strict, importOptions(cfg, metrics)...)
			start := time.Now()
			if err := importFiles(ctx, cmd, importer, format, cfg, args); err != nil {
				return err
			}
			if err := importer.Flush(ctx); err != nil {
				return err
			}

			stats := idx.Stats()
			slog.Info("import finished", "index", cfg.Index, "created", stats.Created,
				"duplicates", stats.Duplicates, "failed", stats.Failed, "skipped", importer.Skipped(),
				"took", time.Since(start))

			if metricsFile != "" {
				return prometheus.WriteToTextfile(metricsFile, registry)
			}
			return nil
		},
	}
	addImportFlags(importCmd.Flags(), &format)
	importCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write ingestion metrics in the Prometheus text format to this file")
	return importCmd
}

func addImportFlags(flags *pflag.FlagSet, format *string) {
	defaults := es4forensics.DefaultConfig()
	flags.StringVarP(format, "format", "f", "bodyfile", "input format: bodyfile, evidence or evtx")
	flags.Int("bulk-size", defaults.BulkSize, "number of documents per bulk request")
	flags.String("timezone", defaults.Timezone, "timezone of bodyfile timestamps")
	flags.Bool("strict", defaults.Strict, "abort on invalid records and rejected documents")
}

func importOptions(cfg es4forensics.Config, metrics *es4forensics.Metrics) []es4forensics.ImportOption {
	opts := []es4forensics.ImportOption{es4forensics.WithImportMetrics(metrics)}
	if cfg.Strict {
		opts = append(opts, es4forensics.WithValidation())
	}
	return opts
}

// importFiles feeds all files matching patterns into importer.
func importFiles(ctx context.Context, cmd *cobra.Command, importer *es4forensics.Importer, format string, cfg es4forensics.Config, patterns []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	fs, closer, err := evidenceFS(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	names, err := expand(fs, patterns)
	if err != nil {
		return err
	}

	for _, name := range names {
		slog.Debug("importing", "file", name, "format", format)
		r, err := input.Open(fs, name)
		if err != nil {
			return err
		}

		switch format {
		case "bodyfile":
			err = importer.ImportBodyfile(ctx, r, loc)
		case "evidence":
			err = importer.ImportItems(ctx, r)
		case "evtx":
			err = importer.ImportEvtx(ctx, r)
		default:
			err = errors.Errorf("unknown format %q", format)
		}
		r.Close()
		if err != nil {
			return errors.Wrap(err, name)
		}
	}
	return nil
}

func expand(fs afero.Fs, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return []string{input.Stdin}, nil
	}
	var names []string
	for _, pattern := range patterns {
		if pattern == input.Stdin {
			names = append(names, pattern)
			continue
		}
		matches, err := afero.Glob(fs, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no file matches %s", pattern)
		}
		names = append(names, matches...)
	}
	return names, nil
}
