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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forensicanalysis/es4forensics"
	"github.com/forensicanalysis/es4forensics/input"
	"github.com/forensicanalysis/es4forensics/sqliteindex"
)

// appFS is the file system evidence files are read from.
var appFS = afero.NewOsFs()

// Root is the es4forensics command with all subcommands.
func Root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "es4forensics",
		Short:         "Import forensic evidence into Elasticsearch and OpenSearch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			quiet, _ := cmd.Flags().GetBool("quiet")
			setupLogging(verbose, quiet)
			return nil
		},
	}

	defaults := es4forensics.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.String("index", "", "name of the index")
	flags.StringP("host", "H", defaults.Host, "host of the search cluster")
	flags.IntP("port", "P", defaults.Port, "port of the search cluster")
	flags.String("proto", defaults.Protocol, "protocol, http or https")
	flags.BoolP("insecure", "k", defaults.Insecure, "do not verify the server certificate")
	flags.StringP("username", "U", defaults.Username, "username")
	flags.StringP("password", "W", defaults.Password, "password")
	flags.String("sqlite", "", "write to this SQLite database instead of a search cluster")
	flags.String("archive", "", "read evidence files from this SQLite archive, e.g. a forensicstore")
	flags.String("config", "", "YAML configuration file")
	flags.BoolP("verbose", "v", false, "log debug messages")
	flags.BoolP("quiet", "q", false, "log errors only")

	rootCmd.AddCommand(Create(), Exists(), Import(), Export())
	return rootCmd
}

func setupLogging(verbose, quiet bool) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig merges defaults, the config file, E4F_ environment variables and
// flags, in increasing priority.
func loadConfig(cmd *cobra.Command) (es4forensics.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return cfg, err
	}
	return cfg, errors.Wrap(cfg.Validate(), "config validation failed")
}

func readConfig(cmd *cobra.Command) (es4forensics.Config, error) {
	v := viper.New()

	defaults := es4forensics.DefaultConfig()
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("proto", defaults.Protocol)
	v.SetDefault("username", defaults.Username)
	v.SetDefault("bulk-size", defaults.BulkSize)
	v.SetDefault("timezone", defaults.Timezone)

	v.SetEnvPrefix("E4F")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return es4forensics.Config{}, errors.Wrap(err, "error reading config file")
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return es4forensics.Config{}, err
	}

	var cfg es4forensics.Config
	err := v.Unmarshal(&cfg)
	return cfg, errors.Wrap(err, "error unmarshaling config")
}

// evidenceFS returns the file system evidence files are read from.
func evidenceFS(cmd *cobra.Command) (afero.Fs, io.Closer, error) {
	name, _ := cmd.Flags().GetString("archive")
	if name == "" {
		return appFS, nopCloser{}, nil
	}
	archive, err := input.OpenArchive(name)
	if err != nil {
		return nil, nil, err
	}
	return archive, archive, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newClient connects to the SQLite database or the search cluster. mappings
// replace the default index body of a search cluster if not nil.
func newClient(cfg es4forensics.Config, mappings map[string]interface{}) (es4forensics.IndexClient, io.Closer, error) {
	if cfg.SQLite != "" {
		client, err := sqliteindex.Open(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	}

	client, err := es4forensics.NewOpenSearchClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if mappings != nil {
		client.SetMappings(mappings)
	}
	return client, nopCloser{}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
