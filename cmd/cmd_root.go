// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/geoconv/geocache"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// cacheOptions selects the geocode cache snapshot store.
type cacheOptions struct {
	// File is the JSON snapshot path
	File string

	// DbPath switches the cache to a DuckDB database when set
	DbPath string
}

var rootCacheOptions = &cacheOptions{}

// openCache opens the configured store and loads the cache. The returned
// close function flushes the cache and releases the store, callers defer it.
func openCache() (*geocache.Cache, func(), error) {
	if rootCacheOptions.DbPath == "" {
		cache := geocache.Open(geocache.NewJSONFileStore(rootCacheOptions.File))

		return cache, cache.Close, nil
	}

	db, err := sql.Open("duckdb", rootCacheOptions.DbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache database: %w", err)
	}

	cache := geocache.Open(geocache.NewDuckDBStore(db, rootCacheOptions.DbPath))

	return cache, func() {
		cache.Close()

		if err := db.Close(); err != nil {
			log.Printf("⚠️  Closing cache database: %v", err)
		}
	}, nil
}

var rootCmd = &cobra.Command{
	Use:   "geoconv",
	Short: "convert coordinates to Mercator and resolve their addresses",
	Long: `
geoconv reads latitude/longitude pairs, projects them with a spherical
Mercator projection, verifies the projection by reversing it, optionally
resolves each point's address through a reverse geocoding service and
writes the result as a CSV file and an interactive HTML map.

Run without a subcommand for an interactive session.
`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := *convertOpts
		opts.Interactive = true
		opts.AskGeocode = true
		opts.OpenMap = true

		return runConvert(cmd.Context(), &opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// interruptible returns a context cancelled on SIGINT or SIGTERM. It only
// wraps work that watches the context; reading from stdin must happen
// before, so Ctrl-C still ends a prompt with the default behaviour.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootCacheOptions.File,
		"cache-file",
		geocache.DefaultFile,
		"JSON file where geocoding results are cached",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootCacheOptions.DbPath,
		"cache-db",
		"",
		"Keep the geocoding cache in this DuckDB database instead of --cache-file",
	)
}
