// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jcodagnone/geoconv/geocache"
	"github.com/jcodagnone/geoconv/spatial"
	"github.com/jcodagnone/geoconv/utils/textutils"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and move the geocoding cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many coordinates are cached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, closeCache, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache()

		stats := cache.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "%s entries (%s not found, %s errors)\n",
			textutils.FormatInt(int64(stats.Entries)),
			textutils.FormatInt(int64(stats.NotFound)),
			textutils.FormatInt(int64(stats.Errors)))

		return nil
	},
}

var cacheDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the cache as JSON, sorted by key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, closeCache, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache()

		entries := cache.Entries()

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		type entry struct {
			Key     string `json:"key"`
			Address string `json:"address"`
		}

		out := make([]entry, len(keys))
		for i, k := range keys {
			out[i] = entry{Key: k, Address: entries[k]}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	},
}

var cacheImportFile string

var cacheImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge a JSON cache file into the configured cache",
	Long: `Merges every entry of the JSON file given by --from into the cache selected
by --cache-file or --cache-db, e.g. to move an existing geo_cache.json into DuckDB.
Entries in the source overwrite entries with the same key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		source, err := geocache.NewJSONFileStore(cacheImportFile).Load()
		if err != nil {
			return fmt.Errorf("reading %s: %w", cacheImportFile, err)
		}

		cache, closeCache, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache()

		imported := 0

		for k, v := range source {
			key, err := spatial.ParseKey(k)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Skipping %v\n", err)

				continue
			}

			cache.Set(key, v)
			imported++
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %s entries from %s\n",
			textutils.FormatInt(int64(imported)), cacheImportFile)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDumpCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	cacheImportCmd.Flags().StringVar(&cacheImportFile, "from", geocache.DefaultFile, "JSON cache file to import")
}
