// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jcodagnone/geoconv/recordstore"
	"github.com/jcodagnone/geoconv/server"
	"github.com/spf13/cobra"
)

var serveOptions = struct {
	RecordsDbPath string
	Addr          string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored conversion runs and their map (local only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbpath := serveOptions.RecordsDbPath
		if _, err := os.Stat(dbpath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database not found at %s - run 'convert --records-db %s' first", dbpath, dbpath)
		}

		db, err := sql.Open("duckdb", dbpath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		repo := recordstore.NewRecordRepository(db)
		if err := repo.CreateSchema(); err != nil {
			return fmt.Errorf("creating records schema: %w", err)
		}

		cache, closeCache, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache()

		fmt.Println("🗺️  Map server starting...")
		fmt.Printf("📍 Open http://%s in your browser\n", serveOptions.Addr)
		fmt.Println("🔒 Local only - not exposed to internet")

		ctx, stop := interruptible(cmd.Context())
		defer stop()

		return server.NewServer(repo, cache, nil).Run(ctx, serveOptions.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOptions.RecordsDbPath, "records-db", "geoconv.duckdb", "DuckDB database written by 'convert --records-db'")
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", server.DefaultAddr, "Listen address")
	rootCmd.AddCommand(serveCmd)
}
