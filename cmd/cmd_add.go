// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/jcodagnone/geoconv/csvio"
	"github.com/spf13/cobra"
)

var addInput string

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append coordinates typed interactively to the coordinates file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return addCoordinates(cmd.InOrStdin(), cmd.OutOrStdout(), addInput)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addInput, "input", "i", csvio.DefaultInputFile, "Coordinates CSV to append to")
}
