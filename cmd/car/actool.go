// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	car "github.com/go-assetcar/car"
)

func newActoolCmd() *cobra.Command {
	var compile bool
	cmd := &cobra.Command{
		Use:   "actool <outdir> <catalog_dir>",
		Short: "Compile an .xcassets-shaped source directory into Assets.car",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, catalogDir := args[0], args[1]
			if !compile {
				return cmd.Help()
			}
			outPath := filepath.Join(outDir, "Assets.car")
			return car.CompileCatalog(catalogDir, outPath, &car.CompileOptions{})
		},
	}
	cmd.Flags().BoolVar(&compile, "compile", false, "compile the catalog directory")
	return cmd
}
