// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Command car inspects and compiles Apple compiled asset catalog
// (Assets.car) files: an assetutil-compatible JSON inventory dump, a
// rendition extractor, a minimal catalog compiler, and a debug dumper.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-assetcar/car/log"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "car",
		Short: "Read and write Apple compiled asset catalog (.car) files",
		Long:  "A toolkit for Apple's compiled asset catalog container format: inventory dump, rendition extraction, and catalog compilation.",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(newAssetutilCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newActoolCmd())
	rootCmd.AddCommand(newDebugCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func helper() *log.Helper {
	if !verbose {
		return log.DefaultHelper()
	}
	return log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelDebug)))
}
