// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	car "github.com/go-assetcar/car"
)

func newAssetutilCmd() *cobra.Command {
	var info bool
	cmd := &cobra.Command{
		Use:   "assetutil <path>",
		Short: "Print a JSON inventory of a .car file, compatible with `assetutil -I`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !info {
				return fmt.Errorf("assetutil: only -I/--info is supported")
			}
			return runAssetutil(args[0])
		},
	}
	cmd.Flags().BoolVarP(&info, "info", "I", false, "print the catalog inventory as JSON")
	return cmd
}

func runAssetutil(path string) error {
	cat, err := car.Open(path, &car.StoreOptions{})
	if err != nil {
		return err
	}
	defer cat.Close()

	inv := car.BuildInventory(cat)

	report := make([]interface{}, 0, len(inv.Entries)+1)
	report = append(report, inv.Header)
	for _, e := range inv.Entries {
		report = append(report, e)
	}

	enc := gojson.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
