// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	car "github.com/go-assetcar/car"
)

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug <path>",
		Short: "Dump the parsed block store, CAR headers, and rendition index for inspection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebug(args[0])
		},
	}
}

func runDebug(path string) error {
	cat, err := car.Open(path, &car.StoreOptions{})
	if err != nil {
		return err
	}
	defer cat.Close()

	info := cat.Store().DebugInfo()
	fmt.Printf("BOMStore: version=%d blocks=%d index=[%d,%d) vars=%d unknown=%d\n",
		info.Version, info.NumberOfBlocks, info.IndexOffset, info.IndexOffset+info.IndexLength,
		info.VarsOffset, info.Unknown)

	names := make([]string, 0, len(info.Vars))
	for name := range info.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rng := info.Vars[name]
		fmt.Printf("  var %-18s addr=%d len=%d\n", name, rng.Address, rng.Length)
	}

	fmt.Printf("\nCARHEADER: CoreUIVersion=%d StorageVersion=%d SchemaVersion=%d Timestamp=%d RenditionCount=%d\n",
		cat.Header.CoreUIVersion, cat.Header.StorageVersion, cat.Header.SchemaVersion,
		cat.Header.StorageTimestamp, cat.Header.RenditionCount)
	if cat.ExtendedMetadata != nil {
		fmt.Printf("EXTENDED_METADATA: platform=%s version=%s authoring=%q\n",
			cat.ExtendedMetadata.DeploymentPlatform, cat.ExtendedMetadata.DeploymentPlatformVersion,
			cat.ExtendedMetadata.AuthoringTool)
	}
	fmt.Printf("KEYFORMAT: %d attributes\n", len(cat.KeyFormat.Attributes))

	fmt.Printf("\nRENDITIONS: %d entries\n", len(cat.Renditions))
	for _, r := range cat.Renditions {
		fmt.Printf("  %-24s %-8s size=%d scale=%g\n",
			r.FacetName, r.CSI.Body.Magic(), r.CSI.SizeOnDisk(), r.CSI.Header.Scale())
	}
	return nil
}
