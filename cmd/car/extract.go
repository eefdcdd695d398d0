// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	car "github.com/go-assetcar/car"
)

func newExtractCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract every supported rendition from one or more .car files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args, outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "destination directory")
	return cmd
}

// runExtract parallelizes across the input .car paths given on the command
// line (teacher's loopFilesWorker/LoopDirsFiles jobs-channel pattern,
// adapted to a fixed-size worker pool); a single file's own renditions
// still extract sequentially inside Catalog.ExtractAll, per §5/§8.
func runExtract(paths []string, outDir string) error {
	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	const workers = 4
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := extractOne(path, outDir); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

func extractOne(path, outDir string) error {
	log := helper()
	cat, err := car.Open(path, &car.StoreOptions{})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer cat.Close()

	results, err := cat.ExtractAll(outDir)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	for _, r := range results {
		if r.Err != nil {
			log.Warnf("%s: skipped %q: %v", path, r.Rendition.FacetName, r.Err)
		}
	}
	return nil
}
