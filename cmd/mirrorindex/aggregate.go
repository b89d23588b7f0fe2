package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/mirrorindex/internal/category"
	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/writer"
	"github.com/dshills/mirrorindex/pkg/types"
)

func newAggregateCmd(a *app) *cobra.Command {
	var output string
	var compact bool

	cmd := &cobra.Command{
		Use:   "aggregate [categories.json ...]",
		Short: "Fill totalFiles with subtree counts for one or more category files",
		Long: `Aggregate reads category lists, merges them, adds missing ancestors and
sets totalFiles on every node to the number of files in its subtree.

Without arguments the categories file in the output directory is used. The
result is printed to stdout unless --output is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger.Named("aggregate")

			inputs := args
			if len(inputs) == 0 {
				inputs = []string{filepath.Join(a.cfg.OutDir(), a.cfg.CategoriesFile)}
			}

			var nodes []types.CategoryNode
			for _, path := range inputs {
				list, err := readCategories(path)
				if err != nil {
					logger.Error("aggregate:error", logging.Fields{"file": path, "error": err})
					return err
				}
				nodes = append(nodes, list...)
			}

			aggregated := category.Aggregate(nodes, a.cfg.Locale)
			data, err := writer.Encode(aggregated, !compact)
			if err != nil {
				return fmt.Errorf("failed to encode categories: %w", err)
			}

			logger.Info("aggregate:complete", logging.Fields{
				"inputs":     len(inputs),
				"categories": len(aggregated),
				"bytes":      logging.Bytes(int64(len(data))),
			})

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().BoolVar(&compact, "compact", false, "Write compact JSON")
	return cmd
}

func readCategories(path string) ([]types.CategoryNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	var nodes []types.CategoryNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nodes, nil
}
