package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hypervec"
	"github.com/hupe1980/hypervec/ann"
	"github.com/hupe1980/hypervec/hdc"
)

// item is one JSONL record of the query catalog.
type item struct {
	ID     string    `json:"id"`
	Vector []float32 `json:"vector"`
}

type hit struct {
	ID       string  `json:"id"`
	Distance float32 `json:"distance"`
}

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query CATALOG",
		Short: "Recommend catalog items closest to the stored profile",
		Long: `Index a JSONL catalog and print the k items nearest to the normalized
profile. Catalog records look like:

  {"id": "item-1", "vector": [0.1, -0.3, ...]}

Vectors must have the first profile dimension unless --dims is set. With
--normalize every catalog vector is L2-normalized before indexing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")
			trees, _ := cmd.Flags().GetInt("trees")
			leaf, _ := cmd.Flags().GetInt("leaf-size")
			normalize, _ := cmd.Flags().GetBool("normalize")
			dims, _ := cmd.Flags().GetInt("dims")

			opts := []hypervec.Option{
				hypervec.WithForestOptions(ann.WithForestSize(trees), ann.WithMaxLeafSize(leaf)),
			}
			if dims > 0 {
				opts = append(opts, hypervec.WithForestDimension(dims))
			}
			ctx := cmd.Context()
			e, closeFn, err := a.engine(ctx, opts...)
			if err != nil {
				return err
			}
			defer closeFn()

			in, err := a.openInput(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			var points []ann.DataPoint
			err = decodeLines(in, func(_ int, it item) error {
				if it.ID == "" {
					return fmt.Errorf("missing id")
				}
				v := hdc.Vector(it.Vector)
				if normalize {
					v = hdc.Normalize(v)
				}
				points = append(points, ann.DataPoint{Vector: v, Payload: it.ID})
				return nil
			})
			if err != nil {
				return err
			}
			if _, err := e.IndexBatch(ctx, points); err != nil {
				return err
			}

			results, err := e.Recommend(ctx, k)
			if err != nil {
				return err
			}
			hits := make([]hit, len(results))
			for i, r := range results {
				hits[i] = hit{ID: r.Point.Payload.(string), Distance: r.Distance}
			}
			return a.writeJSON(hits)
		},
	}
	cmd.Flags().Int("k", 10, "number of results")
	cmd.Flags().Int("trees", 8, "number of trees")
	cmd.Flags().Int("leaf-size", 16, "maximum points per leaf")
	cmd.Flags().Int("dims", 0, "catalog vector dimension")
	cmd.Flags().Bool("normalize", true, "normalize catalog vectors")
	return cmd
}
