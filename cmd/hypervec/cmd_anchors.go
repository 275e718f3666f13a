package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/hypervec"
	"github.com/hupe1980/hypervec/anchor"
	"github.com/hupe1980/hypervec/sparse"
)

// observation is one JSONL input record. Coordinates are JSON object keys.
type observation struct {
	Key    string        `json:"key,omitempty"`
	Vector sparse.Vector `json:"vector"`
}

func anchorOptions(cmd *cobra.Command) ([]hypervec.Option, error) {
	maxDims, _ := cmd.Flags().GetInt("max-dimensions")
	tolerance, _ := cmd.Flags().GetUint16("tolerance")
	strategyName, _ := cmd.Flags().GetString("strategy")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	strategy, err := anchor.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	return []hypervec.Option{
		hypervec.WithAnchorOptions(
			anchor.WithMaxDimensions(maxDims),
			anchor.WithTolerance(tolerance),
			anchor.WithStrategy(strategy),
		),
		hypervec.WithLearnThreshold(threshold),
	}, nil
}

func addAnchorFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-dimensions", anchor.DefaultMaxDimensions, "coordinates kept per anchor")
	cmd.Flags().Uint16("tolerance", anchor.DefaultTolerance, "circular distance counted as a match")
	cmd.Flags().String("strategy", anchor.ByValue.String(), "compression strategy: value or frequency")
	cmd.Flags().Float64("threshold", 0.5, "closeness needed to reinforce an anchor")
}

func newAnchorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchors",
		Short: "Learn and inspect sparse anchors",
	}
	cmd.AddCommand(newAnchorsLearnCmd(a), newAnchorsListCmd(a), newAnchorsMatchCmd(a))
	return cmd
}

func newAnchorsLearnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn [FILE]",
		Short: "Learn anchors from JSONL observations",
		Long: `Learn anchors from a JSONL file (or stdin) of observations:

  {"key": "session-1", "vector": {"12": 100, "4711": 3}}

Invalid vectors are counted as rejected and skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := anchorOptions(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			e, closeFn, err := a.engine(ctx, opts...)
			if err != nil {
				return err
			}
			defer closeFn()

			in, err := a.openInput(firstArg(args))
			if err != nil {
				return err
			}
			defer in.Close()

			err = decodeLines(in, func(_ int, o observation) error {
				// Invalid vectors only affect counters.
				_, _ = e.Learn(o.Vector)
				return nil
			})
			if err != nil {
				return err
			}
			if err := e.Persist(ctx); err != nil {
				return err
			}
			return a.writeJSON(e.Stats().Anchors)
		},
	}
	addAnchorFlags(cmd)
	return cmd
}

func newAnchorsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored anchors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, closeFn, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return a.writeJSON(e.Anchors())
		},
	}
}

func newAnchorsMatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match [FILE]",
		Short: "Print the best anchor for each JSONL observation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := anchorOptions(cmd)
			if err != nil {
				return err
			}
			e, closeFn, err := a.engine(cmd.Context(), opts...)
			if err != nil {
				return err
			}
			defer closeFn()

			in, err := a.openInput(firstArg(args))
			if err != nil {
				return err
			}
			defer in.Close()

			type match struct {
				Key    string  `json:"key,omitempty"`
				Anchor int     `json:"anchor"`
				Score  float64 `json:"score"`
				Found  bool    `json:"found"`
			}
			return decodeLines(in, func(_ int, o observation) error {
				id, score, ok := e.Match(o.Vector)
				return a.writeJSON(match{Key: o.Key, Anchor: id, Score: score, Found: ok})
			})
		},
	}
	addAnchorFlags(cmd)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
