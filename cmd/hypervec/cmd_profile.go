package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update and export the stored profile",
	}
	cmd.AddCommand(newProfileAddCmd(a), newProfileFactCmd(a), newProfileExportCmd(a))
	return cmd
}

func newProfileAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add KIND ITEM",
		Short: "Fold an interaction into every profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, closeFn, err := a.engine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.Interaction(ctx, args[0], args[1]); err != nil {
				return err
			}
			if err := e.Persist(ctx); err != nil {
				return err
			}
			return a.writeJSON(map[string]any{"interactions": e.Stats().Interactions})
		},
	}
}

func newProfileFactCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fact ROLE=FILLER...",
		Short: "Fold a structured fact into one profile",
		Long: `Fold a role-filler fact into the profile of size --dims.

Example:
  hypervec profile fact action=buy item=shoes --dims 10000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := parseRoles(args)
			if err != nil {
				return err
			}
			dims, _ := cmd.Flags().GetInt("dims")

			ctx := cmd.Context()
			e, closeFn, err := a.engine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if dims == 0 {
				dims = e.Dimensions()[0]
			}
			if err := e.StructuredFact(ctx, roles, dims); err != nil {
				return err
			}
			if err := e.Persist(ctx); err != nil {
				return err
			}
			return a.writeJSON(map[string]any{"interactions": e.Stats().Interactions})
		},
	}
	cmd.Flags().Int("dims", 0, "profile dimension, defaults to the first configured")
	return cmd
}

func parseRoles(args []string) (map[string]string, error) {
	roles := make(map[string]string, len(args))
	for _, arg := range args {
		role, filler, ok := strings.Cut(arg, "=")
		if !ok || role == "" || filler == "" {
			return nil, fmt.Errorf("invalid role %q, want ROLE=FILLER", arg)
		}
		roles[role] = filler
	}
	return roles, nil
}

func newProfileExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a profile",
		Long: `Print a profile as a JSON array.

Formats:
  raw        unnormalized accumulator
  quantized  normalized, scaled to int16
  half       normalized, IEEE 754 half-precision bit patterns`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dims, _ := cmd.Flags().GetInt("dims")
			format, _ := cmd.Flags().GetString("format")

			ctx := cmd.Context()
			e, closeFn, err := a.engine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if dims == 0 {
				dims = e.Dimensions()[0]
			}
			var out any
			switch format {
			case "raw":
				out, err = e.Profile(dims)
			case "quantized":
				out, err = e.ExportQuantized(dims)
			case "half":
				out, err = e.ExportHalf(dims)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			return a.writeJSON(out)
		},
	}
	cmd.Flags().Int("dims", 0, "profile dimension, defaults to the first configured")
	cmd.Flags().String("format", "quantized", "raw, quantized or half")
	return cmd
}
