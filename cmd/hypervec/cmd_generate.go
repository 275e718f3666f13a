package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/sparse"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate KEY",
		Short: "Print the deterministic hypervector for a key",
		Long: `Print the hypervector generated for KEY as a JSON array.

With --modulus 0 the vector is bipolar (+1/-1). With 32 or 512 it is a
cyclic vector whose components are phases in [0, modulus).

Examples:
  hypervec generate click --dims 16
  hypervec generate color=red --modulus 512`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dims, _ := cmd.Flags().GetInt("dims")
			modulus, _ := cmd.Flags().GetUint16("modulus")
			if dims <= 0 {
				return fmt.Errorf("--dims must be positive, got %d", dims)
			}
			if modulus == 0 {
				return a.writeJSON(hdc.Generate(dims, args[0]))
			}
			m := hdc.Modulus(modulus)
			if !m.Valid() {
				return hdc.ErrInvalidModulus
			}
			return a.writeJSON(m.Generate(dims, args[0]).Values())
		},
	}
	cmd.Flags().Int("dims", 10000, "vector dimension")
	cmd.Flags().Uint16("modulus", 0, "0 for bipolar, 32 or 512 for cyclic")
	return cmd
}

func newSparseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sparse ID",
		Short: "Print the deterministic sparse vector for an id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			space, _ := cmd.Flags().GetUint32("space")
			sparsity, _ := cmd.Flags().GetInt("sparsity")
			return a.writeJSON(sparse.Generate(args[0], space, sparsity))
		},
	}
	cmd.Flags().Uint32("space", 1<<20, "coordinate space")
	cmd.Flags().Int("sparsity", 64, "number of non-zero coordinates")
	return cmd
}
