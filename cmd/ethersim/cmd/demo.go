package cmd

import (
	_ "embed"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ethersim/topology"
)

//go:embed demo.yaml
var demoTopology []byte

func newDemoCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a switch with two hosts that ping each other.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := topology.ParseBytes(demoTopology)
			if err != nil {
				return err
			}

			return simulate(cmd.Context(), cmd.OutOrStdout(), config, opts)
		},
	}

	opts.addFlags(cmd)

	return cmd
}
