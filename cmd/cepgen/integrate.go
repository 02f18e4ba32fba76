package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cepgen/cepgen-go/pkg/run"
)

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Args:  cobra.NoArgs,
	Short: "Integrate the configured process's differential cross section",
	RunE:  runIntegrate,
}

func init() {
	integrateCmd.Flags().Int64("seed", 1, "random seed for the integration RNG")
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	card, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading run card: %w", err)
	}

	seed, _ := cmd.Flags().GetInt64("seed")

	r, err := run.Build(card)
	if err != nil {
		return fmt.Errorf("building run: %w", err)
	}

	log.Info().Str("process", card.Process.Name).Str("algorithm", card.Integrator.Name).Msg("starting integration")

	result, err := r.Integrate(seed)
	if err != nil {
		return fmt.Errorf("integration failed: %w", err)
	}

	fmt.Printf("cross section: %g +- %g (chi2/dof = %g)\n", result.Value, result.Uncertainty, result.ChiSqPerDof)
	return nil
}
