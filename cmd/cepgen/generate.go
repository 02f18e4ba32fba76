package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cepgen/cepgen-go/pkg/run"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Args:  cobra.NoArgs,
	Short: "Train the grid cache and generate unweighted events",
	Long:  `Integrates the configured process to train its grid cache, then generates up to generator.maxgen unweighted events against it.`,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().Int64("seed", 1, "random seed for the warmup/training integration")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	card, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading run card: %w", err)
	}
	if card.Integrator.Name != "vegas" {
		return fmt.Errorf("generation requires integrator.name: vegas to train a grid cache, got %q", card.Integrator.Name)
	}

	seed, _ := cmd.Flags().GetInt64("seed")

	r, err := run.Build(card)
	if err != nil {
		return fmt.Errorf("building run: %w", err)
	}

	log.Info().Str("process", card.Process.Name).Msg("training grid cache")
	result, err := r.Integrate(seed)
	if err != nil {
		return fmt.Errorf("grid training failed: %w", err)
	}
	log.Info().Float64("cross_section", result.Value).Float64("uncertainty", result.Uncertainty).
		Msg("grid cache trained, starting event generation")

	n, err := r.Generate(context.Background())
	if err != nil {
		return fmt.Errorf("event generation failed: %w", err)
	}

	fmt.Printf("generated %d events (cross section %g +- %g)\n", n, result.Value, result.Uncertainty)
	return nil
}
