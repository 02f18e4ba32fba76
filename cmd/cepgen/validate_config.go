package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cepgen/cepgen-go/pkg/run"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Args:  cobra.NoArgs,
	Short: "Load and validate a run card without executing it",
	RunE:  runValidateConfig,
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	card, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading run card: %w", err)
	}

	if _, err := run.Build(card); err != nil {
		return fmt.Errorf("run card is invalid: %w", err)
	}

	fmt.Println("run card is valid")
	return nil
}
