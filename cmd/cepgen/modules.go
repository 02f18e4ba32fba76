package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cepgen/cepgen-go/pkg/integrator"
	"github.com/cepgen/cepgen-go/pkg/pipeline"
	"github.com/cepgen/cepgen-go/pkg/process"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Args:  cobra.NoArgs,
	Short: "List every registered module by factory",
	RunE:  runModules,
}

func runModules(cmd *cobra.Command, args []string) error {
	print := func(factory string, names []string) {
		fmt.Printf("%s:\n", factory)
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}

	print("process", process.Registry.Modules())
	print("integrator", []string{integrator.AlgorithmVegas, integrator.AlgorithmMiser, integrator.AlgorithmPlain})
	print("eventSequence", pipeline.ModifierRegistry.Modules())
	print("output", pipeline.ExporterRegistry.Modules())
	return nil
}
