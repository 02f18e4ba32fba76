package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "cepgen",
	Short:   "Monte Carlo integrator and unweighted event generator",
	Long:    `cepgen integrates a differential cross section over a phase space and, once its grid cache is trained, generates unweighted events against it.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "run card file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")

	rootCmd.AddCommand(integrateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(validateConfigCmd)
}

// Commands are defined in separate files:
// - integrateCmd in integrate.go
// - generateCmd in generate.go
// - modulesCmd in modules.go
// - validateConfigCmd in validate_config.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
