package main

import (
	"os"

	"github.com/cepgen/cepgen-go/pkg/config"
	"github.com/cepgen/cepgen-go/pkg/reporting"
)

// loadConfig loads the run card named by the --config flag (falling back
// to built-in defaults) and initialises the global logger from its
// logger section, upgraded to debug level when --verbose is set.
func loadConfig() (*config.RunCard, error) {
	card, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := reporting.LogLevel(card.Logger.Level)
	if verbose {
		level = reporting.LogLevelDebug
	}
	reporting.InitGlobalLogger(reporting.LoggerConfig{
		Level:  level,
		Format: reporting.LogFormat(card.Logger.Format),
		Output: os.Stdout,
	})

	return card, nil
}
