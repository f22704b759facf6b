// Package logging constructs the zap logger used for diagnostics.
//
// Progress lines and banners are part of the CLI contract and go to stdout
// directly; the logger carries everything else and writes to stderr.
package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Debug switches to the development config
// with human-readable output and debug-level logging enabled.
func New(debug bool) (*zap.Logger, error) {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}
