// Package logging builds the shared zap logger.
package logging

import "go.uber.org/zap"

// New returns a production logger, or a human-readable development logger
// when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
