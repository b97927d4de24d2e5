// Package telemetry wires logr/stdr logging into the protocol packages,
// adapted from the teacher's pkg/log package.
package telemetry

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// GetLogger returns a stdr.Logger implementing logr.Logger, set to the
// given verbosity. 0 is info-level, 1 is debug (per-stage timing and
// bucket occupancy), 2 is trace (per-element hashing decisions). Any other
// value is treated as 0.
func GetLogger(v int) logr.Logger {
	logger := stdr.New(nil).WithName("psihe")
	if v > 2 || v < 0 {
		v = 0
		logger.Info("invalid verbosity, defaulting to info-level messages only")
	}
	stdr.SetVerbosity(v)
	return logger
}

// ContextWithLogger returns a context carrying logger, retrievable with
// FromContext.
func ContextWithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// FromContext returns the logr.Logger carried by ctx, named name, or a
// fresh verbosity-0 logger if ctx carries none.
func FromContext(ctx context.Context, name string) logr.Logger {
	logger, err := logr.FromContext(ctx)
	if err != nil {
		logger = GetLogger(0)
	}
	if name != "" {
		return logger.WithName(name)
	}
	return logger
}
