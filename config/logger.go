package config

import (
	"go.uber.org/zap"
)

// SetupLogger initializes the global zap logger according to the environment
// type and installs it via zap.ReplaceGlobals, so the rest of the codebase
// can use zap.L() without threading a logger through every constructor.
func SetupLogger(envType string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if envType == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
