package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init replaces the global zap logger. Anything other than production gets the
// human-readable development encoder.
func Init(environment string) error {
	var (
		logger *zap.Logger
		err    error
	)
	switch environment {
	case "production", "prod":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("zap.New -> %w", err)
	}

	zap.ReplaceGlobals(logger.With(zap.String("env", environment)))

	return nil
}
