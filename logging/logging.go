// Package logging builds the zap logger shared by the service components.
package logging

import (
	"os"
	"strings"

	"github.com/esimov/avatar/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level parses a level name, falling back to info.
func Level(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a console logger in development mode and a JSON logger
// writing to stdout otherwise.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	lvl := Level(cfg.Level)
	if cfg.Dev {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
