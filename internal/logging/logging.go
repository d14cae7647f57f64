// Package logging builds the process-wide zap.Logger from config,
// matching the level/format knobs the rest of the pack wires through
// LOG_LEVEL and LOG_JSON style settings.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. json selects the production (JSON) encoder;
// otherwise a human-readable console encoder is used, matching local
// development output from the rest of the pack's CLIs.
func New(level string, json bool) (*zap.Logger, error) {
	var zlvl zapcore.Level
	if err := zlvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		zlvl = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zlvl),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if json {
		cfg.Encoding = "json"
		cfg.EncoderConfig = zap.NewProductionEncoderConfig()
	}

	return cfg.Build()
}
