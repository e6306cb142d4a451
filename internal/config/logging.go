package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BuildLogger constructs the process logger. Logs go to stderr so stdout
// stays free for the line protocol; an optional log_file adds a file sink.
// Debug level is enabled by config or the --verbose flag.
func (c *Config) BuildLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if c.LogFile != "" {
		zc.OutputPaths = append(zc.OutputPaths, c.LogFile)
	}
	if c.Debug || verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}
