package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Production sampling keeps the first samplingInitial entries with the same
// message each second, then one in samplingThereafter
const (
	samplingInitial    = 100
	samplingThereafter = 50
)

// Options selects the logger flavour for the running service
type Options struct {
	// Service and Environment are stamped on every entry
	Service     string
	Environment string
	Debug       bool
	// Development switches to the colored console encoder without sampling
	Development bool
}

// New builds the service logger described by opts
func New(opts Options) (*zap.Logger, error) {
	return newConfig(opts).Build()
}

func newConfig(opts Options) zap.Config {
	var config zap.Config
	if opts.Development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Sampling = nil
	} else {
		config = productionConfig()
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	fields := map[string]interface{}{}
	if opts.Service != "" {
		fields["service"] = opts.Service
	}
	if opts.Environment != "" {
		fields["environment"] = opts.Environment
	}
	if len(fields) > 0 {
		config.InitialFields = fields
	}
	return config
}

// productionConfig is JSON with ISO8601 times, millisecond durations and
// stack traces from error level
func productionConfig() zap.Config {
	config := zap.NewProductionConfig()
	config.Encoding = "json"
	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	config.DisableStacktrace = false
	config.Sampling = &zap.SamplingConfig{
		Initial:    samplingInitial,
		Thereafter: samplingThereafter,
	}
	return config
}

// Sync flushes buffered entries. Safe to call with a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}

