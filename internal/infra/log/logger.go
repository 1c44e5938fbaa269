package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultService = "records-api"

type Options struct {
	// Level is a zap level name; empty or unparsable means debug.
	Level string
	// Env "production" switches to sampled JSON, anything else is colored console.
	Env     string
	Service string
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

func (o Options) config() zap.Config {
	if o.Env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.MessageKey = "msg"
		cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 50}
		return cfg
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

func New(o Options) (*zap.Logger, error) {
	cfg := o.config()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(o.OutputPaths) > 0 {
		cfg.OutputPaths = o.OutputPaths
	}

	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	badLevel := false
	if o.Level != "" {
		if err := cfg.Level.UnmarshalText([]byte(o.Level)); err != nil {
			cfg.Level.SetLevel(zap.DebugLevel)
			badLevel = true
		}
	}

	if o.Service == "" {
		o.Service = DefaultService
	}
	cfg.InitialFields = map[string]any{"service": o.Service, "env": o.Env}

	l, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	if badLevel {
		l.Warn("bad LOG_LEVEL, fallback to debug", zap.String("LOG_LEVEL", o.Level))
	}
	return l, nil
}

func Must(o Options) *zap.Logger {
	l, err := New(o)
	if err != nil {
		panic(err)
	}
	return l
}
