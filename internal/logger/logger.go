package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogMod string

const (
	DevelopmentMod LogMod = "development"
	ProductionMod  LogMod = "production"
)

const (
	LogModEnvKey = "LOG_MOD"
	LevelEnvKey  = "LOG_LEVEL"
)

// ServiceName is attached to every log line.
const ServiceName = "queue-hires"

type Config struct {
	Mod   LogMod
	Level string
}

func ConfigFromEnv() Config {
	return Config{
		Mod:   LogMod(os.Getenv(LogModEnvKey)),
		Level: os.Getenv(LevelEnvKey),
	}
}

// New builds a zap logger: JSON for production (the default), console otherwise.
func New(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		level = parsed
	}

	var zapCfg zap.Config
	switch cfg.Mod {
	case DevelopmentMod:
		zapCfg = zap.NewDevelopmentConfig()
	case ProductionMod, "":
		zapCfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("logger: unknown %s %q", LogModEnvKey, cfg.Mod)
	}
	zapCfg.Level.SetLevel(level)
	// stdout carries the response envelope
	zapCfg.OutputPaths = []string{"stderr"}

	lg, err := zapCfg.Build(opts...)
	if err != nil {
		return nil, err
	}
	return lg.With(zap.String("service", ServiceName)), nil
}
