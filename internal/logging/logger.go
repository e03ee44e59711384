package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/parisxmas/leadsite/internal/config"
	"github.com/parisxmas/leadsite/internal/gelf"
)

const serviceName = "leadsite"

// New builds the process logger: JSON in production, console otherwise, with
// an optional GELF tee. The returned cleanup flushes and closes sinks.
func New(cfg *config.Config) (*zap.Logger, func(), error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	logger = logger.With(zap.String("service", serviceName))

	cleanup := func() { _ = logger.Sync() }
	if cfg.GelfAddr == "" {
		return logger, cleanup, nil
	}

	w, err := gelf.New(cfg.GelfAddr, serviceName)
	if err != nil {
		logger.Warn("GELF init failed", zap.String("addr", cfg.GelfAddr), zap.Error(err))
		return logger, cleanup, nil
	}
	gelfCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		zcfg.Level,
	)
	logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, gelfCore)
	}))
	logger.Info("GELF logging enabled", zap.String("addr", cfg.GelfAddr))

	return logger, func() {
		_ = logger.Sync()
		_ = w.Close()
	}, nil
}
