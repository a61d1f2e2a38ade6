package log

import (
	"context"
	"fmt"

	confv1 "authform-go/internal/conf/v1"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module 提供 *zap.Logger
var Module = fx.Module("log",
	fx.Provide(NewLogger),
)

// NewLogger 根据配置创建 zap 日志，并在应用停止时刷新缓冲
func NewLogger(lc fx.Lifecycle, conf *confv1.Bootstrap) (*zap.Logger, error) {
	logger, err := New(conf.Log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// stderr 上的 Sync 可能返回 EINVAL，忽略即可
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}

// New 不依赖 fx 创建日志，CLI 也使用它
func New(c *confv1.Log) (*zap.Logger, error) {
	var zc zap.Config
	if c != nil && c.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if c != nil && c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", c.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
