package notify

import (
	"context"

	"github.com/apper-canvas/market-mosaic-media/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) error {
	lvl := zapcore.InfoLevel
	if n.Level == LevelError {
		lvl = zapcore.WarnLevel
	}
	logger.FromContext(ctx, s.log).Log(lvl, "notification",
		zap.String("session", n.Session),
		zap.String("kind", string(n.Kind)),
		zap.String("level", string(n.Level)),
		zap.String("message", n.Message))
	return nil
}
