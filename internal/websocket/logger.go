package websocket

import (
	"truthgate-api/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// socketLogger writes connection lifecycle events with a fixed field set.
type socketLogger struct {
	logger *zap.Logger
}

func newSocketLogger(l *logger.Logger) socketLogger {
	if l == nil {
		l = logger.NewNop()
	}
	return socketLogger{logger: l.Logger.With(zap.String("component", "websocket"))}
}

func (l socketLogger) fields(event string, userID uuid.UUID, clientID string, extra []zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("event", event),
		zap.String("user_id", userID.String()),
		zap.String("client_id", clientID),
	}, extra...)
}

func (l socketLogger) Info(event string, userID uuid.UUID, clientID string, fields ...zap.Field) {
	l.logger.Info("websocket_event", l.fields(event, userID, clientID, fields)...)
}

func (l socketLogger) Warn(event string, userID uuid.UUID, clientID string, fields ...zap.Field) {
	l.logger.Warn("websocket_warning", l.fields(event, userID, clientID, fields)...)
}

func (l socketLogger) Error(event string, userID uuid.UUID, clientID string, err error, fields ...zap.Field) {
	l.logger.Error("websocket_error", l.fields(event, userID, clientID, append(fields, zap.Error(err)))...)
}
