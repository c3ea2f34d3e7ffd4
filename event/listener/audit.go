package listener

import (
	"chat-service/event"

	"go.uber.org/zap"
)

var AuditChannel = make(chan event.Message, 256)

// Audit writes every bus event to the structured log, one line per event.
func Audit() {
	for msg := range AuditChannel {
		zap.L().Info("audit",
			zap.String("action", msg.Action),
			zap.ByteString("data", msg.Data),
		)
	}
}
