package listener

import (
	"encoding/json"

	"chat-service/event"
	"chat-service/utils"

	"go.uber.org/zap"
)

var MailerChannel = make(chan event.Message, 64)

// MailRequest is the mailer queue payload.
type MailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer drains the mailer queue and hands each entry to the SMTP
// collaborator. Failures are logged and dropped; mail is a courtesy, the
// persisted record is the source of truth.
func Mailer() {
	for msg := range MailerChannel {
		req := MailRequest{}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			zap.L().Warn("mailer: malformed payload", zap.String("action", msg.Action), zap.Error(err))
			continue
		}
		if err := utils.SendMail(req.To, req.Subject, req.Body); err != nil {
			zap.L().Warn("mailer: send failed",
				zap.String("action", msg.Action), zap.String("to", req.To), zap.Error(err))
			continue
		}
		zap.L().Info("mailer: sent", zap.String("action", msg.Action), zap.String("to", req.To))
	}
}
