package hub

import (
	"go.uber.org/zap"

	"chat-service/model"
)

// SendMessage persists a message and delivers it to both participants'
// rooms. When the receiver is the assistant identity, a best-effort reply
// branch runs after the user's message is safely through.
func (h *Hub) SendMessage(args ...any) {
	m := payloadMap(args)
	senderID := uintField(m, "senderid", "senderId")
	receiverID := uintField(m, "receiverid", "receiverId")
	content := stringField(m, "content")
	attachment := stringField(m, "attachment")

	if senderID == 0 || receiverID == 0 || (content == "" && attachment == "") {
		zap.L().Debug("send_message dropped: malformed payload")
		return
	}

	if blocked, err := h.store.IsBlockedBetween(senderID, receiverID); err != nil || blocked {
		if err != nil {
			zap.L().Error("send_message block check failed", zap.Error(err))
		}
		return
	}

	msg, err := h.persistAndDeliver(senderID, receiverID, content, attachment)
	if err != nil {
		zap.L().Error("send_message persist failed",
			zap.Uint("sender", senderID), zap.Uint("receiver", receiverID), zap.Error(err))
		return
	}

	if h.assistantID != 0 && receiverID == h.assistantID {
		// The assistant turn must never fail the user's message, so it
		// runs detached from this handler.
		go h.assistantReply(senderID, msg.Content)
	}
}

func (h *Hub) persistAndDeliver(senderID, receiverID uint, content, attachment string) (*model.Message, error) {
	msg, err := h.store.CreateMessage(senderID, receiverID, content, attachment)
	if err != nil {
		return nil, err
	}

	// Both emissions carry the persisted record so clients render ids and
	// timestamps consistently.
	h.emitter.Emit(room(senderID), "send_message_to_sender", msg)
	h.emitter.Emit(room(receiverID), "send_message_to_receiver", msg)
	return msg, nil
}

func (h *Hub) assistantReply(userID uint, prompt string) {
	if h.generator == nil {
		return
	}
	reply, err := h.generator.Reply(prompt)
	if err != nil {
		zap.L().Warn("assistant reply failed", zap.Error(err))
		return
	}
	if _, err := h.persistAndDeliver(h.assistantID, userID, reply, ""); err != nil {
		zap.L().Warn("assistant reply persist failed", zap.Error(err))
	}
}

// NewMessageBadge forwards the lightweight badge event to the receiver's
// room. Deliberately decoupled from the persisted-message emission so a
// notification UI never handles the full message shape.
func (h *Hub) NewMessageBadge(args ...any) {
	m := payloadMap(args)
	receiver := stringField(m, "receiverId", "receiverid")
	if receiver == "" {
		return
	}
	h.emitter.Emit(receiver, "new_message", m)
}
