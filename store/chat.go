package store

import (
	"errors"
	"time"

	"chat-service/model"

	"gorm.io/gorm"
)

// FindOrCreateConversation resolves the single conversation for an unordered
// user pair, creating it lazily on first contact. Two handlers racing to
// create the same pair are settled by the unique index on the normalized
// pair: the loser re-reads the winner's row instead of erroring.
func (s *Store) FindOrCreateConversation(a, b uint) (*model.Conversation, error) {
	if a > b {
		a, b = b, a
	}

	conv := new(model.Conversation)
	err := s.db.Where(&model.Conversation{UserAID: a, UserBID: b}).First(conv).Error
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = &model.Conversation{UserAID: a, UserBID: b}
	if createErr := s.db.Create(conv).Error; createErr != nil {
		conv = new(model.Conversation)
		if err := s.db.Where(&model.Conversation{UserAID: a, UserBID: b}).First(conv).Error; err != nil {
			return nil, createErr
		}
	}
	return conv, nil
}

// CreateMessage persists a text message and bumps the conversation's
// last-message pointer and updated-at timestamp.
func (s *Store) CreateMessage(senderID, receiverID uint, content, attachment string) (*model.Message, error) {
	conv, err := s.FindOrCreateConversation(senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		Attachment:     attachment,
		MessageType:    model.MessageTypeText,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}
	if err := s.touchConversation(conv.ID, msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Store) touchConversation(convID, msgID uint) error {
	return s.db.Model(&model.Conversation{}).
		Where("id = ?", convID).
		Updates(map[string]any{"last_message_id": msgID, "updated_at": time.Now()}).Error
}

// MessagesBetween returns the requester's view of the pair's history,
// ascending by creation, with the requester's cleared watermark applied.
// No conversation means an empty sequence, not an error.
func (s *Store) MessagesBetween(requesterID, peerID uint) ([]model.Message, error) {
	a, b := requesterID, peerID
	if a > b {
		a, b = b, a
	}

	conv := new(model.Conversation)
	err := s.db.Where(&model.Conversation{UserAID: a, UserBID: b}).First(conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	query := s.db.Where("conversation_id = ?", conv.ID)

	state := new(model.ConversationState)
	err = s.db.Where(&model.ConversationState{ConversationID: conv.ID, UserID: requesterID}).First(state).Error
	if err == nil && state.ClearedAt != nil {
		query = query.Where("created_at > ?", *state.ClearedAt)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var messages []model.Message
	if err := query.Order("created_at asc, id asc").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// ClearConversation moves the requester's cleared watermark to now. The
// other participant's view is untouched; nothing is deleted.
func (s *Store) ClearConversation(requesterID, peerID uint) error {
	a, b := requesterID, peerID
	if a > b {
		a, b = b, a
	}

	conv := new(model.Conversation)
	err := s.db.Where(&model.Conversation{UserAID: a, UserBID: b}).First(conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	state := new(model.ConversationState)
	err = s.db.Where(&model.ConversationState{ConversationID: conv.ID, UserID: requesterID}).First(state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&model.ConversationState{
			ConversationID: conv.ID,
			UserID:         requesterID,
			ClearedAt:      &now,
		}).Error
	}
	if err != nil {
		return err
	}
	state.ClearedAt = &now
	return s.db.Save(state).Error
}

// ConversationsFor lists a user's conversations, most recently active first.
func (s *Store) ConversationsFor(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := s.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Preload("LastMessage").
		Order("updated_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// UpsertCallHistory records one call attempt keyed by (conversation, room).
// Both call legs may submit; the second writer merges into the existing row,
// keeping the max duration and the latest status, instead of inserting a
// duplicate. A duration of zero never yields status "ended".
func (s *Store) UpsertCallHistory(senderID, receiverID uint, roomID, callType, status, direction string, duration int) (*model.Message, error) {
	conv, err := s.FindOrCreateConversation(senderID, receiverID)
	if err != nil {
		return nil, err
	}

	msg := new(model.Message)
	err = s.db.Where("conversation_id = ? AND call_room_id = ?", conv.ID, roomID).First(msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		msg = &model.Message{
			ConversationID: conv.ID,
			SenderID:       senderID,
			ReceiverID:     receiverID,
			MessageType:    model.MessageTypeCall,
			CallType:       callType,
			CallDuration:   duration,
			CallStatus:     normalizeCallStatus(status, duration),
			CallRoomID:     &roomID,
			CallDirection:  direction,
		}
		if createErr := s.db.Create(msg).Error; createErr != nil {
			// Lost the race against the other leg; merge into its row.
			msg = new(model.Message)
			if err := s.db.Where("conversation_id = ? AND call_room_id = ?", conv.ID, roomID).First(msg).Error; err != nil {
				return nil, createErr
			}
			return s.mergeCallHistory(msg, status, duration)
		}
		if err := s.touchConversation(conv.ID, msg.ID); err != nil {
			return nil, err
		}
		return msg, nil
	}
	if err != nil {
		return nil, err
	}
	return s.mergeCallHistory(msg, status, duration)
}

func (s *Store) mergeCallHistory(msg *model.Message, status string, duration int) (*model.Message, error) {
	if duration > msg.CallDuration {
		msg.CallDuration = duration
	}
	msg.CallStatus = normalizeCallStatus(status, msg.CallDuration)
	if err := s.db.Save(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// CallHistoryFor returns a user's persisted call records, newest first.
func (s *Store) CallHistoryFor(userID uint) ([]model.Message, error) {
	var calls []model.Message
	err := s.db.Where("message_type = ? AND (sender_id = ? OR receiver_id = ?)",
		model.MessageTypeCall, userID, userID).
		Order("created_at desc").
		Find(&calls).Error
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func normalizeCallStatus(status string, duration int) string {
	if duration > 0 {
		return model.CallStatusEnded
	}
	if status == model.CallStatusDeclined {
		return model.CallStatusDeclined
	}
	return model.CallStatusMissed
}
