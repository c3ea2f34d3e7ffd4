package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	MessageTypeText = "text"
	MessageTypeCall = "call"
)

const (
	CallTypeVoice = "voice"
	CallTypeVideo = "video"
)

const (
	CallStatusEnded    = "ended"
	CallStatusMissed   = "missed"
	CallStatusDeclined = "declined"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// Friend is a directed edge with denormalized display fields. Blocking is
// soft state; edges are never hard-deleted on block.
type Friend struct {
	gorm.Model
	UserID         uint   `gorm:"not null;uniqueIndex:idx_friend_edge" json:"userid"`
	FriendID       uint   `gorm:"not null;uniqueIndex:idx_friend_edge" json:"friendid"`
	FriendUsername string `json:"friendUsername"`
	FriendAvatar   string `json:"friendAvatar"`
	IsBlocked      bool   `gorm:"not null;default:false" json:"isBlocked"`
	BlockedBy      *uint  `json:"blockedBy,omitempty"`
}

type FriendRequest struct {
	gorm.Model
	SenderID   uint   `gorm:"not null;index" json:"senderId"`
	ReceiverID uint   `gorm:"not null;index" json:"receiverId"`
	Status     string `gorm:"not null;default:pending" json:"status"`
}

// Conversation groups messages for one unordered user pair. The pair is
// normalized so UserAID < UserBID, and the composite unique index makes the
// find-or-create race resolve to a single row.
type Conversation struct {
	gorm.Model
	UserAID       uint     `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"userAId"`
	UserBID       uint     `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"userBId"`
	LastMessageID *uint    `json:"lastMessageId,omitempty"`
	LastMessage   *Message `gorm:"foreignKey:LastMessageID" json:"lastMessage,omitempty"`
}

func (c *Conversation) BeforeCreate(_ *gorm.DB) error {
	if c.UserAID > c.UserBID {
		c.UserAID, c.UserBID = c.UserBID, c.UserAID
	}
	return nil
}

// Participants reports whether the conversation is exactly between a and b.
func (c *Conversation) Participants(a, b uint) bool {
	if a > b {
		a, b = b, a
	}
	return c.UserAID == a && c.UserBID == b
}

// ConversationState carries one user's cleared watermark for a conversation.
// Messages created at or before ClearedAt stay stored but are no longer
// returned to that user.
type ConversationState struct {
	gorm.Model
	ConversationID uint       `gorm:"not null;uniqueIndex:idx_conversation_user" json:"conversationId"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_conversation_user" json:"userId"`
	ClearedAt      *time.Time `json:"clearedAt,omitempty"`
}

// Message holds either text content or, for messageType "call", the call
// history fields. CallRoomID is nil for text messages so the composite
// unique index only binds call rows; that index is the idempotent upsert key
// for call history written by both call legs.
type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"not null;index;uniqueIndex:idx_conversation_call_room" json:"conversationId"`
	SenderID       uint   `gorm:"not null" json:"senderid"`
	ReceiverID     uint   `gorm:"not null" json:"receiverid"`
	Content        string `json:"content"`
	Attachment     string `json:"attachment,omitempty"`
	MessageType    string `gorm:"not null;default:text" json:"messageType"`

	CallType      string  `json:"callType,omitempty"`
	CallDuration  int     `json:"callDuration,omitempty"`
	CallStatus    string  `json:"callStatus,omitempty"`
	CallRoomID    *string `gorm:"uniqueIndex:idx_conversation_call_room" json:"callRoomId,omitempty"`
	CallDirection string  `json:"callDirection,omitempty"`
}

// Notification is the persisted source of truth behind the live push; the
// queue in notify only covers delivery, clients reconcile against these rows
// on reload.
type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"not null;index" json:"userId"`
	Kind    string `gorm:"not null" json:"kind"`
	Payload string `json:"payload"`
	Read    bool   `gorm:"not null;default:false" json:"read"`
}
