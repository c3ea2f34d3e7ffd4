package hub

import "go.uber.org/zap"

// GetFriends answers the requester with their friend list.
func (h *Hub) GetFriends(c Conn, args ...any) {
	var userID uint
	if len(args) > 0 {
		userID = asUint(args[0])
		if userID == 0 {
			userID = uintField(payloadMap(args), "userId", "userid")
		}
	}
	if userID == 0 {
		return
	}

	friends, err := h.store.FriendsOf(userID)
	if err != nil {
		zap.L().Error("friend list lookup failed", zap.Uint("user", userID), zap.Error(err))
		return
	}
	c.Emit("friend_list", friends)
}

// FriendRequestSent pushes the live notification for a freshly sent friend
// request to the receiver. Via the notifier, so a request sent during
// startup still reaches a receiver once the transport is up.
func (h *Hub) FriendRequestSent(args ...any) {
	m := payloadMap(args)
	receiver := stringField(m, "receiverId", "receiverid")
	if receiver == "" {
		return
	}
	h.notifier.EmitToUser(receiver, "friend_request_received", m)
}

// FriendRequestResponded pushes the response notification back to the
// original sender.
func (h *Hub) FriendRequestResponded(args ...any) {
	m := payloadMap(args)
	sender := stringField(m, "senderId", "senderid")
	if sender == "" {
		return
	}
	h.notifier.EmitToUser(sender, "friend_request_responded", m)
}
