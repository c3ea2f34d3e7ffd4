package hub

import "go.uber.org/zap"

// JoinRoom registers a connection under a user identity: the socket joins
// the room named by the user id and everyone else learns the user came
// online. Additional tabs join the room too but only the first one fires
// the presence transition.
func (h *Hub) JoinRoom(c Conn, args ...any) {
	var userID string
	if len(args) > 0 {
		userID = asString(args[0])
		if userID == "" {
			if m := payloadMap(args); m != nil {
				userID = stringField(m, "userId", "userid")
			}
		}
	}
	if userID == "" {
		return
	}

	c.Join(userID)
	first, wentOffline := h.registry.Register(c.ID(), userID)
	if wentOffline != "" {
		// The connection switched identities and took the old user's last
		// connection with it.
		c.BroadcastOthers("user_went_offline", map[string]any{"userId": wentOffline})
	}
	if first {
		c.BroadcastOthers("user_came_online", map[string]any{"userId": userID})
	}
	zap.L().Debug("connection registered", zap.String("user", userID), zap.String("conn", c.ID()))
}

// Disconnect cleans up after a dropped transport. Unknown connections are a
// no-op; the offline transition fires only for the user's last connection.
func (h *Hub) Disconnect(c Conn) {
	userID, last, ok := h.registry.Unregister(c.ID())
	if !ok {
		return
	}
	if last {
		c.BroadcastOthers("user_went_offline", map[string]any{"userId": userID})
	}
	zap.L().Debug("connection unregistered", zap.String("user", userID), zap.Bool("last", last))
}

// Status answers only the requester with the target's presence. The
// assistant identity reports online regardless of the registry.
func (h *Hub) Status(c Conn, args ...any) {
	m := payloadMap(args)
	target := stringField(m, "receiverId", "userId")
	if target == "" {
		return
	}

	if h.isOnline(target) {
		c.Emit("online", map[string]any{"userId": target})
		return
	}
	c.Emit("offline", map[string]any{"userId": target})
}

func (h *Hub) isOnline(userID string) bool {
	if h.assistantRoom != "" && userID == h.assistantRoom {
		return true
	}
	return h.registry.IsOnline(userID)
}

// Typing relays a typing indicator to the named receiver only. Delivery is
// fire-and-forget; an offline receiver just never sees it.
func (h *Hub) Typing(args ...any) {
	h.relayTyping("is_typing", args)
}

// StopTyping relays the end of a typing indicator to the named receiver.
func (h *Hub) StopTyping(args ...any) {
	h.relayTyping("not_typing", args)
}

func (h *Hub) relayTyping(event string, args []any) {
	m := payloadMap(args)
	receiver := stringField(m, "receiverId")
	if receiver == "" {
		return
	}
	h.emitter.Emit(receiver, event, m)
}
