package hub

import (
	"context"

	"go.uber.org/zap"
)

// UserCall starts a call attempt: the caller's directory record is
// snapshotted into the call cache under the receiver's id, then the
// receiver's room is rung. An offline receiver simply never hears it; the
// caller's client owns the give-up timer.
func (h *Hub) UserCall(args ...any) {
	m := payloadMap(args)
	senderID := uintField(m, "senderId", "senderid")
	receiverID := uintField(m, "receiverId", "receiverid")
	callType := stringField(m, "type")
	if senderID == 0 || receiverID == 0 {
		return
	}

	if blocked, err := h.store.IsBlockedBetween(senderID, receiverID); err != nil || blocked {
		if err != nil {
			zap.L().Error("user_call block check failed", zap.Error(err))
		}
		return
	}

	caller, err := h.store.UserByID(senderID)
	if err != nil {
		zap.L().Error("user_call caller lookup failed", zap.Uint("sender", senderID), zap.Error(err))
		return
	}

	key := room(receiverID)
	attempt := CallAttempt{
		CallerID:       caller.ID,
		CallerUsername: caller.Username,
		CallerAvatar:   caller.Avatar,
		Type:           callType,
		RoomID:         key,
	}
	if err := h.calls.Put(context.Background(), key, attempt); err != nil {
		zap.L().Error("call cache put failed", zap.String("key", key), zap.Error(err))
		return
	}

	h.emitter.Emit(key, "incoming_call", map[string]any{
		"senderId":   senderID,
		"receiverId": receiverID,
		"type":       callType,
	})
	h.emitter.Emit(key, "sender_data", attempt)
}

// RequestSenderData re-serves the cached caller snapshot to a receiver that
// reconnected mid-ring, so the incoming-call UI can resume without the
// caller re-initiating.
func (h *Hub) RequestSenderData(c Conn, args ...any) {
	key := h.callKey(args)
	if key == "" {
		return
	}
	attempt, ok, err := h.calls.Get(context.Background(), key)
	if err != nil {
		zap.L().Error("call cache get failed", zap.String("key", key), zap.Error(err))
		return
	}
	if ok {
		c.Emit("sender_data", attempt)
	}
}

// CallAccepted resolves the cached caller and notifies only the caller's
// room. The media-room join happens client-side after this, against the
// external call SDK.
func (h *Hub) CallAccepted(args ...any) {
	key := h.callKey(args)
	if key == "" {
		return
	}
	attempt, ok, err := h.calls.Get(context.Background(), key)
	if err != nil || !ok {
		if err != nil {
			zap.L().Error("call cache get failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	// The call is live now; extend the entry past the ring window so the
	// end-of-call events can still resolve the counterpart however long
	// the call runs.
	if err := h.calls.Activate(context.Background(), key); err != nil {
		zap.L().Error("call cache activate failed", zap.String("key", key), zap.Error(err))
	}

	h.emitter.Emit(room(attempt.CallerID), "accepted")
}

// CallDeclined forwards the decline to the caller's room and drops the
// cached attempt. The wire payload carries only the caller's id; the cache
// key is the declining receiver's own identity, resolved through the
// registry from the connection that declined. History recording is the
// clients' job through the idempotent call-history upsert.
func (h *Hub) CallDeclined(c Conn, args ...any) {
	m := payloadMap(args)
	caller := stringField(m, "callerId", "senderId")
	if caller == "" {
		return
	}
	h.emitter.Emit(caller, "call_declined", m)

	key := stringField(m, "receiverId")
	if key == "" {
		key, _ = h.registry.UserOf(c.ID())
	}
	if key != "" {
		h.calls.Delete(context.Background(), key)
	}
}

// CallEnded notifies the counterpart of the ending side, and only the
// counterpart: the event is addressed to one room resolved through the
// cache, never broadcast, so an unrelated user can never misread it.
func (h *Hub) CallEnded(args ...any) {
	m := payloadMap(args)
	key := stringField(m, "receiverId", "receiverid")
	if key == "" {
		return
	}
	direction := stringField(m, "direction")

	attempt, ok, err := h.calls.Get(context.Background(), key)
	if err != nil {
		zap.L().Error("call cache get failed", zap.String("key", key), zap.Error(err))
	}

	if direction == "receiver" {
		// The receiver hung up; tell the caller.
		if ok {
			h.emitter.Emit(room(attempt.CallerID), "call_ended_by_receiver", m)
		}
	} else {
		// The caller hung up; tell the receiver, whose id names the room.
		h.emitter.Emit(key, "call_ended_by_sender", m)
	}

	h.calls.Delete(context.Background(), key)
}

// callKey pulls the cache key (the receiver's own id) from an event that
// may carry it bare or wrapped in an object.
func (h *Hub) callKey(args []any) string {
	if len(args) == 0 {
		return ""
	}
	if key := asString(args[0]); key != "" {
		return key
	}
	m := payloadMap(args)
	return stringField(m, "receiverId", "receiverid")
}
