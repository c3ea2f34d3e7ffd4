package router

import (
	"chat-service/hub"

	"github.com/zishang520/socket.io/v2/socket"
)

// socketConn adapts a live socket to the slice the hub consumes.
type socketConn struct {
	s *socket.Socket
}

func (c socketConn) ID() string {
	return string(c.s.Id())
}

func (c socketConn) Join(room string) {
	c.s.Join(socket.Room(room))
}

func (c socketConn) Emit(event string, payload ...any) {
	c.s.Emit(event, payload...)
}

func (c socketConn) BroadcastOthers(event string, payload ...any) {
	c.s.Broadcast().Emit(event, payload...)
}

// Socket registers the wire contract. Event names are fixed; clients depend
// on them byte for byte.
func Socket(server *socket.Server, h *hub.Hub) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)
		conn := socketConn{s: client}

		// Registration and presence
		client.On("join_room", func(args ...interface{}) {
			h.JoinRoom(conn, args...)
		})
		client.On("disconnect", func(...interface{}) {
			h.Disconnect(conn)
		})
		client.On("status", func(args ...interface{}) {
			h.Status(conn, args...)
		})

		// Messaging
		client.On("send_message", func(args ...interface{}) {
			h.SendMessage(args...)
		})
		client.On("new_messages", func(args ...interface{}) {
			h.NewMessageBadge(args...)
		})
		client.On("typing", func(args ...interface{}) {
			h.Typing(args...)
		})
		client.On("is_not_typing", func(args ...interface{}) {
			h.StopTyping(args...)
		})

		// Call signaling
		client.On("user_call", func(args ...interface{}) {
			h.UserCall(args...)
		})
		client.On("request_sender_data", func(args ...interface{}) {
			h.RequestSenderData(conn, args...)
		})
		client.On("call_accepted", func(args ...interface{}) {
			h.CallAccepted(args...)
		})
		client.On("call_ended", func(args ...interface{}) {
			h.CallEnded(args...)
		})
		client.On("call_declined", func(args ...interface{}) {
			h.CallDeclined(conn, args...)
		})

		// Friends
		client.On("get_friends", func(args ...interface{}) {
			h.GetFriends(conn, args...)
		})
		client.On("friend_request_sent", func(args ...interface{}) {
			h.FriendRequestSent(args...)
		})
		client.On("friend_request_responded", func(args ...interface{}) {
			h.FriendRequestResponded(args...)
		})
	})
}
