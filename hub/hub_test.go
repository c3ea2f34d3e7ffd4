package hub

import (
	"sync"
	"testing"
	"time"

	"chat-service/database"
	"chat-service/model"
	"chat-service/notify"
	"chat-service/registry"
	"chat-service/store"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type emitted struct {
	room    string
	event   string
	payload []any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) Emit(room string, event string, payload ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{room: room, event: event, payload: payload})
}

func (f *fakeEmitter) Broadcast(event string, payload ...any) {
	f.Emit("*", event, payload...)
}

func (f *fakeEmitter) toRoom(room string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.events {
		if e.room == room {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeEmitter) named(event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeConn struct {
	id         string
	joined     []string
	direct     []emitted
	broadcasts []emitted
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Join(room string) { f.joined = append(f.joined, room) }

func (f *fakeConn) Emit(event string, payload ...any) {
	f.direct = append(f.direct, emitted{event: event, payload: payload})
}

func (f *fakeConn) BroadcastOthers(event string, payload ...any) {
	f.broadcasts = append(f.broadcasts, emitted{event: event, payload: payload})
}

type fakeGenerator struct {
	reply string
	err   error
	seen  []string
	mu    sync.Mutex
	done  chan struct{}
}

func (f *fakeGenerator) Reply(prompt string) (string, error) {
	f.mu.Lock()
	f.seen = append(f.seen, prompt)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return f.reply, f.err
}

type fixture struct {
	hub      *Hub
	store    *store.Store
	emitter  *fakeEmitter
	notifier *notify.Notifier
	calls    *MemoryCallCache
	users    map[string]*model.User
	db       *gorm.DB
}

func newFixture(t *testing.T, gen Generator, assistantID uint) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	database.Migrate(db)

	st := store.New(db)
	emitter := &fakeEmitter{}
	notifier := notify.New()
	notifier.OnTransportReady(emitter)
	calls := NewMemoryCallCache(time.Minute, time.Hour)

	h := New(Config{
		Registry:    registry.New(),
		Store:       st,
		Emitter:     emitter,
		Notifier:    notifier,
		Calls:       calls,
		Generator:   gen,
		AssistantID: assistantID,
	})

	return &fixture{hub: h, store: st, emitter: emitter, notifier: notifier, calls: calls, users: map[string]*model.User{}, db: db}
}

func (f *fixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	if u, ok := f.users[username]; ok {
		return u
	}
	u := &model.User{Username: username, Email: username + "@example.com", Password: "x", Role: model.RoleUser}
	if err := f.db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	f.users[username] = u
	return u
}

func payloadOf(e emitted) map[string]any {
	if len(e.payload) == 0 {
		return nil
	}
	m, _ := e.payload[0].(map[string]any)
	return m
}

func TestSendMessagePersistsAndDelivers(t *testing.T) {
	f := newFixture(t, nil, 0)
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	f.hub.SendMessage(map[string]any{
		"senderid":   float64(a.ID),
		"receiverid": float64(b.ID),
		"content":    "hi",
	})

	var msg model.Message
	if err := f.db.First(&msg).Error; err != nil {
		t.Fatalf("message not persisted: %v", err)
	}
	if msg.SenderID != a.ID || msg.ReceiverID != b.ID || msg.Content != "hi" {
		t.Fatalf("persisted message wrong: %+v", msg)
	}

	var convCount int64
	f.db.Model(&model.Conversation{}).Count(&convCount)
	if convCount != 1 {
		t.Fatalf("expected one conversation, got %d", convCount)
	}

	toSender := f.emitter.toRoom(room(a.ID))
	toReceiver := f.emitter.toRoom(room(b.ID))
	if len(toSender) != 1 || toSender[0].event != "send_message_to_sender" {
		t.Fatalf("sender room delivery wrong: %+v", toSender)
	}
	if len(toReceiver) != 1 || toReceiver[0].event != "send_message_to_receiver" {
		t.Fatalf("receiver room delivery wrong: %+v", toReceiver)
	}

	// Delivery carries the full persisted record, not just content.
	delivered, ok := toReceiver[0].payload[0].(*model.Message)
	if !ok || delivered.ID != msg.ID {
		t.Fatalf("receiver delivery should carry the persisted record, got %T", toReceiver[0].payload[0])
	}
}

func TestSendMessageDroppedWhenBlocked(t *testing.T) {
	f := newFixture(t, nil, 0)
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	req, _ := f.store.CreateFriendRequest(a.ID, b.ID)
	f.store.RespondFriendRequest(req.ID, model.RequestAccepted)
	f.store.BlockFriend(b.ID, a.ID)

	f.hub.SendMessage(map[string]any{
		"senderid":   float64(a.ID),
		"receiverid": float64(b.ID),
		"content":    "let me in",
	})

	var count int64
	f.db.Model(&model.Message{}).Count(&count)
	if count != 0 {
		t.Fatal("message to a blocked pair must not persist")
	}
	if len(f.emitter.events) != 0 {
		t.Fatal("nothing should be delivered for a blocked pair")
	}
}

func TestAssistantReplyBranch(t *testing.T) {
	gen := &fakeGenerator{reply: "hello from the assistant", done: make(chan struct{})}
	f := newFixture(t, gen, 0)
	a := f.user(t, "alice")
	bot := &model.User{Username: "assistant", Email: "assistant@example.com", Password: "x", Role: model.RoleAssistant}
	if err := f.db.Create(bot).Error; err != nil {
		t.Fatalf("seed assistant: %v", err)
	}
	f.hub.assistantID = bot.ID
	f.hub.assistantRoom = room(bot.ID)

	f.hub.SendMessage(map[string]any{
		"senderid":   float64(a.ID),
		"receiverid": float64(bot.ID),
		"content":    "ping",
	})

	select {
	case <-gen.done:
	case <-time.After(2 * time.Second):
		t.Fatal("generator never invoked")
	}

	// The reply branch persists asynchronously; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int64
		f.db.Model(&model.Message{}).Count(&count)
		if count == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 messages, got %d", count)
		}
		time.Sleep(10 * time.Millisecond)
	}

	var reply model.Message
	f.db.Order("id desc").First(&reply)
	if reply.SenderID != bot.ID || reply.ReceiverID != a.ID || reply.Content != "hello from the assistant" {
		t.Fatalf("assistant reply wrong: %+v", reply)
	}
}

func TestAssistantFailureDoesNotAffectUserMessage(t *testing.T) {
	gen := &fakeGenerator{err: errContrived, done: make(chan struct{})}
	f := newFixture(t, gen, 0)
	a := f.user(t, "alice")
	bot := &model.User{Username: "assistant", Email: "assistant@example.com", Password: "x", Role: model.RoleAssistant}
	f.db.Create(bot)
	f.hub.assistantID = bot.ID
	f.hub.assistantRoom = room(bot.ID)

	f.hub.SendMessage(map[string]any{
		"senderid":   float64(a.ID),
		"receiverid": float64(bot.ID),
		"content":    "ping",
	})

	<-gen.done
	time.Sleep(50 * time.Millisecond)

	var count int64
	f.db.Model(&model.Message{}).Count(&count)
	if count != 1 {
		t.Fatalf("user message must survive assistant failure, got %d messages", count)
	}
}

func TestPresenceTransitions(t *testing.T) {
	f := newFixture(t, nil, 0)

	c1 := &fakeConn{id: "c1"}
	f.hub.JoinRoom(c1, "7")
	if len(c1.joined) != 1 || c1.joined[0] != "7" {
		t.Fatalf("connection should join room 7, joined %v", c1.joined)
	}
	if len(c1.broadcasts) != 1 || c1.broadcasts[0].event != "user_came_online" {
		t.Fatalf("expected user_came_online broadcast, got %+v", c1.broadcasts)
	}

	// Second tab: no second online transition.
	c2 := &fakeConn{id: "c2"}
	f.hub.JoinRoom(c2, "7")
	if len(c2.broadcasts) != 0 {
		t.Fatal("second connection must not rebroadcast user_came_online")
	}

	// Status query answered only to the requester.
	asker := &fakeConn{id: "c3"}
	f.hub.JoinRoom(asker, "9")
	f.hub.Status(asker, map[string]any{"receiverId": "7"})
	if len(asker.direct) != 1 || asker.direct[0].event != "online" {
		t.Fatalf("expected online answer, got %+v", asker.direct)
	}

	// First tab drops: still online.
	f.hub.Disconnect(c1)
	if len(c1.broadcasts) != 1 {
		t.Fatal("offline must not fire while another connection lives")
	}

	// Last tab drops: offline.
	f.hub.Disconnect(c2)
	if len(c2.broadcasts) != 1 || c2.broadcasts[0].event != "user_went_offline" {
		t.Fatalf("expected user_went_offline, got %+v", c2.broadcasts)
	}

	asker.direct = nil
	f.hub.Status(asker, map[string]any{"receiverId": "7"})
	if len(asker.direct) != 1 || asker.direct[0].event != "offline" {
		t.Fatalf("expected offline answer, got %+v", asker.direct)
	}

	// Unknown connection disconnect is a no-op.
	f.hub.Disconnect(&fakeConn{id: "ghost"})
}

func TestJoinRoomIdentitySwitchFiresOffline(t *testing.T) {
	f := newFixture(t, nil, 0)

	c := &fakeConn{id: "c1"}
	f.hub.JoinRoom(c, "7")
	c.broadcasts = nil

	// Same connection re-registers as another user; it was user 7's only
	// connection, so 7 goes offline and 8 comes online.
	f.hub.JoinRoom(c, "8")
	if len(c.broadcasts) != 2 ||
		c.broadcasts[0].event != "user_went_offline" ||
		c.broadcasts[1].event != "user_came_online" {
		t.Fatalf("identity switch transitions wrong: %+v", c.broadcasts)
	}
	if p := payloadOf(c.broadcasts[0]); p["userId"] != "7" {
		t.Fatalf("offline transition should name the old identity: %+v", p)
	}

	// With a second tab still live, switching one connection must not
	// take the old identity offline.
	f.hub.JoinRoom(&fakeConn{id: "c2"}, "9")
	f.hub.JoinRoom(&fakeConn{id: "c3"}, "9")
	c3 := &fakeConn{id: "c3"}
	f.hub.JoinRoom(c3, "10")
	for _, b := range c3.broadcasts {
		if b.event == "user_went_offline" {
			t.Fatalf("user 9 still has a live connection, offline must not fire: %+v", c3.broadcasts)
		}
	}
	if !f.hub.registry.IsOnline("9") {
		t.Fatal("user 9 should still be online")
	}
}

func TestAssistantAlwaysOnline(t *testing.T) {
	f := newFixture(t, nil, 42)

	asker := &fakeConn{id: "c1"}
	f.hub.Status(asker, map[string]any{"receiverId": "42"})
	if len(asker.direct) != 1 || asker.direct[0].event != "online" {
		t.Fatalf("assistant must always report online, got %+v", asker.direct)
	}
}

func TestTypingTargetedToReceiverOnly(t *testing.T) {
	f := newFixture(t, nil, 0)

	f.hub.Typing(map[string]any{"receiverId": "5"})
	f.hub.StopTyping(map[string]any{"receiverId": "5"})

	if got := f.emitter.toRoom("5"); len(got) != 2 ||
		got[0].event != "is_typing" || got[1].event != "not_typing" {
		t.Fatalf("typing relay wrong: %+v", got)
	}
	if got := f.emitter.toRoom("*"); len(got) != 0 {
		t.Fatal("typing must never broadcast")
	}
}

func TestCallLifecycleRouting(t *testing.T) {
	f := newFixture(t, nil, 0)
	x := f.user(t, "caller")
	y := f.user(t, "receiver")
	f.user(t, "bystander")

	// Initiate: receiver's room is rung with the caller snapshot.
	f.hub.UserCall(map[string]any{
		"senderId":   float64(x.ID),
		"receiverId": float64(y.ID),
		"type":       "video",
	})

	ringing := f.emitter.toRoom(room(y.ID))
	if len(ringing) != 2 || ringing[0].event != "incoming_call" || ringing[1].event != "sender_data" {
		t.Fatalf("ring sequence wrong: %+v", ringing)
	}
	snapshot, ok := ringing[1].payload[0].(CallAttempt)
	if !ok || snapshot.CallerID != x.ID || snapshot.Type != "video" {
		t.Fatalf("caller snapshot wrong: %+v", ringing[1].payload[0])
	}

	// Reconnect mid-ring: same snapshot re-served, no fresh lookup.
	reconnected := &fakeConn{id: "r2"}
	f.hub.RequestSenderData(reconnected, room(y.ID))
	if len(reconnected.direct) != 1 || reconnected.direct[0].event != "sender_data" {
		t.Fatalf("resume should re-serve sender_data, got %+v", reconnected.direct)
	}

	// Accept: only the caller's room hears it.
	f.hub.CallAccepted(room(y.ID))
	accepted := f.emitter.named("accepted")
	if len(accepted) != 1 || accepted[0].room != room(x.ID) {
		t.Fatalf("accept routing wrong: %+v", accepted)
	}

	// End by receiver: caller (and only the caller) hears
	// call_ended_by_receiver.
	f.hub.CallEnded(map[string]any{
		"receiverId": room(y.ID),
		"endedBy":    room(y.ID),
		"direction":  "receiver",
	})
	ended := f.emitter.named("call_ended_by_receiver")
	if len(ended) != 1 || ended[0].room != room(x.ID) {
		t.Fatalf("end routing wrong: %+v", ended)
	}
	for _, e := range f.emitter.events {
		if e.room == "*" {
			t.Fatalf("call events must never broadcast: %+v", e)
		}
	}

	// Cache dropped after the end.
	if _, ok, _ := f.calls.Get(nil, room(y.ID)); ok {
		t.Fatal("call attempt should be evicted after end")
	}
}

func TestCallEndedBySenderTargetsReceiver(t *testing.T) {
	f := newFixture(t, nil, 0)
	x := f.user(t, "caller")
	y := f.user(t, "receiver")

	f.hub.UserCall(map[string]any{
		"senderId":   float64(x.ID),
		"receiverId": float64(y.ID),
		"type":       "voice",
	})
	f.emitter.events = nil

	f.hub.CallEnded(map[string]any{
		"receiverId": room(y.ID),
		"endedBy":    room(x.ID),
		"direction":  "sender",
	})

	ended := f.emitter.named("call_ended_by_sender")
	if len(ended) != 1 || ended[0].room != room(y.ID) {
		t.Fatalf("sender-end routing wrong: %+v", ended)
	}
}

func TestCallDeclinedForwardedToCaller(t *testing.T) {
	f := newFixture(t, nil, 0)
	x := f.user(t, "caller")
	y := f.user(t, "receiver")

	f.hub.UserCall(map[string]any{
		"senderId":   float64(x.ID),
		"receiverId": float64(y.ID),
		"type":       "voice",
	})

	f.hub.CallDeclined(&fakeConn{id: "cy"}, map[string]any{
		"callerId":   room(x.ID),
		"receiverId": room(y.ID),
	})

	declined := f.emitter.named("call_declined")
	if len(declined) != 1 || declined[0].room != room(x.ID) {
		t.Fatalf("decline routing wrong: %+v", declined)
	}
	if _, ok, _ := f.calls.Get(nil, room(y.ID)); ok {
		t.Fatal("call attempt should be evicted after decline")
	}
}

func TestCallDeclinedEvictsWithCallerOnlyPayload(t *testing.T) {
	f := newFixture(t, nil, 0)
	x := f.user(t, "caller")
	y := f.user(t, "receiver")

	// The receiver declines from a registered connection; the payload
	// names only the caller.
	yConn := &fakeConn{id: "cy"}
	f.hub.JoinRoom(yConn, room(y.ID))

	f.hub.UserCall(map[string]any{
		"senderId":   float64(x.ID),
		"receiverId": float64(y.ID),
		"type":       "voice",
	})

	f.hub.CallDeclined(yConn, map[string]any{
		"callerId": room(x.ID),
	})

	declined := f.emitter.named("call_declined")
	if len(declined) != 1 || declined[0].room != room(x.ID) {
		t.Fatalf("decline routing wrong: %+v", declined)
	}
	if _, ok, _ := f.calls.Get(nil, room(y.ID)); ok {
		t.Fatal("declined attempt must be evicted, not linger until its TTL")
	}

	// A declined call's snapshot must not be re-servable.
	resumed := &fakeConn{id: "r2"}
	f.hub.RequestSenderData(resumed, room(y.ID))
	if len(resumed.direct) != 0 {
		t.Fatalf("sender_data re-served after decline: %+v", resumed.direct)
	}
}

func TestCallEndRoutingOutlivesRingWindow(t *testing.T) {
	f := newFixture(t, nil, 0)
	x := f.user(t, "caller")
	y := f.user(t, "receiver")

	// Ringing entries expire fast; acceptance must extend the entry so a
	// long call can still resolve its counterpart at hang-up.
	f.calls = NewMemoryCallCache(50*time.Millisecond, time.Minute)
	f.hub.calls = f.calls

	f.hub.UserCall(map[string]any{
		"senderId":   float64(x.ID),
		"receiverId": float64(y.ID),
		"type":       "video",
	})
	f.hub.CallAccepted(room(y.ID))

	time.Sleep(80 * time.Millisecond)

	f.hub.CallEnded(map[string]any{
		"receiverId": room(y.ID),
		"endedBy":    room(y.ID),
		"direction":  "receiver",
	})

	ended := f.emitter.named("call_ended_by_receiver")
	if len(ended) != 1 || ended[0].room != room(x.ID) {
		t.Fatalf("caller never notified of receiver hang-up: %+v", ended)
	}
	if _, ok, _ := f.calls.Get(nil, room(y.ID)); ok {
		t.Fatal("call attempt should be evicted after end")
	}
}

func TestUnacceptedRingStillExpires(t *testing.T) {
	f := newFixture(t, nil, 0)
	x := f.user(t, "caller")
	y := f.user(t, "receiver")

	f.calls = NewMemoryCallCache(50*time.Millisecond, time.Minute)
	f.hub.calls = f.calls

	f.hub.UserCall(map[string]any{
		"senderId":   float64(x.ID),
		"receiverId": float64(y.ID),
		"type":       "voice",
	})

	time.Sleep(80 * time.Millisecond)

	if _, ok, _ := f.calls.Get(nil, room(y.ID)); ok {
		t.Fatal("an abandoned ring must expire on the ring TTL")
	}
}

func TestFriendEventsGoThroughNotifier(t *testing.T) {
	f := newFixture(t, nil, 0)

	f.hub.FriendRequestSent(map[string]any{
		"receiverId":     "8",
		"senderUsername": "alice",
	})
	got := f.emitter.toRoom("8")
	if len(got) != 1 || got[0].event != "friend_request_received" {
		t.Fatalf("friend request push wrong: %+v", got)
	}

	f.hub.FriendRequestResponded(map[string]any{
		"senderId":         "4",
		"status":           "accepted",
		"receiverUsername": "bob",
		"receiverId":       "8",
	})
	got = f.emitter.toRoom("4")
	if len(got) != 1 || got[0].event != "friend_request_responded" {
		t.Fatalf("friend response push wrong: %+v", got)
	}
}

func TestGetFriends(t *testing.T) {
	f := newFixture(t, nil, 0)
	a := f.user(t, "alice")
	b := f.user(t, "bob")

	req, _ := f.store.CreateFriendRequest(a.ID, b.ID)
	f.store.RespondFriendRequest(req.ID, model.RequestAccepted)

	c := &fakeConn{id: "c1"}
	f.hub.GetFriends(c, room(a.ID))

	if len(c.direct) != 1 || c.direct[0].event != "friend_list" {
		t.Fatalf("expected friend_list answer, got %+v", c.direct)
	}
	friends, ok := c.direct[0].payload[0].([]model.Friend)
	if !ok || len(friends) != 1 || friends[0].FriendUsername != "bob" {
		t.Fatalf("friend list wrong: %+v", c.direct[0].payload[0])
	}
}

func TestNewMessageBadge(t *testing.T) {
	f := newFixture(t, nil, 0)

	f.hub.NewMessageBadge(map[string]any{
		"receiverId": "2",
		"content":    "hi",
		"senderId":   "1",
	})

	got := f.emitter.toRoom("2")
	if len(got) != 1 || got[0].event != "new_message" {
		t.Fatalf("badge relay wrong: %+v", got)
	}
	if p := payloadOf(got[0]); p["content"] != "hi" {
		t.Fatalf("badge payload wrong: %+v", p)
	}
}

var errContrived = errGen("contrived generator failure")

type errGen string

func (e errGen) Error() string { return string(e) }
