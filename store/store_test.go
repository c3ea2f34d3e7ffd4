package store

import (
	"testing"
	"time"

	"chat-service/database"
	"chat-service/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	database.Migrate(db)
	return New(db)
}

func seedUser(t *testing.T, s *Store, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", Password: "x", Role: model.RoleUser}
	if err := s.db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func TestConversationPairIsCommutative(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	first, err := s.FindOrCreateConversation(a.ID, b.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	second, err := s.FindOrCreateConversation(b.ID, a.ID)
	if err != nil {
		t.Fatalf("find conversation reversed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("pair order produced two conversations: %d vs %d", first.ID, second.ID)
	}
	if !second.Participants(a.ID, b.ID) {
		t.Fatal("participant set mismatch")
	}

	var count int64
	s.db.Model(&model.Conversation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one conversation, got %d", count)
	}
}

func TestTwoMessagesOneConversation(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	m1, err := s.CreateMessage(a.ID, b.ID, "hi", "")
	if err != nil {
		t.Fatalf("first message: %v", err)
	}
	m2, err := s.CreateMessage(b.ID, a.ID, "hello", "")
	if err != nil {
		t.Fatalf("second message: %v", err)
	}
	if m1.ConversationID != m2.ConversationID {
		t.Fatal("messages landed in different conversations")
	}

	conv := new(model.Conversation)
	if err := s.db.First(conv, m1.ConversationID).Error; err != nil {
		t.Fatalf("load conversation: %v", err)
	}
	if conv.LastMessageID == nil || *conv.LastMessageID != m2.ID {
		t.Fatal("last-message pointer not updated")
	}
}

func TestMessagesBetweenAppliesClearedWatermark(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	s.CreateMessage(a.ID, b.ID, "one", "")
	s.CreateMessage(b.ID, a.ID, "two", "")

	time.Sleep(5 * time.Millisecond)
	if err := s.ClearConversation(a.ID, b.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	s.CreateMessage(a.ID, b.ID, "three", "")

	mine, err := s.MessagesBetween(a.ID, b.ID)
	if err != nil {
		t.Fatalf("messages for clearer: %v", err)
	}
	if len(mine) != 1 || mine[0].Content != "three" {
		t.Fatalf("clearer should only see post-clear messages, got %d", len(mine))
	}

	theirs, err := s.MessagesBetween(b.ID, a.ID)
	if err != nil {
		t.Fatalf("messages for peer: %v", err)
	}
	if len(theirs) != 3 {
		t.Fatalf("peer's view must be untouched, got %d messages", len(theirs))
	}
	for i := 1; i < len(theirs); i++ {
		if theirs[i].CreatedAt.Before(theirs[i-1].CreatedAt) {
			t.Fatal("messages not ordered ascending by creation")
		}
	}
}

func TestMessagesBetweenNoConversation(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	messages, err := s.MessagesBetween(a.ID, b.ID)
	if err != nil {
		t.Fatalf("expected empty result, got error: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}
}

func TestCallHistoryUpsertMergesBothLegs(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	first, err := s.UpsertCallHistory(a.ID, b.ID, "room-1", model.CallTypeVideo, model.CallStatusEnded, "sender", 42)
	if err != nil {
		t.Fatalf("first leg: %v", err)
	}
	second, err := s.UpsertCallHistory(b.ID, a.ID, "room-1", model.CallTypeVideo, model.CallStatusEnded, "receiver", 40)
	if err != nil {
		t.Fatalf("second leg: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("second leg created a duplicate history row")
	}
	if second.CallDuration != 42 {
		t.Fatalf("merge must keep max duration, got %d", second.CallDuration)
	}

	var count int64
	s.db.Model(&model.Message{}).Where("message_type = ?", model.MessageTypeCall).Count(&count)
	if count != 1 {
		t.Fatalf("expected one call row, got %d", count)
	}
}

func TestCallHistoryZeroDurationIsNeverEnded(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	missed, err := s.UpsertCallHistory(a.ID, b.ID, "room-2", model.CallTypeVoice, model.CallStatusEnded, "sender", 0)
	if err != nil {
		t.Fatalf("missed call: %v", err)
	}
	if missed.CallStatus != model.CallStatusMissed {
		t.Fatalf("zero-duration call must not be ended, got %q", missed.CallStatus)
	}

	declined, err := s.UpsertCallHistory(a.ID, b.ID, "room-3", model.CallTypeVoice, model.CallStatusDeclined, "receiver", 0)
	if err != nil {
		t.Fatalf("declined call: %v", err)
	}
	if declined.CallStatus != model.CallStatusDeclined {
		t.Fatalf("declined call should stay declined, got %q", declined.CallStatus)
	}
}

func TestFriendRequestAcceptCreatesBothEdges(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	req, err := s.CreateFriendRequest(a.ID, b.ID)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	if _, err := s.CreateFriendRequest(b.ID, a.ID); err != ErrRequestExists {
		t.Fatalf("reverse pending request should be rejected, got %v", err)
	}

	accepted, err := s.RespondFriendRequest(req.ID, model.RequestAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != model.RequestAccepted {
		t.Fatalf("status not accepted: %q", accepted.Status)
	}

	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		friends, err := s.AreFriends(pair[0], pair[1])
		if err != nil || !friends {
			t.Fatalf("edge %d -> %d missing after acceptance", pair[0], pair[1])
		}
	}

	var count int64
	s.db.Model(&model.FriendRequest{}).Where("status = ?", model.RequestAccepted).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one accepted request, got %d", count)
	}

	if _, err := s.RespondFriendRequest(req.ID, model.RequestDeclined); err != ErrNotPending {
		t.Fatalf("request must transition exactly once, got %v", err)
	}
}

func TestBlockAndUnblock(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")

	req, _ := s.CreateFriendRequest(a.ID, b.ID)
	s.RespondFriendRequest(req.ID, model.RequestAccepted)

	if err := s.BlockFriend(a.ID, b.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	blocked, err := s.IsBlockedBetween(b.ID, a.ID)
	if err != nil || !blocked {
		t.Fatal("pair should be blocked in both directions")
	}

	// The blocked side cannot lift the block.
	if err := s.UnblockFriend(b.ID, a.ID); err != ErrNotBlocker {
		t.Fatalf("expected ErrNotBlocker, got %v", err)
	}

	if err := s.UnblockFriend(a.ID, b.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	blocked, _ = s.IsBlockedBetween(a.ID, b.ID)
	if blocked {
		t.Fatal("pair should be unblocked")
	}

	// Edges survive the block/unblock cycle.
	friends, _ := s.AreFriends(a.ID, b.ID)
	if !friends {
		t.Fatal("friend edge must not be hard-deleted by blocking")
	}
}

func TestNotifications(t *testing.T) {
	s := testStore(t)
	a := seedUser(t, s, "alice")

	n, err := s.CreateNotification(a.ID, "friend_request_received", `{"senderUsername":"bob"}`)
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	list, err := s.NotificationsFor(a.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one notification, got %d (%v)", len(list), err)
	}

	if err := s.MarkNotificationRead(n.ID, a.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := s.MarkNotificationRead(n.ID, a.ID+1); err != ErrNotFound {
		t.Fatalf("foreign notification must not be markable, got %v", err)
	}
}
