package registry

import "testing"

func TestRegisterFirstConnection(t *testing.T) {
	r := New()

	if first, _ := r.Register("c1", "1"); !first {
		t.Fatal("first connection should report first=true")
	}
	if first, _ := r.Register("c2", "1"); first {
		t.Fatal("second connection for same user should report first=false")
	}
	if !r.IsOnline("1") {
		t.Fatal("user should be online")
	}
	if got := r.Connections("1"); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}
}

func TestUnregisterLastConnection(t *testing.T) {
	r := New()
	r.Register("c1", "1")
	r.Register("c2", "1")

	userID, last, ok := r.Unregister("c1")
	if !ok || userID != "1" {
		t.Fatalf("unexpected unregister result: %q %v", userID, ok)
	}
	if last {
		t.Fatal("user still has a live connection, last should be false")
	}
	if !r.IsOnline("1") {
		t.Fatal("user should still be online")
	}

	_, last, ok = r.Unregister("c2")
	if !ok || !last {
		t.Fatal("dropping the final connection should report last=true")
	}
	if r.IsOnline("1") {
		t.Fatal("user should be offline after last connection left")
	}
}

func TestUnregisterUnknownConnectionIsNoop(t *testing.T) {
	r := New()
	if _, _, ok := r.Unregister("ghost"); ok {
		t.Fatal("unknown connection must not resolve to a user")
	}
}

func TestReregisterMovesConnection(t *testing.T) {
	r := New()
	r.Register("c1", "1")

	first, wentOffline := r.Register("c1", "2")
	if !first {
		t.Fatal("new identity's first connection should report first=true")
	}
	if wentOffline != "1" {
		t.Fatalf("old identity's last-leave should surface, got %q", wentOffline)
	}

	if r.IsOnline("1") {
		t.Fatal("old identity should have gone offline")
	}
	if !r.IsOnline("2") {
		t.Fatal("new identity should be online")
	}
	if userID, _ := r.UserOf("c1"); userID != "2" {
		t.Fatalf("reverse lookup should follow the re-registration, got %q", userID)
	}
}

func TestReregisterKeepsOldUserOnlineWithOtherTabs(t *testing.T) {
	r := New()
	r.Register("c1", "1")
	r.Register("c2", "1")

	_, wentOffline := r.Register("c1", "2")
	if wentOffline != "" {
		t.Fatalf("old identity still has a live connection, got %q", wentOffline)
	}
	if !r.IsOnline("1") {
		t.Fatal("old identity should stay online through its other tab")
	}
}

func TestOnline(t *testing.T) {
	r := New()
	r.Register("c1", "1")
	r.Register("c2", "2")
	r.Register("c3", "2")

	online := r.Online()
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %d", len(online))
	}
}
