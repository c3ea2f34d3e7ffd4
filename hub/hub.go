// Package hub is the event core of the chat service: it turns client
// intents arriving over the socket transport into persisted state and
// room-addressed deliveries. The socket router owns the wire; the hub owns
// the semantics.
package hub

import (
	"strconv"

	"chat-service/notify"
	"chat-service/registry"
	"chat-service/store"
)

// Emitter is room-addressed delivery, satisfied by socketio.Transport.
type Emitter interface {
	Emit(room string, event string, payload ...any)
	Broadcast(event string, payload ...any)
}

// Conn is the slice of a live socket the hub needs: identity, room
// membership, direct replies and everyone-but-me broadcast.
type Conn interface {
	ID() string
	Join(room string)
	Emit(event string, payload ...any)
	BroadcastOthers(event string, payload ...any)
}

// Generator produces the assistant's reply text.
type Generator interface {
	Reply(prompt string) (string, error)
}

type Hub struct {
	registry  *registry.Registry
	store     *store.Store
	emitter   Emitter
	notifier  *notify.Notifier
	calls     CallCache
	generator Generator

	assistantID   uint
	assistantRoom string
}

type Config struct {
	Registry *registry.Registry
	Store    *store.Store
	Emitter  Emitter
	Notifier *notify.Notifier
	Calls    CallCache
	// Generator may be nil; the assistant branch is then skipped.
	Generator Generator
	// AssistantID is the designated AI identity, 0 when none is provisioned.
	AssistantID uint
}

func New(cfg Config) *Hub {
	h := &Hub{
		registry:    cfg.Registry,
		store:       cfg.Store,
		emitter:     cfg.Emitter,
		notifier:    cfg.Notifier,
		calls:       cfg.Calls,
		generator:   cfg.Generator,
		assistantID: cfg.AssistantID,
	}
	if cfg.AssistantID != 0 {
		h.assistantRoom = room(cfg.AssistantID)
	}
	return h
}

func room(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// payloadMap extracts the object payload from socket event args.
func payloadMap(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	m, _ := args[0].(map[string]any)
	return m
}

// asString renders a payload value that may arrive as a string or a JSON
// number.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	default:
		return ""
	}
}

// stringField returns the first present key rendered as a string.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// asUint parses a payload value as an id, 0 when absent or malformed.
func asUint(v any) uint {
	s := asString(v)
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// uintField parses the first present key as an id.
func uintField(m map[string]any, keys ...string) uint {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if id := asUint(v); id != 0 {
				return id
			}
		}
	}
	return 0
}
