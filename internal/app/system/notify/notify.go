// Package notify is an in-process change feed for workspace sharing events.
//
// Services publish an Event after each successful write; interested parties
// (the audit recorder, tests, future push fan-out) subscribe with a listener
// and receive events synchronously in subscription order.
package notify

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventType names a workspace change.
type EventType string

const (
	InviteLinkGenerated EventType = "invite_link_generated"
	MemberJoined        EventType = "member_joined"
	MemberRemoved       EventType = "member_removed"
	MemberRoleChanged   EventType = "member_role_changed"
	MemberColorChanged  EventType = "member_color_changed"
	WorkspaceCreated    EventType = "workspace_created"
	WorkspaceArchived   EventType = "workspace_archived"
	WorkspaceUnarchived EventType = "workspace_unarchived"
)

// Event describes one change to a workspace.
type Event struct {
	Type        EventType
	WorkspaceID primitive.ObjectID
	ActorID     primitive.ObjectID // who performed the change
	UserID      primitive.ObjectID // affected user, if any
	Details     map[string]string
	At          time.Time
}

// Listener receives published events.
type Listener func(Event)

// Token identifies a subscription.
type Token uint64

// Publisher is what services depend on.
type Publisher interface {
	Publish(Event)
}

// Hub fans events out to subscribers.
type Hub struct {
	mu        sync.RWMutex
	next      Token
	order     []Token
	listeners map[Token]Listener
	log       *zap.Logger
}

// NewHub constructs an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		listeners: make(map[Token]Listener),
		log:       logger,
	}
}

// Subscribe registers l and returns the token to unsubscribe with.
func (h *Hub) Subscribe(l Listener) Token {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	tok := h.next
	h.listeners[tok] = l
	h.order = append(h.order, tok)
	return tok
}

// Unsubscribe removes a subscription. Unknown tokens are ignored.
func (h *Hub) Unsubscribe(tok Token) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[tok]; !ok {
		return
	}
	delete(h.listeners, tok)
	for i, t := range h.order {
		if t == tok {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Publish delivers ev to every subscriber. A panicking listener is logged
// and does not prevent delivery to the others.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	ls := make([]Listener, 0, len(h.order))
	for _, tok := range h.order {
		ls = append(ls, h.listeners[tok])
	}
	h.mu.RUnlock()

	for _, l := range ls {
		h.deliver(l, ev)
	}
}

func (h *Hub) deliver(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("change feed listener panicked",
				zap.String("event_type", string(ev.Type)),
				zap.Any("panic", r))
		}
	}()
	l(ev)
}
