package notify_test

import (
	"testing"

	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestHub_PublishInSubscriptionOrder(t *testing.T) {
	h := notify.NewHub(zap.NewNop())
	var got []string
	h.Subscribe(func(notify.Event) { got = append(got, "a") })
	h.Subscribe(func(notify.Event) { got = append(got, "b") })

	h.Publish(notify.Event{Type: notify.MemberJoined, WorkspaceID: primitive.NewObjectID()})

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("delivery order: got %v, want [a b]", got)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := notify.NewHub(zap.NewNop())
	calls := 0
	tok := h.Subscribe(func(notify.Event) { calls++ })

	h.Publish(notify.Event{Type: notify.MemberJoined})
	h.Unsubscribe(tok)
	h.Publish(notify.Event{Type: notify.MemberJoined})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if h.Len() != 0 {
		t.Errorf("expected no subscribers, got %d", h.Len())
	}

	// Unknown and repeated tokens are ignored.
	h.Unsubscribe(tok)
	h.Unsubscribe(notify.Token(999))
}

func TestHub_PanickingListenerIsIsolated(t *testing.T) {
	h := notify.NewHub(zap.NewNop())
	delivered := false
	h.Subscribe(func(notify.Event) { panic("boom") })
	h.Subscribe(func(notify.Event) { delivered = true })

	h.Publish(notify.Event{Type: notify.MemberRemoved})

	if !delivered {
		t.Error("expected second listener to receive event")
	}
}

func TestHub_StampsTime(t *testing.T) {
	h := notify.NewHub(nil)
	var ev notify.Event
	h.Subscribe(func(e notify.Event) { ev = e })
	h.Publish(notify.Event{Type: notify.WorkspaceCreated})
	if ev.At.IsZero() {
		t.Error("expected At to be set")
	}
}

func TestHub_NilIsNoop(t *testing.T) {
	var h *notify.Hub
	h.Publish(notify.Event{Type: notify.WorkspaceCreated})
}
