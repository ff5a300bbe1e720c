// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/familyhub/internal/app/store/audit"
	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls sign-in and sign-out events.
	Auth string
	// Sharing controls workspace sharing events taken from the change feed.
	Sharing string
}

// Recorder persists audit events. *audit.Store satisfies it.
type Recorder interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to MongoDB and to structured logs.
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.WorkspaceID != nil {
		fields = append(fields, zap.String("workspace_id", event.WorkspaceID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records an audit event according to the category's setting.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategorySharing:
		setting = l.config.Sharing
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// SignIn logs a successful sign-in.
func (l *Logger) SignIn(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignIn,
		UserID:    &userID,
		ActorID:   &userID,
		IP:        getClientIP(r),
		Details:   map[string]string{"method": method},
	})
}

// SignOut logs a sign-out. An unparsable user id is recorded without a user.
func (l *Logger) SignOut(ctx context.Context, r *http.Request, userIDStr string) {
	ev := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignOut,
		IP:        getClientIP(r),
	}
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		ev.UserID = &oid
		ev.ActorID = &oid
	}
	l.Log(ctx, ev)
}

// FromChange converts a change feed event into a sharing audit event.
func FromChange(ev notify.Event) audit.Event {
	out := audit.Event{
		Timestamp: ev.At,
		Category:  audit.CategorySharing,
		EventType: string(ev.Type),
		Details:   ev.Details,
	}
	if !ev.WorkspaceID.IsZero() {
		id := ev.WorkspaceID
		out.WorkspaceID = &id
	}
	if !ev.UserID.IsZero() {
		id := ev.UserID
		out.UserID = &id
	}
	if !ev.ActorID.IsZero() {
		id := ev.ActorID
		out.ActorID = &id
	}
	return out
}

// Attach subscribes the logger to hub so every sharing change is audited.
// Listeners have no request context, so each write gets its own short
// deadline.
func (l *Logger) Attach(hub *notify.Hub) notify.Token {
	return hub.Subscribe(func(ev notify.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		l.Log(ctx, FromChange(ev))
	})
}
