// Package colors resolves the display color of workspace items.
//
// Resolution order (first match wins):
//  1. the item's own color override (events only, when it is a valid hex color)
//  2. personal workspace: the viewer's personal color
//  3. shared workspace: the viewing member's custom color
//  4. the workspace's default color
//  5. a fixed fallback per item kind
package colors

import (
	"regexp"
	"strings"

	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Fallback colors per item kind.
const (
	FallbackEvent = "#4CAF50"
	FallbackTodo  = "#EF5350"
	FallbackNote  = "#FFA726"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidHex reports whether s is a #RGB or #RRGGBB color.
func ValidHex(s string) bool {
	return hexColor.MatchString(s)
}

// Normalize trims s and upper-cases the hex digits. It does not validate.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Fallback returns the fixed color for an item kind.
func Fallback(kind models.ItemKind) string {
	switch kind {
	case models.ItemTodo:
		return FallbackTodo
	case models.ItemNote:
		return FallbackNote
	default:
		return FallbackEvent
	}
}

// Viewer identifies who is looking at an item.
type Viewer struct {
	UserID        primitive.ObjectID
	PersonalColor string
}

// Resolver resolves item colors. The logger receives data-integrity
// warnings when an item's workspace cannot be found.
type Resolver struct {
	Log *zap.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Log: logger}
}

// Resolve returns the display color for item. ws is the item's owning
// workspace, or nil if it could not be resolved.
func (r *Resolver) Resolve(item models.Item, ws *models.Workspace, viewer Viewer) string {
	// A malformed override falls through to the workspace chain.
	if item.Kind == models.ItemEvent && ValidHex(item.Color) {
		return item.Color
	}

	if ws == nil {
		fields := []zap.Field{zap.String("kind", string(item.Kind))}
		if item.WorkspaceID != nil {
			fields = append(fields, zap.String("workspace_id", item.WorkspaceID.Hex()))
		}
		r.Log.Warn("item references unresolvable workspace; using fallback color", fields...)
		return Fallback(item.Kind)
	}

	switch ws.Kind {
	case models.KindPersonal:
		if viewer.PersonalColor != "" {
			return viewer.PersonalColor
		}
	case models.KindShared:
		if m, ok := ws.Member(viewer.UserID); ok && m.CustomColor != "" {
			return m.CustomColor
		}
	}

	if ws.Color != "" {
		return ws.Color
	}
	// Workspace exists but has no color: not an integrity problem.
	return Fallback(item.Kind)
}
