// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration, which handles ports, TLS,
// logging level and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (blank = ephemeral dev key)
	SessionName   string        // Cookie name for sessions (default: familyhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Invite links
	InviteScheme string        // Deep-link scheme, e.g. "familyhub" → familyhub://join/<code>
	InviteTTL    time.Duration // How long a generated link stays redeemable

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth    string
	AuditLogSharing string
	AuditRetention  time.Duration // events older than this are pruned; 0 keeps everything

	// Attempts per minute; 0 disables the limit.
	JoinRateLimit  int // per signed-in user, on POST /api/join
	LoginRateLimit int // per client IP, on POST /auth/dev-login

	// DevLogin mounts POST /auth/dev-login. Never enable in production.
	DevLogin bool

	// Handler timeouts
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
