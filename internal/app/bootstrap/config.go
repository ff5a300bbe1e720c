// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/familyhub/internal/app/system/auditlog"
	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for FamilyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: FAMILYHUB_MONGO_URI, FAMILYHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "familyhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "", Desc: "Session signing key (blank generates an ephemeral key; set it in production)"},
	{Name: "session_name", Default: "familyhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h)"},

	// Invite links
	{Name: "invite_scheme", Default: invitelink.DefaultScheme, Desc: "Deep-link scheme for invite links"},
	{Name: "invite_ttl", Default: "24h", Desc: "Invite link lifetime (e.g., 24h, 168h)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: auditlog.All, Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_sharing", Default: auditlog.All, Desc: "Sharing event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept (0 keeps them forever)"},

	// Rate limits (attempts per minute, 0 disables)
	{Name: "join_rate_limit", Default: 20, Desc: "Invite redemptions per user per minute (0 disables)"},
	{Name: "login_rate_limit", Default: 10, Desc: "Dev sign-ins per client IP per minute (0 disables)"},

	{Name: "dev_login", Default: false, Desc: "Mount POST /auth/dev-login (development only)"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Health check timeout"},
	{Name: "timeout_short", Default: "5s", Desc: "Single-document operation timeout"},
	{Name: "timeout_medium", Default: "10s", Desc: "List and fan-out operation timeout"},
	{Name: "timeout_long", Default: "30s", Desc: "Startup and maintenance timeout"},
}

// schemePattern follows RFC 3986: a letter, then letters, digits, '+', '-', '.'.
var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*$`)

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env and config files,
// environment variables (WAFFLE_* for core, FAMILYHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FAMILYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		InviteScheme: appValues.String("invite_scheme"),
		InviteTTL:    appValues.Duration("invite_ttl", invitelink.DefaultTTL),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogSharing: appValues.String("audit_log_sharing"),
		AuditRetention:  appValues.Duration("audit_retention", 90*24*time.Hour),

		JoinRateLimit:  appValues.Int("join_rate_limit"),
		LoginRateLimit: appValues.Int("login_rate_limit"),

		DevLogin: appValues.Bool("dev_login"),

		TimeoutPing:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if !schemePattern.MatchString(appCfg.InviteScheme) {
		return fmt.Errorf("invite_scheme %q is not a valid URL scheme", appCfg.InviteScheme)
	}
	if appCfg.InviteTTL <= 0 {
		return fmt.Errorf("invite_ttl must be positive, got %s", appCfg.InviteTTL)
	}
	for key, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_sharing": appCfg.AuditLogSharing,
	} {
		switch v {
		case "", auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}

	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention cannot be negative")
	}
	if appCfg.JoinRateLimit < 0 || appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}

	prod := coreCfg != nil && coreCfg.Env == "prod"
	if prod && appCfg.SessionKey == "" {
		return fmt.Errorf("session_key must be set in production")
	}
	if prod && appCfg.DevLogin {
		return fmt.Errorf("dev_login cannot be enabled in production")
	}
	return nil
}

// timeoutConfig maps app config onto the timeouts package.
func (c AppConfig) timeoutConfig() timeouts.Config {
	return timeouts.Config{
		Ping:   c.TimeoutPing,
		Short:  c.TimeoutShort,
		Medium: c.TimeoutMedium,
		Long:   c.TimeoutLong,
	}
}

// limiters holds every limiter built by limiter; Shutdown closes them.
var limiters []*ratelimit.Limiter

// limiter builds a per-minute limiter, or nil when perMinute is 0.
func limiter(perMinute int) *ratelimit.Limiter {
	if perMinute <= 0 {
		return nil
	}
	l := ratelimit.New(perMinute, time.Minute)
	limiters = append(limiters, l)
	return l
}

// closeLimiters stops the sweep goroutine of every limiter built so far.
func closeLimiters() {
	for _, l := range limiters {
		l.Close()
	}
	limiters = nil
}

// auditConfig maps app config onto the audit logger's categories.
func (c AppConfig) auditConfig() auditlog.Config {
	return auditlog.Config{
		Auth:    c.AuditLogAuth,
		Sharing: c.AuditLogSharing,
	}
}
