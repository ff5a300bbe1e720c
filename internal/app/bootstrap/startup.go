// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	auditstore "github.com/dalemusser/familyhub/internal/app/store/audit"
	"github.com/dalemusser/familyhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// retentionInterval is how often the audit retention worker runs.
const retentionInterval = time.Hour

// retentionWorker is started in Startup and stopped in Shutdown.
var retentionWorker *workers.AuditRetention

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("familyhub starting",
		zap.String("env", coreCfg.Env),
		zap.String("invite_scheme", appCfg.InviteScheme),
		zap.Duration("invite_ttl", appCfg.InviteTTL),
		zap.String("audit_log_auth", appCfg.AuditLogAuth),
		zap.String("audit_log_sharing", appCfg.AuditLogSharing),
		zap.Duration("audit_retention", appCfg.AuditRetention))

	if appCfg.SessionKey == "" {
		logger.Warn("session_key not set; using an ephemeral key, sessions will not survive a restart")
	}
	if appCfg.DevLogin {
		logger.Warn("dev_login is enabled; anyone can sign in as any email")
	}

	if appCfg.AuditRetention > 0 && deps.FamilyHubMongoDatabase != nil {
		retentionWorker = workers.NewAuditRetention(
			auditstore.New(deps.FamilyHubMongoDatabase), logger, retentionInterval, appCfg.AuditRetention)
		retentionWorker.Start()
	}
	return nil
}
