// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/familyhub/internal/app/features/auditlog"
	healthfeature "github.com/dalemusser/familyhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/familyhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/familyhub/internal/app/features/logout"
	sharingfeature "github.com/dalemusser/familyhub/internal/app/features/sharing"
	userinfofeature "github.com/dalemusser/familyhub/internal/app/features/userinfo"
	auditstore "github.com/dalemusser/familyhub/internal/app/store/audit"
	userstore "github.com/dalemusser/familyhub/internal/app/store/users"
	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	"github.com/dalemusser/familyhub/internal/app/system/auditlog"
	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/dalemusser/familyhub/internal/app/system/colors"
	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the stores and services once,
// subscribes the audit log to the change feed, and mounts:
//
//	/health       database ping
//	/api          sharing API, /api/me and /api/workspaces/{id}/activity
//	/auth/logout  end the session
//	/auth/dev-login (only with dev_login)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionKey := appCfg.SessionKey
	if sessionKey == "" {
		sessionKey = auth.EphemeralKey()
	}
	sessionMgr, err := auth.NewSessionManager(sessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.FamilyHubMongoDatabase

	// LoadSessionUser fetches fresh user data on each request so personal
	// color changes take effect immediately.
	sessionMgr.SetFetcher(userstore.NewFetcher(db))

	workspaces := workspacestore.New(db)
	users := userstore.New(db)

	feed := notify.NewHub(logger)
	events := auditstore.New(db)
	audit := auditlog.New(events, logger, appCfg.auditConfig())
	audit.Attach(feed)

	invites := invitelink.New(workspaces, feed, invitelink.Config{
		Scheme: appCfg.InviteScheme,
		TTL:    appCfg.InviteTTL,
	}, logger)
	svc := membership.New(workspaces, users, invites, feed, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.FamilyHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// JSON API
	api := chi.NewRouter()
	userinfoHandler := userinfofeature.NewHandler()
	api.Get("/me", userinfoHandler.ServeUserInfo)

	activityHandler := auditlogfeature.NewHandler(events, svc, users, logger)
	api.Mount("/workspaces/{id}/activity", auditlogfeature.Routes(activityHandler, sessionMgr))

	sharingHandler := sharingfeature.NewHandler(svc, colors.NewResolver(logger), workspaces, logger)
	sharingHandler.JoinLimiter = limiter(appCfg.JoinRateLimit)
	api.Mount("/", sharingfeature.Routes(sharingHandler, sessionMgr))
	r.Mount("/api", api)

	// Session endpoints
	logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
	r.Mount("/auth/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	if appCfg.DevLogin {
		loginHandler := loginfeature.NewHandler(users, sessionMgr, audit, logger)
		loginHandler.Limiter = limiter(appCfg.LoginRateLimit)
		r.Mount("/auth/dev-login", loginfeature.Routes(loginHandler))
	}

	return r, nil
}
