package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/familyhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
)

func TestStartup_NoRetention(t *testing.T) {
	cfg := validConfig()
	cfg.AuditRetention = 0
	if err := Startup(context.Background(), &config.CoreConfig{Env: "dev"}, cfg, DBDeps{}, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if retentionWorker != nil {
		t.Fatal("retention worker should not start when retention is 0")
	}
}

func TestStartupShutdown_RetentionWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validConfig()
	cfg.AuditRetention = 24 * time.Hour
	// No client: Shutdown must not disconnect the shared test client.
	deps := DBDeps{FamilyHubMongoDatabase: db}

	if err := Startup(context.Background(), &config.CoreConfig{Env: "dev"}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if retentionWorker == nil {
		t.Fatal("retention worker not started")
	}
	if err := Shutdown(context.Background(), &config.CoreConfig{Env: "dev"}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if retentionWorker != nil {
		t.Error("Shutdown should clear the retention worker")
	}
}
