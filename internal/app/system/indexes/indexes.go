// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/familyhub/internal/app/store/audit"
	userstore "github.com/dalemusser/familyhub/internal/app/store/users"
	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ensurer is implemented by every store that owns a collection.
type ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	sets := []struct {
		collection string
		store      ensurer
	}{
		{"workspaces", workspacestore.New(db)},
		{"users", userstore.New(db)},
		{"audit_events", audit.New(db)},
	}

	var problems []string
	for _, s := range sets {
		start := time.Now()
		if err := s.store.EnsureIndexes(ctx); err != nil {
			logger.Warn("index ensure failed",
				zap.String("collection", s.collection),
				zap.Error(err))
			problems = append(problems, s.collection+": "+err.Error())
			continue
		}
		logger.Info("indexes ensured",
			zap.String("collection", s.collection),
			zap.String("took", time.Since(start).String()))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
