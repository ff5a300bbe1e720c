package cli

import (
	"context"
	"fmt"

	auditstore "github.com/dalemusser/familyhub/internal/app/store/audit"
	userstore "github.com/dalemusser/familyhub/internal/app/store/users"
	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	"github.com/dalemusser/familyhub/internal/app/system/auditlog"
	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// OpenMongo connects to MongoDB and wires the same services the server
// uses. Changes made through the CLI are audited like any other.
func OpenMongo(ctx context.Context, opts Options, logger *zap.Logger) (*Backend, error) {
	if err := wafflemongo.ValidateURI(opts.MongoURI); err != nil {
		return nil, fmt.Errorf("invalid --mongo-uri: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.MongoURI).SetAppName("familyhubctl"))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(opts.MongoDatabase)
	logger.Debug("connected", zap.String("database", opts.MongoDatabase))

	workspaces := workspacestore.New(db)
	users := userstore.New(db)

	feed := notify.NewHub(logger)
	auditlog.New(auditstore.New(db), logger, auditlog.Config{Auth: auditlog.Off, Sharing: auditlog.DB}).Attach(feed)

	invites := invitelink.New(workspaces, feed, invitelink.Config{Scheme: opts.InviteScheme}, logger)

	return &Backend{
		Members: membership.New(workspaces, users, invites, feed, logger),
		Users:   users,
		Close:   client.Disconnect,
	}, nil
}
