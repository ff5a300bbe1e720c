// Package cli implements familyhubctl, the operator command line for
// inspecting and repairing workspace sharing state directly in MongoDB.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// UserLookup resolves the --as flag to a user.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// Backend is what commands operate on.
type Backend struct {
	Members *membership.Service
	Users   UserLookup
	Close   func(ctx context.Context) error
}

// Options are the persistent flags shared by every command.
type Options struct {
	MongoURI      string
	MongoDatabase string
	InviteScheme  string
	Output        string
	As            string
	Verbose       bool
}

// OpenFunc connects to the backing store described by opts.
type OpenFunc func(ctx context.Context, opts Options, logger *zap.Logger) (*Backend, error)

type app struct {
	opts    Options
	open    OpenFunc
	log     *zap.Logger
	backend *Backend
}

// Execute runs familyhubctl against MongoDB.
func Execute() error {
	return NewRootCmd(OpenMongo).Execute()
}

// NewRootCmd builds a fresh command tree that uses open to reach storage.
func NewRootCmd(open OpenFunc) *cobra.Command {
	a := &app{open: open, log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "familyhubctl",
		Short: "Operator tool for FamilyHub workspace sharing",
		Long: `familyhubctl inspects and changes workspace membership and invite links
directly against the FamilyHub database.

Commands that change state act on behalf of a user given with --as
(a user id or an email address), and are subject to that user's permissions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.opts.Output {
			case "yaml", "json":
			default:
				return fmt.Errorf("--output must be yaml or json, got %q", a.opts.Output)
			}
			return a.initLogger()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = a.log.Sync() }()
			if a.backend == nil || a.backend.Close == nil {
				return nil
			}
			return a.backend.Close(context.Background())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.MongoURI, "mongo-uri", envOr("FAMILYHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&a.opts.MongoDatabase, "mongo-database", envOr("FAMILYHUB_MONGO_DATABASE", "familyhub"), "MongoDB database name")
	pf.StringVar(&a.opts.InviteScheme, "invite-scheme", envOr("FAMILYHUB_INVITE_SCHEME", invitelink.DefaultScheme), "Deep-link scheme for invite links")
	pf.StringVarP(&a.opts.Output, "output", "o", "yaml", "Output format (yaml, json)")
	pf.StringVar(&a.opts.As, "as", "", "Act as this user (id or email)")
	pf.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(newInviteCmd(a))
	root.AddCommand(newMembersCmd(a))
	return root
}

func (a *app) initLogger() error {
	level := zapcore.WarnLevel
	if a.opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = logger
	return nil
}

// connect opens the backend once per invocation.
func (a *app) connect(ctx context.Context) (*Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := a.open(ctx, a.opts, a.log)
	if err != nil {
		return nil, err
	}
	a.backend = b
	return b, nil
}

// actor resolves --as to a user id.
func (a *app) actor(ctx context.Context, b *Backend) (primitive.ObjectID, error) {
	if a.opts.As == "" {
		return primitive.NilObjectID, fmt.Errorf("--as is required for this command")
	}
	var (
		u   models.User
		err error
	)
	if oid, perr := primitive.ObjectIDFromHex(a.opts.As); perr == nil {
		u, err = b.Users.GetByID(ctx, oid)
	} else {
		u, err = b.Users.GetByEmail(ctx, a.opts.As)
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("resolve --as %q: %w", a.opts.As, err)
	}
	return u.ID, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
