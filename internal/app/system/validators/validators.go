// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/familyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// colorPattern accepts an empty string or a #RGB / #RRGGBB color.
const colorPattern = `^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6})?$`

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Info("validator ensured", zap.String("collection", coll))
	}

	ensure("users", usersSchema())
	ensure("workspaces", workspacesSchema())

	// Written only through the change feed; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"display_name", "created_at"},
			"properties": bson.M{
				"display_name":    bson.M{"bsonType": "string"},
				"display_name_ci": bson.M{"bsonType": "string"},
				"email":           bson.M{"bsonType": "string"},
				"personal_color":  bson.M{"bsonType": "string", "pattern": colorPattern},
				"created_at":      bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func workspacesSchema() bson.M {
	roles := bson.A{}
	for _, r := range models.Roles {
		roles = append(roles, string(r))
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "kind", "owner_id", "members"},
			"properties": bson.M{
				"name":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":  bson.M{"bsonType": "string"},
				"kind":     bson.M{"enum": bson.A{string(models.KindPersonal), string(models.KindShared)}},
				"owner_id": bson.M{"bsonType": "objectId"},
				"color":    bson.M{"bsonType": "string", "pattern": colorPattern},
				"icon":     bson.M{"bsonType": "string"},
				"archived": bson.M{"bsonType": "bool"},
				"members": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"user_id", "role"},
						"properties": bson.M{
							"user_id":      bson.M{"bsonType": "objectId"},
							"role":         bson.M{"enum": roles},
							"joined_at":    bson.M{"bsonType": "date"},
							"custom_color": bson.M{"bsonType": "string", "pattern": colorPattern},
						},
					},
				},
				"invite_link": bson.M{
					"bsonType": "object",
					"required": bson.A{"code", "expires_at"},
					"properties": bson.M{
						"code":        bson.M{"bsonType": "string", "minLength": 1},
						"created_by":  bson.M{"bsonType": "objectId"},
						"created_at":  bson.M{"bsonType": "date"},
						"expires_at":  bson.M{"bsonType": "date"},
						"usage_count": bson.M{"bsonType": bson.A{"int", "long"}},
					},
				},
			},
		},
	}
}
