package userstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByEmail retrieves a user by (case-insensitive) email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpsertByEmail returns the user with email, creating the profile when it
// does not exist yet. An existing profile is left untouched. created reports
// whether a new document was inserted.
func (s *Store) UpsertByEmail(ctx context.Context, email, displayName string) (u models.User, created bool, err error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
		if at := strings.IndexByte(email, '@'); at > 0 {
			displayName = email[:at]
		}
	}
	now := time.Now().UTC()

	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{
			"email":           email,
			"display_name":    displayName,
			"display_name_ci": text.Fold(displayName),
			"created_at":      now,
			"updated_at":      now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.User{}, false, err
	}

	u, err = s.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, false, err
	}
	return u, res.UpsertedCount == 1, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
