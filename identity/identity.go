// Package identity resolves user ids to public author profiles. The rest of
// the app only sees the Service interface, so the backing directory can be
// swapped out (it is the users collection in production, a fake in tests).
package identity

import (
	"context"
	"errors"
	"fmt"

	"chirper/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const FallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

var (
	// ErrNotFound means the directory has no record for the id.
	ErrNotFound = errors.New("identity: user not found")
	// ErrIncomplete means the record exists but lacks a username or display
	// name. Enrichment treats this as a data-integrity failure and aborts
	// the whole request rather than returning a partial author.
	ErrIncomplete = errors.New("identity: user record missing username or display name")
)

type Service interface {
	Lookup(ctx context.Context, userID primitive.ObjectID) (*models.Author, error)
}

// Directory resolves authors from the users collection.
type Directory struct {
	users *mongo.Collection
}

func NewDirectory(users *mongo.Collection) *Directory {
	return &Directory{users: users}
}

func (d *Directory) Lookup(ctx context.Context, userID primitive.ObjectID) (*models.Author, error) {
	var user models.User
	err := d.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userID.Hex())
	}
	if err != nil {
		return nil, err
	}

	if user.Username == "" || user.DisplayName == "" {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, userID.Hex())
	}

	avatar := user.Avatar
	if avatar == "" {
		avatar = FallbackAvatar
	}

	return &models.Author{
		ID:              user.ID.Hex(),
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		ProfileImageURL: avatar,
	}, nil
}
