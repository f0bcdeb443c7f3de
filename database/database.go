package database

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB wraps the Mongo client and the collection handles the store operates on.
// It is constructed once in main and passed to every consumer.
type DB struct {
	client *mongo.Client

	Users   *mongo.Collection
	Posts   *mongo.Collection
	Replies *mongo.Collection
	Likes   *mongo.Collection
	Follows *mongo.Collection
}

func Connect(ctx context.Context, uri string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database("chirper")
	return &DB{
		client:  client,
		Users:   db.Collection("users"),
		Posts:   db.Collection("posts"),
		Replies: db.Collection("replies"),
		Likes:   db.Collection("likes"),
		Follows: db.Collection("follows"),
	}, nil
}

// EnsureIndexes creates the unique indexes the data model relies on:
// one like per (postId, userId), one follow edge per (userId, followingId),
// and unique user email and username. Duplicate writes come back as
// duplicate-key errors, which the store translates to ErrDuplicate.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postId", Value: 1}, {Key: "userId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Follows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "followingId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	// Feed queries sort on (createdAt, _id) descending.
	_, err = db.Posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return err
	}

	_, err = db.Replies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (db *DB) Disconnect(ctx context.Context) error {
	if db.client == nil {
		return nil
	}
	if err := db.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("Disconnected from MongoDB")
	return nil
}
