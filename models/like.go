package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Like rows are kept unique per (postId, userId) by an index created at
// startup, so liking is boolean state and counts are derived by counting rows.
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
