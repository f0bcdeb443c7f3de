package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Follow is a directed edge: UserID follows FollowingID. Unique per
// (userId, followingId), and self-edges are rejected before the write.
type Follow struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	FollowingID primitive.ObjectID `bson:"followingId" json:"followingId"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`
}
