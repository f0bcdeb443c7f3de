package database

import (
	"context"
	"errors"

	"chirper/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("database: not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("database: duplicate key")
)

// PostsQuery selects a page of posts. N is the number of rows to fetch
// (callers ask for one more than the page size to detect another page).
// The cursor row, when set, is included as the first row of the page.
type PostsQuery struct {
	AuthorID  *primitive.ObjectID  // single-author feed
	AuthorIDs []primitive.ObjectID // following feed; non-nil means filter
	Cursor    *primitive.ObjectID
	N         int64
}

// UserUpdate holds the profile fields a user may change. Nil means unchanged.
type UserUpdate struct {
	Username    *string
	DisplayName *string
	Avatar      *string
}

var pageSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// pageFilter extends base so the page starts at the cursor row, comparing
// (createdAt, _id) pairs to match the sort order.
func pageFilter(base bson.M, createdAt int64, id primitive.ObjectID) bson.M {
	return bson.M{
		"$and": bson.A{
			base,
			bson.M{"$or": bson.A{
				bson.M{"createdAt": bson.M{"$lt": createdAt}},
				bson.M{"createdAt": createdAt, "_id": bson.M{"$lte": id}},
			}},
		},
	}
}

// ----- posts -----

func (db *DB) InsertPost(ctx context.Context, post *models.Post) error {
	_, err := db.Posts.InsertOne(ctx, post)
	return err
}

func (db *DB) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := db.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (db *DB) PostsPage(ctx context.Context, q PostsQuery) ([]models.Post, error) {
	filter := bson.M{}
	if q.AuthorID != nil {
		filter["authorId"] = *q.AuthorID
	}
	if q.AuthorIDs != nil {
		filter["authorId"] = bson.M{"$in": q.AuthorIDs}
	}

	if q.Cursor != nil {
		var cur models.Post
		err := db.Posts.FindOne(ctx, bson.M{"_id": *q.Cursor}).Decode(&cur)
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		filter = pageFilter(filter, cur.CreatedAt, cur.ID)
	}

	findOptions := options.Find().SetSort(pageSort).SetLimit(q.N)
	cursor, err := db.Posts.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ----- replies -----

func (db *DB) InsertReply(ctx context.Context, reply *models.Reply) error {
	_, err := db.Replies.InsertOne(ctx, reply)
	return err
}

func (db *DB) RepliesPage(ctx context.Context, postID primitive.ObjectID, pageCursor *primitive.ObjectID, n int64) ([]models.Reply, error) {
	filter := bson.M{"postId": postID}

	if pageCursor != nil {
		var cur models.Reply
		err := db.Replies.FindOne(ctx, bson.M{"_id": *pageCursor}).Decode(&cur)
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		filter = pageFilter(filter, cur.CreatedAt, cur.ID)
	}

	findOptions := options.Find().SetSort(pageSort).SetLimit(n)
	cursor, err := db.Replies.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	replies := []models.Reply{}
	if err := cursor.All(ctx, &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func (db *DB) CountReplies(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return db.Replies.CountDocuments(ctx, bson.M{"postId": postID})
}

// ----- likes -----

func (db *DB) InsertLike(ctx context.Context, like *models.Like) error {
	_, err := db.Likes.InsertOne(ctx, like)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) DeleteLike(ctx context.Context, postID, userID primitive.ObjectID) (int64, error) {
	result, err := db.Likes.DeleteOne(ctx, bson.M{"postId": postID, "userId": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (db *DB) CountLikes(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return db.Likes.CountDocuments(ctx, bson.M{"postId": postID})
}

func (db *DB) HasLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	count, err := db.Likes.CountDocuments(ctx, bson.M{"postId": postID, "userId": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ----- follows -----

func (db *DB) InsertFollow(ctx context.Context, follow *models.Follow) error {
	_, err := db.Follows.InsertOne(ctx, follow)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) DeleteFollow(ctx context.Context, userID, followingID primitive.ObjectID) (int64, error) {
	result, err := db.Follows.DeleteOne(ctx, bson.M{"userId": userID, "followingId": followingID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (db *DB) CountFollowers(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return db.Follows.CountDocuments(ctx, bson.M{"followingId": userID})
}

func (db *DB) CountFollowing(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return db.Follows.CountDocuments(ctx, bson.M{"userId": userID})
}

func (db *DB) HasFollow(ctx context.Context, userID, followingID primitive.ObjectID) (bool, error) {
	count, err := db.Follows.CountDocuments(ctx, bson.M{"userId": userID, "followingId": followingID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) FollowingIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	follows, err := db.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := []primitive.ObjectID{}
	for _, f := range follows {
		ids = append(ids, f.FollowingID)
	}
	return ids, nil
}

func (db *DB) Followers(ctx context.Context, userID primitive.ObjectID) ([]models.Follow, error) {
	return db.findFollows(ctx, bson.M{"followingId": userID})
}

func (db *DB) Following(ctx context.Context, userID primitive.ObjectID) ([]models.Follow, error) {
	return db.findFollows(ctx, bson.M{"userId": userID})
}

func (db *DB) findFollows(ctx context.Context, filter bson.M) ([]models.Follow, error) {
	cursor, err := db.Follows.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	follows := []models.Follow{}
	if err := cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	return follows, nil
}

// ----- users -----

func (db *DB) InsertUser(ctx context.Context, user *models.User) error {
	_, err := db.Users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := db.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := db.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) UpdateUser(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*models.User, error) {
	set := bson.M{}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.DisplayName != nil {
		set["displayName"] = *update.DisplayName
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}

	if len(set) > 0 {
		_, err := db.Users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		if err != nil {
			return nil, err
		}
	}
	return db.GetUser(ctx, id)
}

// SetLastSeen records activity timestamps best-effort; callers ignore errors.
func (db *DB) SetLastSeen(ctx context.Context, id primitive.ObjectID, when int64) error {
	_, err := db.Users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastSeen": when}})
	return err
}
