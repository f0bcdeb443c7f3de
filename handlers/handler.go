package handlers

import (
	"context"

	"chirper/database"
	"chirper/identity"
	"chirper/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
)

// Store is the persistence surface the handlers need. *database.DB is the
// real implementation; tests use an in-memory fake.
type Store interface {
	InsertPost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	PostsPage(ctx context.Context, q database.PostsQuery) ([]models.Post, error)

	InsertReply(ctx context.Context, reply *models.Reply) error
	RepliesPage(ctx context.Context, postID primitive.ObjectID, cursor *primitive.ObjectID, n int64) ([]models.Reply, error)
	CountReplies(ctx context.Context, postID primitive.ObjectID) (int64, error)

	InsertLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID, userID primitive.ObjectID) (int64, error)
	CountLikes(ctx context.Context, postID primitive.ObjectID) (int64, error)
	HasLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error)

	InsertFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, userID, followingID primitive.ObjectID) (int64, error)
	CountFollowers(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountFollowing(ctx context.Context, userID primitive.ObjectID) (int64, error)
	HasFollow(ctx context.Context, userID, followingID primitive.ObjectID) (bool, error)
	FollowingIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	Followers(ctx context.Context, userID primitive.ObjectID) ([]models.Follow, error)
	Following(ctx context.Context, userID primitive.ObjectID) ([]models.Follow, error)

	InsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update database.UserUpdate) (*models.User, error)
	SetLastSeen(ctx context.Context, id primitive.ObjectID, when int64) error
}

// Handler carries every dependency the request handlers use. It is built
// once in main and its methods are registered as routes; nothing here is
// package-level state.
type Handler struct {
	Store     Store
	Identity  identity.Service
	JWTSecret []byte

	// Optional integrations; endpoints depending on them answer 503 when nil.
	Cloudinary  *cloudinary.Cloudinary
	GoogleOAuth *oauth2.Config
}

func New(store Store, ident identity.Service, jwtSecret []byte) *Handler {
	return &Handler{
		Store:     store,
		Identity:  ident,
		JWTSecret: jwtSecret,
	}
}
