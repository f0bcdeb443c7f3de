package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"chirper/database"
	"chirper/handlers"
	"chirper/identity"
	"chirper/middleware"
	"chirper/models"
	"chirper/routes"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type likeKey struct {
	postID primitive.ObjectID
	userID primitive.ObjectID
}

type followKey struct {
	userID      primitive.ObjectID
	followingID primitive.ObjectID
}

// fakeStore is an in-memory handlers.Store with the same ordering, cursor
// and uniqueness semantics as the Mongo-backed one.
type fakeStore struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]models.User
	posts   []models.Post
	replies []models.Reply
	likes   map[likeKey]models.Like
	follows map[followKey]models.Follow
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[primitive.ObjectID]models.User),
		likes:   make(map[likeKey]models.Like),
		follows: make(map[followKey]models.Follow),
	}
}

func idLess(a, b primitive.ObjectID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func sortPostsDesc(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt != posts[j].CreatedAt {
			return posts[i].CreatedAt > posts[j].CreatedAt
		}
		return idLess(posts[j].ID, posts[i].ID)
	})
}

func sortRepliesDesc(replies []models.Reply) {
	sort.Slice(replies, func(i, j int) bool {
		if replies[i].CreatedAt != replies[j].CreatedAt {
			return replies[i].CreatedAt > replies[j].CreatedAt
		}
		return idLess(replies[j].ID, replies[i].ID)
	})
}

func (s *fakeStore) InsertPost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, *post)
	return nil
}

func (s *fakeStore) GetPost(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			post := p
			return &post, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) PostsPage(_ context.Context, q database.PostsQuery) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Post{}
	for _, p := range s.posts {
		if q.AuthorID != nil && p.AuthorID != *q.AuthorID {
			continue
		}
		if q.AuthorIDs != nil && !containsID(q.AuthorIDs, p.AuthorID) {
			continue
		}
		matched = append(matched, p)
	}
	sortPostsDesc(matched)

	if q.Cursor != nil {
		var cur *models.Post
		for _, p := range s.posts {
			if p.ID == *q.Cursor {
				post := p
				cur = &post
				break
			}
		}
		if cur == nil {
			return nil, database.ErrNotFound
		}
		kept := []models.Post{}
		for _, p := range matched {
			if p.CreatedAt < cur.CreatedAt || (p.CreatedAt == cur.CreatedAt && !idLess(cur.ID, p.ID)) {
				kept = append(kept, p)
			}
		}
		matched = kept
	}

	if int64(len(matched)) > q.N {
		matched = matched[:q.N]
	}
	return matched, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *fakeStore) InsertReply(_ context.Context, reply *models.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, *reply)
	return nil
}

func (s *fakeStore) RepliesPage(_ context.Context, postID primitive.ObjectID, cursor *primitive.ObjectID, n int64) ([]models.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Reply{}
	for _, r := range s.replies {
		if r.PostID == postID {
			matched = append(matched, r)
		}
	}
	sortRepliesDesc(matched)

	if cursor != nil {
		var cur *models.Reply
		for _, r := range s.replies {
			if r.ID == *cursor {
				reply := r
				cur = &reply
				break
			}
		}
		if cur == nil {
			return nil, database.ErrNotFound
		}
		kept := []models.Reply{}
		for _, r := range matched {
			if r.CreatedAt < cur.CreatedAt || (r.CreatedAt == cur.CreatedAt && !idLess(cur.ID, r.ID)) {
				kept = append(kept, r)
			}
		}
		matched = kept
	}

	if int64(len(matched)) > n {
		matched = matched[:n]
	}
	return matched, nil
}

func (s *fakeStore) CountReplies(_ context.Context, postID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, r := range s.replies {
		if r.PostID == postID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) InsertLike(_ context.Context, like *models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{like.PostID, like.UserID}
	if _, exists := s.likes[key]; exists {
		return database.ErrDuplicate
	}
	s.likes[key] = *like
	return nil
}

func (s *fakeStore) DeleteLike(_ context.Context, postID, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{postID, userID}
	if _, exists := s.likes[key]; !exists {
		return 0, nil
	}
	delete(s.likes, key)
	return 1, nil
}

func (s *fakeStore) CountLikes(_ context.Context, postID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.likes {
		if key.postID == postID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) HasLike(_ context.Context, postID, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.likes[likeKey{postID, userID}]
	return exists, nil
}

func (s *fakeStore) InsertFollow(_ context.Context, follow *models.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := followKey{follow.UserID, follow.FollowingID}
	if _, exists := s.follows[key]; exists {
		return database.ErrDuplicate
	}
	s.follows[key] = *follow
	return nil
}

func (s *fakeStore) DeleteFollow(_ context.Context, userID, followingID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := followKey{userID, followingID}
	if _, exists := s.follows[key]; !exists {
		return 0, nil
	}
	delete(s.follows, key)
	return 1, nil
}

func (s *fakeStore) CountFollowers(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.follows {
		if key.followingID == userID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) CountFollowing(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.follows {
		if key.userID == userID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) HasFollow(_ context.Context, userID, followingID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.follows[followKey{userID, followingID}]
	return exists, nil
}

func (s *fakeStore) FollowingIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []primitive.ObjectID{}
	for key := range s.follows {
		if key.userID == userID {
			ids = append(ids, key.followingID)
		}
	}
	return ids, nil
}

func (s *fakeStore) Followers(_ context.Context, userID primitive.ObjectID) ([]models.Follow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	follows := []models.Follow{}
	for key, f := range s.follows {
		if key.followingID == userID {
			follows = append(follows, f)
		}
	}
	return follows, nil
}

func (s *fakeStore) Following(_ context.Context, userID primitive.ObjectID) ([]models.Follow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	follows := []models.Follow{}
	for key, f := range s.follows {
		if key.userID == userID {
			follows = append(follows, f)
		}
	}
	return follows, nil
}

func (s *fakeStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return database.ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, exists := s.users[id]
	if !exists {
		return nil, database.ErrNotFound
	}
	return &user, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) UpdateUser(_ context.Context, id primitive.ObjectID, update database.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, exists := s.users[id]
	if !exists {
		return nil, database.ErrNotFound
	}
	if update.Username != nil {
		for otherID, other := range s.users {
			if otherID != id && other.Username == *update.Username {
				return nil, database.ErrDuplicate
			}
		}
		user.Username = *update.Username
	}
	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	s.users[id] = user
	return &user, nil
}

func (s *fakeStore) SetLastSeen(_ context.Context, id primitive.ObjectID, when int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, exists := s.users[id]
	if !exists {
		return database.ErrNotFound
	}
	user.LastSeen = when
	s.users[id] = user
	return nil
}

// fakeIdentity resolves authors from a map. Per-author delays let tests
// exercise the enrichment fan-out's ordering guarantee.
type fakeIdentity struct {
	mu         sync.Mutex
	authors    map[primitive.ObjectID]models.Author
	incomplete map[primitive.ObjectID]bool
	delays     map[primitive.ObjectID]time.Duration
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		authors:    make(map[primitive.ObjectID]models.Author),
		incomplete: make(map[primitive.ObjectID]bool),
		delays:     make(map[primitive.ObjectID]time.Duration),
	}
}

func (f *fakeIdentity) Lookup(_ context.Context, userID primitive.ObjectID) (*models.Author, error) {
	f.mu.Lock()
	author, exists := f.authors[userID]
	incomplete := f.incomplete[userID]
	delay := f.delays[userID]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", identity.ErrNotFound, userID.Hex())
	}
	if incomplete {
		return nil, fmt.Errorf("%w: %s", identity.ErrIncomplete, userID.Hex())
	}
	return &author, nil
}

// ----- test environment -----

type testEnv struct {
	store  *fakeStore
	ident  *fakeIdentity
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	ident := newFakeIdentity()
	h := handlers.New(store, ident, []byte(testSecret))
	return &testEnv{
		store:  store,
		ident:  ident,
		router: routes.SetupRouter(h),
	}
}

// seedUser registers a user in both the store and the identity directory
// and returns their id with a valid session token.
func (e *testEnv) seedUser(t *testing.T, username, displayName string) (primitive.ObjectID, string) {
	t.Helper()

	userID := primitive.NewObjectID()
	e.store.users[userID] = models.User{
		ID:          userID,
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   time.Now().Unix(),
	}
	e.ident.authors[userID] = models.Author{
		ID:              userID.Hex(),
		Username:        username,
		DisplayName:     displayName,
		ProfileImageURL: identity.FallbackAvatar,
	}
	return userID, signToken(t, userID)
}

func (e *testEnv) seedPost(authorID primitive.ObjectID, content string, createdAt int64) models.Post {
	post := models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: createdAt,
	}
	e.store.posts = append(e.store.posts, post)
	return post
}

func signToken(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()

	claims := &middleware.Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// feedPage mirrors the posts feed response shape.
type feedPage struct {
	PostsWithUser []models.PostWithData `json:"postsWithUser"`
	NextCursor    string                `json:"nextCursor"`
}

// replyPage mirrors the replies feed response shape.
type replyPage struct {
	ReplysWithUser []models.ReplyWithUser `json:"replysWithUser"`
	NextCursor     string                 `json:"nextCursor"`
}

// errBody mirrors the error envelope.
type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
