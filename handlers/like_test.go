package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := env.seedUser(t, "alice", "Alice")
	_, bobToken := env.seedUser(t, "bob", "Bob")
	post := env.seedPost(aliceID, "like me", 1)

	body := map[string]string{"postId": post.ID.Hex()}

	w := env.do(t, http.MethodPost, "/api/likes", body, bobToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Second like on the same post loses at the unique key.
	w = env.do(t, http.MethodPost, "/api/likes", body, bobToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "conflict", decodeJSON[errBody](t, w).Kind)
	require.Len(t, env.store.likes, 1)

	// Feed reflects the like for the liker and not for others.
	w = env.do(t, http.MethodGet, "/api/posts?limit=10", nil, bobToken)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeJSON[feedPage](t, w)
	require.Len(t, page.PostsWithUser, 1)
	assert.Equal(t, int64(1), page.PostsWithUser[0].LikeCount)
	assert.True(t, page.PostsWithUser[0].IsLikedByUser)

	w = env.do(t, http.MethodGet, "/api/posts?limit=10", nil, aliceToken)
	page = decodeJSON[feedPage](t, w)
	assert.Equal(t, int64(1), page.PostsWithUser[0].LikeCount)
	assert.False(t, page.PostsWithUser[0].IsLikedByUser)

	w = env.do(t, http.MethodDelete, "/api/likes?postId="+post.ID.Hex(), nil, bobToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, env.store.likes)
}

func TestLikeMissingPost(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "Alice")

	w := env.do(t, http.MethodPost, "/api/likes", map[string]string{"postId": "0123456789abcdef01234567"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, env.store.likes)
}

func TestDeleteLikeNotLiked(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.seedUser(t, "alice", "Alice")
	post := env.seedPost(aliceID, "never liked", 1)

	w := env.do(t, http.MethodDelete, "/api/likes?postId="+post.ID.Hex(), nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "conflict", decodeJSON[errBody](t, w).Kind)
	assert.Empty(t, env.store.likes)
}

func TestLikeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	aliceID, _ := env.seedUser(t, "alice", "Alice")
	post := env.seedPost(aliceID, "post", 1)

	w := env.do(t, http.MethodPost, "/api/likes", map[string]string{"postId": post.ID.Hex()}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, env.store.likes)
}
