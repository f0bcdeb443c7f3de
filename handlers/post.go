package handlers

import (
	"errors"
	"net/http"
	"time"

	"chirper/database"
	"chirper/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreatePostRequest struct {
	Content string `json:"content" binding:"required,max=256"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post := models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  userID,
		Content:   req.Content,
		CreatedAt: time.Now().Unix(),
	}

	if err := h.Store.InsertPost(ctx, &post); err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to create post")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetPosts serves the global feed, newest first.
func (h *Handler) GetPosts(c *gin.Context) {
	limit, cursor, ok := bindPageParams(c)
	if !ok {
		return
	}

	h.servePostsPage(c, database.PostsQuery{Cursor: cursor, N: limit + 1}, limit)
}

// GetFollowingPosts serves the feed filtered to authors the viewer follows.
func (h *Handler) GetFollowingPosts(c *gin.Context) {
	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	limit, cursor, ok := bindPageParams(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	authorIDs, err := h.Store.FollowingIDs(ctx, userID)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch follows")
		return
	}

	h.servePostsPage(c, database.PostsQuery{AuthorIDs: authorIDs, Cursor: cursor, N: limit + 1}, limit)
}

// GetUserPosts serves a single author's feed.
func (h *Handler) GetUserPosts(c *gin.Context) {
	authorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, cursor, ok := bindPageParams(c)
	if !ok {
		return
	}

	h.servePostsPage(c, database.PostsQuery{AuthorID: &authorID, Cursor: cursor, N: limit + 1}, limit)
}

func (h *Handler) servePostsPage(c *gin.Context, query database.PostsQuery, limit int64) {
	ctx, cancel := requestContext()
	defer cancel()

	posts, err := h.Store.PostsPage(ctx, query)
	if errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusBadRequest, kindValidation, "Cursor does not reference a known post")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch posts")
		return
	}

	page, nextCursor := trimPage(posts, limit, func(p models.Post) primitive.ObjectID { return p.ID })

	enriched, err := h.enrichPosts(ctx, page, optionalViewer(c))
	if err != nil {
		respondEnrichError(c, err)
		return
	}

	response := gin.H{"postsWithUser": enriched}
	if nextCursor != "" {
		response["nextCursor"] = nextCursor
	}
	c.JSON(http.StatusOK, response)
}

// GetPost serves a single enriched post.
func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := h.Store.GetPost(ctx, postID)
	if errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "Post not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch post")
		return
	}

	enriched, err := h.enrichPost(ctx, *post, optionalViewer(c))
	if err != nil {
		respondEnrichError(c, err)
		return
	}

	c.JSON(http.StatusOK, enriched)
}
