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

type CreateReplyRequest struct {
	PostID  string `json:"postId" binding:"required"`
	Content string `json:"content" binding:"required,max=255"`
}

func (h *Handler) CreateReply(c *gin.Context) {
	var req CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid post ID")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	// Replies belong to exactly one post; creating one against a missing
	// post is a not-found, not a validation failure.
	if _, err := h.Store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			abortError(c, http.StatusNotFound, kindNotFound, "Post not found")
			return
		}
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch post")
		return
	}

	reply := models.Reply{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: time.Now().Unix(),
	}

	if err := h.Store.InsertReply(ctx, &reply); err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to create reply")
		return
	}

	c.JSON(http.StatusCreated, reply)
}

// GetPostReplies serves a post's replies, newest first, same pagination
// contract as the post feeds.
func (h *Handler) GetPostReplies(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	limit, cursor, ok := bindPageParams(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	replies, err := h.Store.RepliesPage(ctx, postID, cursor, limit+1)
	if errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusBadRequest, kindValidation, "Cursor does not reference a known reply")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch replies")
		return
	}

	page, nextCursor := trimPage(replies, limit, func(r models.Reply) primitive.ObjectID { return r.ID })

	enriched, err := h.enrichReplies(ctx, page)
	if err != nil {
		respondEnrichError(c, err)
		return
	}

	response := gin.H{"replysWithUser": enriched}
	if nextCursor != "" {
		response["nextCursor"] = nextCursor
	}
	c.JSON(http.StatusOK, response)
}
