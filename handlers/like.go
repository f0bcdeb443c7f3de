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

type LikeRequest struct {
	PostID string `json:"postId" binding:"required"`
}

func (h *Handler) CreateLike(c *gin.Context) {
	var req LikeRequest
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

	if _, err := h.Store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			abortError(c, http.StatusNotFound, kindNotFound, "Post not found")
			return
		}
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch post")
		return
	}

	like := models.Like{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now().Unix(),
	}

	// Concurrent duplicate likes lose the race at the unique index rather
	// than at a precondition check.
	err = h.Store.InsertLike(ctx, &like)
	if errors.Is(err, database.ErrDuplicate) {
		abortError(c, http.StatusBadRequest, kindConflict, "Post already liked")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to like post")
		return
	}

	c.JSON(http.StatusCreated, like)
}

func (h *Handler) DeleteLike(c *gin.Context) {
	postIDStr := c.Query("postId")
	if postIDStr == "" {
		var req LikeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, http.StatusBadRequest, kindValidation, "postId is required")
			return
		}
		postIDStr = req.PostID
	}

	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(postIDStr)
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid post ID")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	deleted, err := h.Store.DeleteLike(ctx, postID, userID)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to remove like")
		return
	}
	if deleted == 0 {
		abortError(c, http.StatusBadRequest, kindConflict, "Like not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Like removed"})
}
