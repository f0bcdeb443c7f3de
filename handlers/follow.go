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

type FollowRequest struct {
	FollowingID string `json:"followingId" binding:"required"`
}

func (h *Handler) CreateFollow(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	followingID, err := primitive.ObjectIDFromHex(req.FollowingID)
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid following ID")
		return
	}

	// Self-follow is rejected before any write happens.
	if followingID == userID {
		abortError(c, http.StatusForbidden, kindForbidden, "User can not follow themselves")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	follow := models.Follow{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		FollowingID: followingID,
		CreatedAt:   time.Now().Unix(),
	}

	err = h.Store.InsertFollow(ctx, &follow)
	if errors.Is(err, database.ErrDuplicate) {
		abortError(c, http.StatusBadRequest, kindConflict, "Already following user")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to follow")
		return
	}

	c.JSON(http.StatusCreated, follow)
}

func (h *Handler) DeleteFollow(c *gin.Context) {
	followingIDStr := c.Query("followingId")
	if followingIDStr == "" {
		var req FollowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, http.StatusBadRequest, kindValidation, "followingId is required")
			return
		}
		followingIDStr = req.FollowingID
	}

	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	followingID, err := primitive.ObjectIDFromHex(followingIDStr)
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid following ID")
		return
	}

	if followingID == userID {
		abortError(c, http.StatusForbidden, kindForbidden, "User can not follow themselves")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	deleted, err := h.Store.DeleteFollow(ctx, userID, followingID)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to unfollow")
		return
	}
	if deleted == 0 {
		abortError(c, http.StatusBadRequest, kindConflict, "Follow not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}

// GetFollowers lists the raw follow edges pointing at a user.
func (h *Handler) GetFollowers(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	follows, err := h.Store.Followers(ctx, userID)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch followers")
		return
	}

	c.JSON(http.StatusOK, follows)
}

// GetFollowing lists the follow edges originating from a user.
func (h *Handler) GetFollowing(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	follows, err := h.Store.Following(ctx, userID)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch following")
		return
	}

	c.JSON(http.StatusOK, follows)
}
