package handlers

import (
	"errors"
	"net/http"

	"chirper/database"
	"chirper/identity"

	"github.com/gin-gonic/gin"
)

// GetProfile serves a public profile with follow data relative to the
// viewer, when one is signed in.
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	author, err := h.Identity.Lookup(ctx, userID)
	if errors.Is(err, identity.ErrNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "Profile not found")
		return
	}
	if errors.Is(err, identity.ErrIncomplete) {
		abortError(c, http.StatusInternalServerError, kindInternal, "Profile data is incomplete")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch profile")
		return
	}

	profile, err := h.attachFollowData(ctx, *author, userID, optionalViewer(c))
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch follow data")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetMe returns the viewer's own account record.
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	user, err := h.Store.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "User not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, user)
}

type UpdateMeRequest struct {
	Username    *string `json:"username" binding:"omitempty,min=3,max=24"`
	DisplayName *string `json:"displayName" binding:"omitempty,min=1,max=50"`
	Avatar      *string `json:"avatar" binding:"omitempty,url"`
}

// UpdateMe changes the viewer's username, display name or avatar.
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
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

	user, err := h.Store.UpdateUser(ctx, userID, database.UserUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
	})
	if errors.Is(err, database.ErrDuplicate) {
		abortError(c, http.StatusConflict, kindConflict, "Username already taken")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusNotFound, kindNotFound, "User not found")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}
