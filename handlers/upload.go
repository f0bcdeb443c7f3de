package handlers

import (
	"context"
	"net/http"
	"time"

	"chirper/database"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
)

// UploadAvatar pushes an image to Cloudinary and sets it as the viewer's
// avatar.
func (h *Handler) UploadAvatar(c *gin.Context) {
	userID, ok := requireViewer(c)
	if !ok {
		return
	}

	if h.Cloudinary == nil {
		abortError(c, http.StatusServiceUnavailable, kindInternal, "Uploads not configured")
		return
	}

	// Uploads get a longer timeout than regular requests.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Failed to parse form data")
		return
	}

	avatarFile, _, err := c.Request.FormFile("avatar")
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "No avatar file provided")
		return
	}
	defer avatarFile.Close()

	uploadParams := uploader.UploadParams{
		Folder:         "chirper/avatars",
		PublicID:       userID.Hex(),
		Transformation: "c_limit,w_400,h_400,q_auto",
	}

	uploadResult, err := h.Cloudinary.Upload.Upload(ctx, avatarFile, uploadParams)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to upload avatar")
		return
	}

	url := uploadResult.SecureURL
	if _, err := h.Store.UpdateUser(ctx, userID, database.UserUpdate{Avatar: &url}); err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to save avatar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
