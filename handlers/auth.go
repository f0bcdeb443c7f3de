package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"chirper/database"
	"chirper/middleware"
	"chirper/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Username    string `json:"username" binding:"required,min=3,max=24"`
	DisplayName string `json:"displayName" binding:"required,min=1,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	// Cheap precheck; the unique index is the real guarantee.
	if _, err := h.Store.GetUserByEmail(ctx, req.Email); err == nil {
		abortError(c, http.StatusConflict, kindConflict, "Email already in use")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusInternalServerError, kindInternal, "Database error")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to hash password")
		return
	}
	hashed := string(hashedPassword)

	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		PasswordHash: &hashed,
		AuthProvider: "email",
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		CreatedAt:    time.Now().Unix(),
		LastSeen:     time.Now().Unix(),
	}

	err = h.Store.InsertUser(ctx, &user)
	if errors.Is(err, database.ErrDuplicate) {
		abortError(c, http.StatusConflict, kindConflict, "Email or username already in use")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to create user")
		return
	}

	tokenString, err := h.issueToken(user.ID.Hex())
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   tokenString,
		"userId":  user.ID.Hex(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, err.Error())
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	user, err := h.Store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		abortError(c, http.StatusUnauthorized, kindUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Database error")
		return
	}

	// Accounts created through Google have no password.
	if user.PasswordHash == nil {
		abortError(c, http.StatusUnauthorized, kindUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		abortError(c, http.StatusUnauthorized, kindUnauthorized, "Invalid email or password")
		return
	}

	tokenString, err := h.issueToken(user.ID.Hex())
	if err != nil {
		abortError(c, http.StatusInternalServerError, kindInternal, "Failed to generate token")
		return
	}

	if err := h.Store.SetLastSeen(ctx, user.ID, time.Now().Unix()); err != nil {
		log.Printf("failed to update last seen for %s: %v", user.ID.Hex(), err)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   tokenString,
		"userId":  user.ID.Hex(),
		"message": "Login successful",
	})
}

func (h *Handler) issueToken(userID string) (string, error) {
	expirationTime := time.Now().Add(tokenLifetime)
	claims := &middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}
