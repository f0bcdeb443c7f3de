package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"chirper/identity"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error kinds carried alongside the human-readable message so clients can
// branch without string matching.
const (
	kindValidation   = "validation"
	kindUnauthorized = "unauthorized"
	kindForbidden    = "forbidden"
	kindNotFound     = "not_found"
	kindConflict     = "conflict"
	kindInternal     = "internal"
)

const requestTimeout = 10 * time.Second

func abortError(c *gin.Context, status int, kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": kind})
}

// requestContext bounds every handler's store and identity calls with a
// fixed per-request timeout.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// viewer returns the authenticated user's id. Handlers behind RequireAuth
// treat a missing or malformed id as unauthorized.
func viewer(c *gin.Context) (primitive.ObjectID, bool) {
	userIDStr := c.GetString("userId")
	if userIDStr == "" {
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return userID, true
}

// optionalViewer returns the viewer id when one is signed in, nil otherwise.
func optionalViewer(c *gin.Context) *primitive.ObjectID {
	userID, ok := viewer(c)
	if !ok {
		return nil
	}
	return &userID
}

func requireViewer(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := viewer(c)
	if !ok {
		abortError(c, http.StatusUnauthorized, kindUnauthorized, "Invalid user ID")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortError(c, http.StatusBadRequest, kindValidation, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondEnrichError maps enrichment failures. A missing or incomplete
// author record is upstream data inconsistency, not user input, so it is an
// internal error regardless of which request tripped over it.
func respondEnrichError(c *gin.Context, err error) {
	log.Printf("enrichment error: %v", err)
	if errors.Is(err, identity.ErrNotFound) || errors.Is(err, identity.ErrIncomplete) {
		abortError(c, http.StatusInternalServerError, kindInternal, "Author data is missing or incomplete")
		return
	}
	abortError(c, http.StatusInternalServerError, kindInternal, "Failed to load feed data")
}
