package routes

import (
	"time"

	"chirper/handlers"
	"chirper/metrics"
	"chirper/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var loginLimiter = middleware.NewIPRateLimiter(30, time.Minute)

func SetupRouter(h *handlers.Handler) *gin.Engine {
	router := gin.Default()
	router.Use(metrics.Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	router.GET("/metrics", metrics.Handler())

	// Credential endpoints, rate limited per IP
	auth := router.Group("/api")
	auth.Use(middleware.RateLimit(loginLimiter))
	auth.POST("/signup", h.Signup)
	auth.POST("/login", h.Login)
	auth.GET("/google/auth-url", h.GetGoogleAuthURL)
	auth.GET("/google/callback", h.GoogleCallback)
	auth.POST("/google-auth", h.GoogleAuth)

	// Public reads; a signed-in viewer personalizes isLikedByUser/isFollowing
	public := router.Group("/api")
	public.Use(middleware.OptionalAuth(h.JWTSecret))
	public.GET("/posts", h.GetPosts)
	public.GET("/posts/:id", h.GetPost)
	public.GET("/posts/:id/replies", h.GetPostReplies)
	public.GET("/users/:id/posts", h.GetUserPosts)
	public.GET("/users/:id/followers", h.GetFollowers)
	public.GET("/users/:id/following", h.GetFollowing)
	public.GET("/profiles/:id", h.GetProfile)

	// Everything below requires an authenticated viewer
	protected := router.Group("/api")
	protected.Use(middleware.RequireAuth(h.JWTSecret))
	protected.GET("/posts/following", h.GetFollowingPosts)
	protected.POST("/posts", h.CreatePost)
	protected.POST("/replies", h.CreateReply)
	protected.POST("/likes", h.CreateLike)
	protected.DELETE("/likes", h.DeleteLike)
	protected.POST("/follows", h.CreateFollow)
	protected.DELETE("/follows", h.DeleteFollow)
	protected.GET("/me", h.GetMe)
	protected.PUT("/me", h.UpdateMe)
	protected.POST("/upload-avatar", h.UploadAvatar)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error": "Endpoint not found",
			"kind":  "not_found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}
