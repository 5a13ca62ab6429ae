package handlers

import (
	"net/http"

	"house-swap-app/internal/middleware"
	"house-swap-app/internal/redis"
	"house-swap-app/internal/utils"

	"github.com/gin-gonic/gin"
)

// Routes bundles everything the router needs. Websocket is optional, and a
// nil Sessions client disables session revocation checks.
type Routes struct {
	Tokens         *utils.TokenManager
	Sessions       *redis.Client
	AllowedOrigins []string
	Auth           *AuthHandler
	Profiles       *ProfileHandler
	Discovery      *DiscoveryHandler
	Matches        *MatchHandler
	Bookings       *BookingHandler
	Reviews        *ReviewHandler
	Messages       *MessageHandler
	Notifications  *NotificationHandler
	Websocket      gin.HandlerFunc
}

func NewRouter(r Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(r.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := middleware.AuthRequired(r.Tokens, r.Sessions)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.Auth.Register)
			auth.POST("/login", r.Auth.Login)
			auth.POST("/logout", authRequired, r.Auth.Logout)
		}

		v1.PUT("/users/push-token", authRequired, r.Auth.SetPushToken)

		profile := v1.Group("/profile")
		profile.Use(authRequired)
		{
			profile.GET("", r.Profiles.GetOwnProfile)
			profile.PUT("", r.Profiles.UpdateProfile)
			profile.DELETE("", r.Profiles.DeleteAccount)
			profile.POST("/images", r.Profiles.UploadImage)
			profile.PUT("/images/:id/main", r.Profiles.SetMainImage)
			profile.DELETE("/images/:id", r.Profiles.DeleteImage)
		}
		v1.GET("/profiles/:user_id", authRequired, r.Profiles.GetProfile)

		v1.GET("/discover/next", middleware.OptionalAuth(r.Tokens, r.Sessions), r.Discovery.Next)

		matches := v1.Group("/matches")
		matches.Use(authRequired)
		{
			matches.POST("/like/:profile_id", r.Matches.Like)
			matches.DELETE("/like/:profile_id", r.Matches.Unlike)
			matches.POST("/pass/:profile_id", r.Matches.Pass)
			matches.GET("/status/:user_id", r.Matches.Status)
			matches.GET("/likes-received", r.Matches.LikesReceived)
		}

		bookings := v1.Group("/bookings")
		bookings.Use(authRequired)
		{
			bookings.POST("", r.Bookings.Create)
			bookings.GET("/current/:user_id", r.Bookings.Current)
			bookings.POST("/:id/actions", r.Bookings.Act)
		}

		reviews := v1.Group("/reviews")
		reviews.Use(authRequired)
		{
			reviews.GET("/:user_id", r.Reviews.List)
			reviews.POST("/:user_id", r.Reviews.Leave)
			reviews.DELETE("/:user_id", r.Reviews.Delete)
		}

		messages := v1.Group("/messages")
		messages.Use(authRequired)
		{
			messages.GET("/:user_id", r.Messages.GetConversation)
			messages.POST("/:user_id", r.Messages.SendMessage)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authRequired)
		{
			notifications.GET("", r.Notifications.List)
			notifications.POST("/read-all", r.Notifications.MarkAllRead)
			notifications.POST("/:id/dismiss", r.Notifications.Dismiss)
			notifications.GET("/:id/open", r.Notifications.Open)
		}

		if r.Websocket != nil {
			v1.GET("/ws", middleware.WebSocketAuth(r.Tokens, r.Sessions), r.Websocket)
		}
	}

	return router
}
