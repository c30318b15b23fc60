package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterOptions configures the cross-cutting middleware.
type RouterOptions struct {
	FrontendURL  string
	MaxBodyBytes int64
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.Logger), CORS(opts.FrontendURL), BodyLimit(opts.MaxBodyBytes))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.PUT("/update-profile", h.ProtectRoute(), h.UpdateProfile)
	authGroup.GET("/check", h.ProtectRoute(), h.CheckAuth)

	msgs := api.Group("/messages", h.ProtectRoute())
	msgs.GET("/users", h.GetUsersForSidebar)
	msgs.GET("/online", h.GetOnlineUsers)
	msgs.GET("/:id", h.GetMessages)
	msgs.POST("/send/:id", h.SendMessage)

	r.GET("/ws", h.ProtectRoute(), h.ServeWebSocket(NewUpgrader(opts.FrontendURL)))

	return r
}
