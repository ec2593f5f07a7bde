package routes

import (
	"net/http"
	"time"

	_ "chat-relay/docs"
	"chat-relay/internal/api/handlers"
	"chat-relay/internal/api/middleware"
	"chat-relay/internal/realtime"
	"chat-relay/internal/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	engine      *gin.Engine
	wsHandler   *handlers.WSHandler
	authHandler *handlers.AuthHandler
	chatHandler *handlers.ChatHandler
	userHandler *handlers.UserHandler
	fileHandler *handlers.FileHandler
	rateLimitMW *middleware.RateLimitMiddleware
	authMW      *middleware.AuthMiddleware
}

func NewRouter(
	hub *realtime.Hub,
	authService *services.AuthService,
	chatService *services.ChatService,
	userService *services.UserService,
	fileService *services.FileService,
	redisService *services.RedisService,
	jwtSecret string,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	return &Router{
		engine:      engine,
		wsHandler:   handlers.NewWSHandler(hub),
		authHandler: handlers.NewAuthHandler(authService, hub),
		chatHandler: handlers.NewChatHandler(chatService, hub),
		userHandler: handlers.NewUserHandler(userService),
		fileHandler: handlers.NewFileHandler(fileService),
		rateLimitMW: middleware.NewRateLimitMiddleware(redisService),
		authMW:      middleware.NewAuthMiddleware(jwtSecret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint. Credential validation happens inside the hub so
	// rejects use websocket close codes instead of HTTP statuses.
	api.GET("/ws", r.wsHandler.HandleWebSocket)

	// Public routes
	authRoutes := api.Group("/auth")
	authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("", r.userHandler.ListUsers)
			users.GET("/profile", r.userHandler.GetProfile)
		}

		chats := auth.Group("/chats")
		chats.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			chats.GET("", r.chatHandler.ListChats)
			chats.POST("/private", r.chatHandler.CreatePrivateChat)
			chats.POST("/group", r.chatHandler.CreateGroupChat)
			chats.GET("/:id", r.chatHandler.GetChat)
			chats.GET("/:id/messages", r.chatHandler.ListMessages)
			chats.POST("/:id/messages", r.chatHandler.SendMessage)
			chats.POST("/:id/read", r.chatHandler.MarkRead)
			chats.DELETE("/:id/members", r.chatHandler.RemoveMembers)
		}

		files := auth.Group("/files")
		files.Use(r.rateLimitMW.RateLimit(30, time.Minute))
		{
			files.POST("", r.fileHandler.Upload)
			files.GET("/:id", r.fileHandler.Download)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
