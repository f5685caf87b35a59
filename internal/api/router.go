package api

import (
	"net/http"

	"github.com/devstudio/devstudio-server/internal/api/handlers"
	"github.com/devstudio/devstudio-server/internal/api/middleware"
	"github.com/devstudio/devstudio-server/internal/auth"
	"github.com/devstudio/devstudio-server/internal/config"
	"github.com/devstudio/devstudio-server/internal/db"
	"github.com/devstudio/devstudio-server/internal/db/repository"
	"github.com/devstudio/devstudio-server/internal/models"
	"github.com/devstudio/devstudio-server/internal/service"
	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	database *db.DB,
	adminService *service.AdminService,
	tokens *auth.TokenIssuer,
	auditRepo *repository.AuditRepository,
) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// Create handlers
	adminHandler := handlers.NewAdminHandler(adminService, auditRepo)

	// Admin routes
	admin := router.Group("/api/admin")
	{
		// Create decides between the bootstrap, invite, and
		// bearer-token paths itself, so auth is optional here
		admin.POST("/create", middleware.OptionalAuth(tokens), adminHandler.Create)
		admin.POST("/login", adminHandler.Login)

		// Authenticated endpoints
		authed := admin.Group("")
		authed.Use(middleware.RequireAuth(tokens))
		{
			authed.POST("/2fa/setup", adminHandler.Setup2FA)
			authed.POST("/2fa/enable", adminHandler.Enable2FA)
			authed.POST("/2fa/disable", adminHandler.Disable2FA)

			// Superadmin only
			super := authed.Group("")
			super.Use(middleware.RequireRole(models.RoleSuperadmin))
			{
				super.GET("/list", adminHandler.List)
				super.POST("/invite", adminHandler.CreateInvite)
			}
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness check - verifies the database connection
	router.GET("/api/readiness", func(c *gin.Context) {
		if err := database.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	})

	return &Server{
		router: router,
		config: cfg,
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	return s.router.Run(s.config.Server.ListenAddr)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
