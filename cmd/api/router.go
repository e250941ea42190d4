package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"digital-library-backend/internal/shared/middleware"
	"digital-library-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)
	if c.Config.Metrics.Enabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/up", healthCheckHandler(c))

	requireAuth := middleware.AuthMiddleware(c.UserService)
	optionalAuth := middleware.OptionalAuthMiddleware(c.UserService)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))
		v1.POST("/graphql", optionalAuth, c.GraphQLHandler.Serve)

		setupAuthRoutes(v1, c, requireAuth)
		setupAuthorRoutes(v1, c, requireAuth, optionalAuth)
		setupMaterialRoutes(v1, c, requireAuth, optionalAuth)
		setupSubtypeRoutes(v1, c, requireAuth, optionalAuth)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container, requireAuth gin.HandlerFunc) {
	auth := v1.Group("/autenticacao")
	{
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/registrar", c.UserHandler.Register)
		auth.POST("/logout", requireAuth, c.UserHandler.Logout)
		auth.GET("/perfil", requireAuth, c.UserHandler.GetProfile)
		auth.PUT("/perfil", requireAuth, c.UserHandler.UpdateProfile)
		auth.GET("/validar_token", requireAuth, c.UserHandler.ValidateToken)
	}
}

// ========================================
// AUTHOR ROUTES
// ========================================
func setupAuthorRoutes(v1 *gin.RouterGroup, c *container.Container, requireAuth, optionalAuth gin.HandlerFunc) {
	authors := v1.Group("/autores")
	{
		authors.GET("", c.AuthorHandler.List)
		authors.GET("/:id", c.AuthorHandler.GetByID)
		authors.GET("/:id/materials", optionalAuth, c.MaterialHandler.ListByAuthor)
		authors.POST("", requireAuth, c.AuthorHandler.Create)
		authors.PUT("/:id", requireAuth, c.AuthorHandler.Update)
		authors.DELETE("/:id", requireAuth, c.AuthorHandler.Delete)
	}
}

// ========================================
// MATERIAL ROUTES
// ========================================
func setupMaterialRoutes(v1 *gin.RouterGroup, c *container.Container, requireAuth, optionalAuth gin.HandlerFunc) {
	materials := v1.Group("/materials")
	{
		materials.GET("", c.MaterialHandler.List)
		materials.GET("/:id", optionalAuth, c.MaterialHandler.Get)
		materials.GET("/:id/detalhes", c.MaterialHandler.Details)
		materials.POST("", requireAuth, c.MaterialHandler.Create)
		materials.PUT("/:id", requireAuth, c.MaterialHandler.Update)
		materials.DELETE("/:id", requireAuth, c.MaterialHandler.Delete)
	}

	v1.GET("/buscar", c.MaterialHandler.Search)
	v1.GET("/estatisticas", c.MaterialHandler.Statistics)
}

// ========================================
// BOOK / ARTICLE / VIDEO ROUTES
// ========================================
func setupSubtypeRoutes(v1 *gin.RouterGroup, c *container.Container, requireAuth, optionalAuth gin.HandlerFunc) {
	books := v1.Group("/livros")
	{
		books.GET("", c.BookHandler.List)
		books.GET("/:id", optionalAuth, c.BookHandler.Get)
		books.GET("/buscar_isbn/:isbn", c.BookHandler.LookupISBN)
		books.GET("/isbn/:isbn", optionalAuth, c.BookHandler.FindByISBN)
		books.POST("", requireAuth, c.BookHandler.Create)
		books.PUT("/:id", requireAuth, c.BookHandler.Update)
		books.DELETE("/:id", requireAuth, c.BookHandler.Delete)
	}

	articles := v1.Group("/artigos")
	{
		articles.GET("", c.ArticleHandler.List)
		articles.GET("/:id", optionalAuth, c.ArticleHandler.Get)
		articles.GET("/doi/*doi", optionalAuth, c.ArticleHandler.FindByDOI)
		articles.POST("", requireAuth, c.ArticleHandler.Create)
		articles.PUT("/:id", requireAuth, c.ArticleHandler.Update)
		articles.DELETE("/:id", requireAuth, c.ArticleHandler.Delete)
	}

	videos := v1.Group("/videos")
	{
		videos.GET("", c.VideoHandler.List)
		videos.GET("/estatisticas", c.VideoHandler.VideoStats)
		videos.GET("/:id", optionalAuth, c.VideoHandler.Get)
		videos.POST("", requireAuth, c.VideoHandler.Create)
		videos.PUT("/:id", requireAuth, c.VideoHandler.Update)
		videos.DELETE("/:id", requireAuth, c.VideoHandler.Delete)
	}
}

// ========================================
// HEALTH
// ========================================

// healthCheckHandler reports 503 when the database is unreachable. Cache
// failures only degrade the status.
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := gin.H{"status": "ok"}
		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus["status"] = "error"
			dbStatus["error"] = err.Error()
			health["status"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else if stats, err := appCtx.DB.Stats(); err == nil {
			dbStatus["total_conns"] = stats.TotalConns
			dbStatus["idle_conns"] = stats.IdleConns
			dbStatus["utilization_pct"] = stats.Utilization()
		}

		cacheStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = "error: " + err.Error()
			if status == http.StatusOK {
				health["status"] = "degraded"
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"cache":    cacheStatus,
		}
		c.JSON(status, health)
	}
}
