package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"digital-library-backend/internal/config"
	infraCache "digital-library-backend/internal/infrastructure/cache"
	"digital-library-backend/internal/infrastructure/database"
	"digital-library-backend/internal/infrastructure/openlibrary"
	"digital-library-backend/pkg/cache"
	pkgdb "digital-library-backend/pkg/database"
	"digital-library-backend/pkg/jwt"

	"digital-library-backend/internal/domains/author"
	authorHandler "digital-library-backend/internal/domains/author/handler"
	authorRepo "digital-library-backend/internal/domains/author/repository"
	authorService "digital-library-backend/internal/domains/author/service"

	"digital-library-backend/internal/domains/material"
	materialHandler "digital-library-backend/internal/domains/material/handler"
	materialRepo "digital-library-backend/internal/domains/material/repository"
	materialService "digital-library-backend/internal/domains/material/service"

	"digital-library-backend/internal/domains/user"
	userHandler "digital-library-backend/internal/domains/user/handler"
	userRepo "digital-library-backend/internal/domains/user/repository"
	userService "digital-library-backend/internal/domains/user/service"

	"digital-library-backend/internal/graphql"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Every component is a
// singleton for the lifetime of the process.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	Transactor  pkgdb.Transactor
	OpenLibrary *openlibrary.Client

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	UserRepo     user.Repository
	AuthorRepo   author.Repository
	MaterialRepo material.Repository

	// ========================================
	// SERVICE LAYER
	// ========================================
	UserService     user.Service
	AuthorService   author.Service
	MaterialService material.Service

	// ========================================
	// HANDLER LAYER
	// ========================================
	UserHandler     *userHandler.UserHandler
	AuthorHandler   *authorHandler.AuthorHandler
	MaterialHandler *materialHandler.MaterialHandler
	BookHandler     *materialHandler.SubtypeHandler
	ArticleHandler  *materialHandler.SubtypeHandler
	VideoHandler    *materialHandler.SubtypeHandler
	GraphQLHandler  *graphql.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the graph in dependency order:
// config, infrastructure, repositories, services, handlers.
func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI container")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	c.Transactor = pkgdb.NewTransactor(db.Pool)
	log.Info().Msg("Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	c.Cache = c.initCache(ctx)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	c.OpenLibrary = openlibrary.NewClient(openlibrary.Config{
		Enabled:  cfg.OpenLibrary.Enabled,
		BaseURL:  cfg.OpenLibrary.BaseURL,
		Timeout:  cfg.OpenLibrary.Timeout,
		CacheTTL: cfg.Cache.LookupTTL,
	}, c.Cache)

	// ========================================
	// STEP 4-6: REPOSITORIES, SERVICES, HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	if err := c.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	log.Info().Msg("DI container initialized")
	return c, nil
}

// initCache prefers Redis and falls back to the in-process cache when Redis
// is disabled or unreachable.
func (c *Container) initCache(ctx context.Context) cache.Cache {
	if !c.Config.Redis.Enabled {
		log.Info().Msg("Redis disabled, using in-memory cache")
		return cache.NewMemoryCache()
	}

	rc := infraCache.NewRedisCache(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := rc.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis connection failed (non-critical), using in-memory cache")
		_ = rc.Close()
		return cache.NewMemoryCache()
	}

	log.Info().Str("host", c.Config.Redis.Host).Msg("Redis connected")
	return rc
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool, c.Cache)
	c.AuthorRepo = authorRepo.NewPostgresRepository(pool)
	c.MaterialRepo = materialRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)
	c.AuthorService = authorService.NewAuthorService(c.AuthorRepo, c.Cache)

	// The author service doubles as the resolver for ISBN-enriched books.
	c.MaterialService = materialService.NewMaterialService(
		c.MaterialRepo,
		c.Transactor,
		c.AuthorService,
		c.OpenLibrary,
		c.Cache,
		c.Config.Cache.StatsTTL,
	)
}

func (c *Container) initHandlers() error {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.AuthorHandler = authorHandler.NewAuthorHandler(c.AuthorService)
	c.MaterialHandler = materialHandler.NewMaterialHandler(c.MaterialService, c.AuthorService)
	c.BookHandler = materialHandler.NewBookHandler(c.MaterialService)
	c.ArticleHandler = materialHandler.NewArticleHandler(c.MaterialService)
	c.VideoHandler = materialHandler.NewVideoHandler(c.MaterialService)

	schema, err := graphql.NewSchema(c.MaterialService, c.AuthorService)
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}
	c.GraphQLHandler = graphql.NewHandler(schema)

	return nil
}

// Cleanup releases pooled connections. Called once during shutdown.
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}
}
