package http

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/threadline/internal/logging"
	"github.com/sujalbistaa/threadline/internal/remote"
	"github.com/sujalbistaa/threadline/internal/store"
	"github.com/sujalbistaa/threadline/internal/ws"
)

const (
	commentBurst      = 5
	limiterPruneEvery = 10 * time.Minute
)

// Options holds everything SetupRoutes needs besides the router.
type Options struct {
	Store          *store.PostStore
	Hub            *ws.Hub
	AdminToken     string
	CORSOrigin     string
	CommentsPerMin int
	Logger         *zap.Logger
}

// SetupRoutes configures all application routes and middleware. The limiter
// pruning goroutine stops when ctx is done.
func SetupRoutes(ctx context.Context, router *gin.Engine, opts Options) {
	logger := logging.OrNop(opts.Logger)

	// --- Dependencies ---
	env := &Env{Store: opts.Store, Logger: logger}
	if opts.Hub != nil {
		env.Events = opts.Hub
	}

	// --- Middleware ---
	router.Use(LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := opts.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", remote.AdminTokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: corsOrigin != "*",
	}))

	// --- Rate Limiter Setup ---
	perMin := opts.CommentsPerMin
	if perMin <= 0 {
		perMin = 20
	}
	limiter := NewIPRateLimiter(rate.Every(time.Minute/time.Duration(perMin)), commentBurst)
	go func() {
		ticker := time.NewTicker(limiterPruneEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Prune(limiterPruneEvery)
			}
		}
	}()

	admin := AdminAuthMiddleware(opts.AdminToken)

	// --- API Routes ---
	// Mounted at the root, which is what clients use, and under /api.
	for _, group := range []*gin.RouterGroup{&router.RouterGroup, router.Group("/api")} {
		group.GET("/posts", env.GetPosts)
		group.POST("/posts", admin, env.CreatePost)
		group.DELETE("/posts/:id", admin, env.DeletePost)
		group.POST("/posts/:id/comments", RateLimitMiddleware(limiter), env.AddComment)
		group.DELETE("/posts/:id/comments/:commentId", admin, env.DeleteComment)
	}

	router.GET("/healthz", env.Health)

	// --- WebSocket Route ---
	if opts.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			ws.ServeWs(opts.Hub, c.Writer, c.Request)
		})
	}
}
