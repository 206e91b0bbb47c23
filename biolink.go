// Package biolink is a personal biolink landing page server: one
// admin-editable content document in MongoDB rendered by a static SPA,
// custom sub-pages resolved by slug, and a live activity dashboard fed
// over Server-Sent Events.
package biolink

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/baeci/biolink/activity"
)

// App is the central application. It wires together the content store,
// cache, session gate, activity broadcaster, and HTTP routes.
type App struct {
	Config Config
	Echo   *echo.Echo
	Logger *zap.Logger

	store       ContentStore
	mongo       *Store
	cache       *contentCache
	broadcaster *activity.Broadcaster

	loginLimiter *LoginLimiter
}

// New creates an App with the given configuration. The activity
// broadcaster and login limiter start their background goroutines here;
// the store connects in Start.
func New(cfg Config, logger *zap.Logger) *App {
	return &App{
		Config:       cfg,
		Logger:       logger,
		broadcaster:  activity.NewBroadcaster(logger.Named("activity"), activity.DefaultReapInterval),
		loginLimiter: NewLoginLimiter(5, time.Minute),
	}
}

// Start connects the store and serves HTTP until the server stops.
func (a *App) Start(ctx context.Context) error {
	store, err := NewStore(ctx, a.Config.MongoURI, a.Config.MongoDB)
	if err != nil {
		return fmt.Errorf("biolink: init store: %w", err)
	}
	a.mongo = store
	a.store = store
	a.cache = newContentCache(store, a.Config.ContentCacheTTL)

	e := a.buildServer()
	a.Logger.Info("server starting", zap.String("addr", a.Config.Addr))
	if err := e.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// buildServer assembles the echo instance with all middleware and
// routes. Split from Start so tests can serve against fake stores.
func (a *App) buildServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = a.httpErrorHandler
	a.Echo = e

	a.setupMiddleware(e)
	a.setupRoutes(e)
	return e
}

func (a *App) setupRoutes(e *echo.Echo) {
	// API surface. Paths are fixed; the SPA depends on them.
	e.GET("/api/content", a.handleContentGet)
	e.POST("/api/content", a.handleContentSave)
	e.POST("/api/login", a.handleLogin)
	e.POST("/api/logout", a.handleLogout)
	e.GET("/api/activity-stream", activity.NewHandler(a.broadcaster).Stream)

	e.GET("/api/images", a.handleImageList)
	e.POST("/api/images", a.handleImageUpload)
	e.DELETE("/api/images/:filename", a.handleImageDelete)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/robots.txt", a.handleRobots)

	// Reserved pages served as plain files.
	e.GET("/dashboard", a.handleDashboard)
	e.GET("/dbadmin", a.handleDBAdmin)

	// Everything else: custom page resolution, then the SPA shell.
	e.GET("/", a.handleShell)
	e.GET("/:slug", a.handleSlug)
	e.GET("/*", a.handleShell)
}

// Close tears down background resources: the broadcaster drops all
// live streams and the store disconnects.
func (a *App) Close(ctx context.Context) error {
	a.broadcaster.Close()
	if a.mongo != nil {
		return a.mongo.Close(ctx)
	}
	return nil
}
