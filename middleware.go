package biolink

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/baeci/biolink/activity"
)

func (a *App) setupMiddleware(e *echo.Echo) {
	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			a.Logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Gzip would buffer SSE frames indefinitely, so the stream endpoint
	// is exempt.
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/activity-stream"
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(noStoreMiddleware)
	e.Use(a.activityTap)
}

// noStoreMiddleware disables intermediary and browser caching on every
// response. The content document changes out-of-band from any asset
// fingerprinting, so nothing here is safely cacheable.
func noStoreMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		return next(c)
	}
}

// activityTap publishes an event for every completed mutation-class API
// request. It runs after the handler so it reflects the actual call,
// and never blocks or fails the primary response.
func (a *App) activityTap(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)

		req := c.Request()
		path := req.URL.Path
		if req.Method != http.MethodGet &&
			strings.HasPrefix(path, "/api/") &&
			path != "/api/login" &&
			path != "/api/activity-stream" {
			a.broadcaster.Publish(activity.Event{
				Method:    req.Method,
				Path:      path,
				Details:   "API Request Processed",
				Timestamp: time.Now().UTC(),
			})
		}
		return err
	}
}

const sessionMaxAge = 24 * 60 * 60 // 24 hours

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   sessionMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// httpErrorHandler maps errors to structured JSON on the API surface
// and falls back to echo's default elsewhere. Storage failures stay
// generic: clients get a 500-class error, never driver detail.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "Internal Server Error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = c.JSON(code, echo.Map{"error": message})
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
