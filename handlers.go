package biolink

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleContentGet returns the content document, or the built-in
// default when none has been saved yet. Reads go straight to the store
// so the admin panel always edits fresh data.
func (a *App) handleContentGet(c echo.Context) error {
	doc, err := a.store.GetContent(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Paths that can never resolve to a custom page.
var reservedRoutes = map[string]struct{}{
	"api":       {},
	"dashboard": {},
	"dbadmin":   {},
}

// handleSlug resolves a single-segment path against the custom pages.
// Reserved names and extension-bearing segments go to the static dir;
// no match falls through to the SPA shell.
func (a *App) handleSlug(c echo.Context) error {
	slug := c.Param("slug")
	if _, reserved := reservedRoutes[slug]; reserved || strings.Contains(slug, ".") {
		return a.serveStatic(c, slug)
	}

	doc, err := a.cache.Content(c.Request().Context())
	if err != nil {
		// A broken store must not take down public page views.
		a.Logger.Error("resolve custom page", zap.String("slug", slug), zap.Error(err))
		return a.serveShell(c)
	}

	page, ok := doc.FindPage(slug)
	if !ok {
		return a.serveShell(c)
	}
	if page.Type == PageTypeURL {
		return c.Redirect(http.StatusFound, page.URL)
	}
	return Render(c, CustomPageShell(page))
}

func (a *App) handleShell(c echo.Context) error {
	return a.serveShell(c)
}

func (a *App) handleDashboard(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "dashboard.html"))
}

func (a *App) handleDBAdmin(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "dbadmin.html"))
}

// serveStatic serves a root-level asset from the static dir, falling
// back to the shell when the file does not exist (soft 404, handled
// client-side).
func (a *App) serveStatic(c echo.Context, name string) error {
	path := filepath.Join(a.Config.StaticDir, filepath.Base(name))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return c.File(path)
	}
	return a.serveShell(c)
}

func (a *App) serveShell(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "index.html"))
}
