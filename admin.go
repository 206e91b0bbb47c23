package biolink

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "admin_session"

// isAdmin reports whether the request carries an authenticated admin
// session. The boolean flag is the only capability the session holds.
func isAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	admin, ok := sess.Values["admin"].(bool)
	return ok && admin
}

func setAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["admin"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, "admin")
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

// handleLogin exchanges the shared admin secret for an admin session.
// A missing password is a bad request; a wrong one is unauthorized with
// a message that reveals nothing about which check failed.
func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many login attempts. Try again later."})
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password is required"})
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Wrong password"})
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// handleContentSave merge-upserts the content document. Admin only; a
// denied request performs no mutation at all.
func (a *App) handleContentSave(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
	}
	var patch ContentPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := a.store.MergeContent(c.Request().Context(), patch); err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
