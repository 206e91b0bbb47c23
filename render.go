package biolink

import (
	"context"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// CustomPageShell wraps an operator-authored HTML fragment in a minimal
// standalone document with a back-to-home link. The fragment is trusted
// and intentionally unescaped; only the title is escaped.
func CustomPageShell(page CustomPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := html.EscapeString(page.Title)
		if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n<title>"+title+"</title>\n</head>\n<body>\n"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, page.HTMLCode); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n<p><a href=\"/\">&larr; Back to home</a></p>\n</body>\n</html>\n")
		return err
	})
}
