package biolink

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// handleSitemap lists the landing page and every active custom page.
func (a *App) handleSitemap(c echo.Context) error {
	doc, err := a.cache.Content(c.Request().Context())
	if err != nil {
		return err
	}

	base := a.Config.SiteURL
	urls := []sitemapURL{{Loc: base + "/"}}
	lastMod := ""
	if !doc.UpdatedAt.IsZero() {
		lastMod = doc.UpdatedAt.UTC().Format("2006-01-02")
	}
	for _, p := range doc.CustomPages {
		if p.Status != PageStatusActive || p.Slug == "" {
			continue
		}
		urls = append(urls, sitemapURL{Loc: buildURL(base, p.Slug), LastMod: lastMod})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

// handleRobots keeps crawlers off the admin surfaces.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /dbadmin\nDisallow: /dashboard\n\nSitemap: %s/sitemap.xml\n", a.Config.SiteURL)
	return c.String(http.StatusOK, body)
}

// buildURL joins a base URL with path segments.
func buildURL(base string, segments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(segments...))
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}
