package spacetraveling

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/posts"
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

func (a *App) renderSitemap(c echo.Context, feed []FeedEntry) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
	}
	for _, p := range feed {
		lastMod := posts.ISODate(p.Updated)
		if lastMod == "" {
			lastMod = posts.ISODate(p.FirstPublicationDate)
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "post", p.UID),
			LastMod: lastMod,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
