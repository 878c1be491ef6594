package spacetraveling

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

func (a *App) renderRSS(c echo.Context, feed []FeedEntry) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(feed))
	for _, p := range feed {
		pubDate := ""
		if t := p.FirstPublicationDate; t != nil {
			pubDate = t.Format(time.RFC1123Z)
		} else if p.Updated != nil {
			pubDate = p.Updated.Format(time.RFC1123Z)
		}
		postURL := BuildURL(base, "post", p.UID)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Subtitle,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}
	doc := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Language:    "pt-BR",
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(doc)
}
