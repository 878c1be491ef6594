package views

import "github.com/eringen/spacetraveling/posts"

// SiteConfig holds site-wide settings populated from environment variables.
// Every handler passes this to templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "spacetraveling")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image
	Refresh     int    // seconds; adds a meta refresh when > 0
}

// HomeData is what the listing page shows.
type HomeData struct {
	Posts     []posts.Summary
	HasMore   bool
	CSRFToken string
	Notice    string // shown above the button after a failed load
}

// PostData is what the detail page shows.
type PostData struct {
	Post        posts.Detail
	ReadingTime int
	BannerSrc   string // defaults to Post.BannerURL
}
