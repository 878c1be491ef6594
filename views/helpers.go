package views

import (
	"encoding/json"
	"strings"

	"github.com/eringen/spacetraveling/posts"
)

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	return jsonLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post posts.Detail) string {
	postURL := buildURL(cfg.URL, "post", post.UID)
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": post.Title,
		"url":      postURL,
		"author": map[string]string{
			"@type": "Person",
			"name":  post.Author,
		},
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.Subtitle != "" {
		data["description"] = post.Subtitle
	}
	if post.BannerURL != "" {
		data["image"] = post.BannerURL
	}
	if d := posts.ISODate(post.FirstPublicationDate); d != "" {
		data["datePublished"] = d
	}
	if d := posts.ISODate(post.LastPublicationDate); d != "" {
		data["dateModified"] = d
	}
	return jsonLD(data)
}

func jsonLD(data map[string]interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	// json.Marshal escapes <, > and & already; this guards the closing tag
	// should that ever change.
	return strings.ReplaceAll(string(b), "</", `<\/`)
}
