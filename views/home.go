package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/posts"
)

// LoadMorePath is where the listing posts "load more" requests.
const LoadMorePath = "/posts/more/"

// LoadMoreLabel is the text of the load-more button.
const LoadMoreLabel = "Carregar mais posts"

// Home renders the full listing page.
func Home(cfg SiteConfig, meta PageMeta, data HomeData) templ.Component {
	body := component(func(h *htmlWriter) {
		h.raw(`<main class="content-container">`)
		h.render(ListSection(data))
		h.raw(`</main>`)
	})
	return Layout(cfg, meta, WebsiteJsonLD(cfg), body)
}

// ListSection renders the swappable part of the listing: the posts, the
// failure notice and the load-more button while more pages exist.
func ListSection(data HomeData) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section id="posts" class="posts">`)
		for _, p := range data.Posts {
			h.render(ListItem(p))
		}
		if data.Notice != "" {
			h.raw(`<p class="notice" role="alert">`)
			h.text(data.Notice)
			h.raw(`</p>`)
		}
		if data.HasMore {
			h.raw(`<form method="post"`)
			h.attr("action", LoadMorePath)
			h.attr("hx-post", LoadMorePath)
			h.raw(` hx-target="#posts" hx-swap="outerHTML" hx-disabled-elt="find button">`)
			h.raw(`<input type="hidden" name="_csrf"`)
			h.attr("value", data.CSRFToken)
			h.raw(`/><button type="submit" class="load-more">`)
			h.text(LoadMoreLabel)
			h.raw(`</button></form>`)
		}
		h.raw(`</section>`)
	})
}

// ListItem renders one post summary linking to its detail page.
func ListItem(p posts.Summary) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="post"`)
		h.attr("data-uid", p.UID)
		h.raw(`><a`)
		h.attr("href", PostPath(p.UID))
		h.raw(`><h1>`)
		h.text(p.Title)
		h.raw(`</h1><p>`)
		h.text(p.Subtitle)
		h.raw(`</p><div class="infos"><div>`)
		h.raw(iconCalendar)
		h.raw(`<time`)
		h.attr("datetime", posts.ISODate(p.FirstPublicationDate))
		h.raw(`>`)
		h.text(posts.FormatDate(p.FirstPublicationDate))
		h.raw(`</time></div><div>`)
		h.raw(iconUser)
		h.raw(`<span>`)
		h.text(p.Author)
		h.raw(`</span></div></div></a></div>`)
	})
}
