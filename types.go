package spacetraveling

import (
	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/views"
)

// ViewFuncs holds the templ components the handlers render. Any nil field
// falls back to the matching component of the views package, so a site can
// replace only the pages it wants to own.
type ViewFuncs struct {
	Home        func(cfg views.SiteConfig, meta views.PageMeta, data views.HomeData) templ.Component
	ListSection func(data views.HomeData) templ.Component
	Post        func(cfg views.SiteConfig, meta views.PageMeta, data views.PostData) templ.Component
	Loading     func(cfg views.SiteConfig, uid string, refresh int) templ.Component
	NotFound    func(cfg views.SiteConfig) templ.Component
	ServerError func(cfg views.SiteConfig) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.Home
	}
	if v.ListSection == nil {
		v.ListSection = views.ListSection
	}
	if v.Post == nil {
		v.Post = views.Post
	}
	if v.Loading == nil {
		v.Loading = views.Loading
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}
