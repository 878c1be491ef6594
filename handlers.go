package spacetraveling

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/metrics"
	"github.com/eringen/spacetraveling/pages"
	"github.com/eringen/spacetraveling/views"
)

const loadMoreFailed = "Não foi possível carregar mais posts. Tente novamente."

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	first, err := a.Home.FirstPage(ctx)
	if err != nil {
		return contentError(err)
	}
	id, err := a.Listings.Start(ctx, first)
	if err != nil {
		return err
	}
	if err := setListingSession(c, id); err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.viewConfig(), a.homeMeta(), a.homeData(c, first, "")))
}

// handleLoadMore appends the next page to the viewer's listing. htmx requests
// get only the list section back; plain form posts get the whole page.
func (a *App) handleLoadMore(c echo.Context) error {
	ctx := c.Request().Context()
	st, err := a.Listings.LoadMore(ctx, listingSessionID(c))

	code := http.StatusOK
	notice := ""
	switch {
	case err == nil:
		metrics.RecordLoadMore("ok")
	case errors.Is(err, listing.ErrSessionNotFound):
		metrics.RecordLoadMore("expired")
		if IsHTMX(c) {
			c.Response().Header().Set("HX-Redirect", "/")
			return c.NoContent(http.StatusOK)
		}
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, listing.ErrLoadInFlight):
		metrics.RecordLoadMore("in_flight")
		if IsHTMX(c) {
			return c.NoContent(http.StatusConflict)
		}
		code = http.StatusConflict
	case errors.Is(err, listing.ErrExhausted):
		metrics.RecordLoadMore("exhausted")
	default:
		metrics.RecordLoadMore("error")
		c.Logger().Errorf("load more: %v", err)
		notice = loadMoreFailed
		// htmx only swaps successful responses; the notice must still show.
		if !IsHTMX(c) {
			code = http.StatusBadGateway
		}
	}

	data := a.homeData(c, st, notice)
	if IsHTMX(c) {
		return RenderStatus(c, code, a.Views.ListSection(data))
	}
	return RenderStatus(c, code, a.Views.Home(a.viewConfig(), a.homeMeta(), data))
}

func (a *App) handlePost(c echo.Context) error {
	uid := c.Param("slug")
	page := a.Pages.Get(c.Request().Context(), uid)
	cfg := a.viewConfig()

	switch page.State {
	case pages.StateReady:
		post := page.Post
		meta := views.PageMeta{
			Title:       views.PageTitle(cfg, post.Title),
			Description: post.Subtitle,
			URL:         BuildURL(a.Config.URL, "post", post.UID),
			OGType:      "article",
			Image:       post.BannerURL,
		}
		data := views.PostData{Post: post, ReadingTime: post.ReadingTime(), BannerSrc: BannerPath(post.UID)}
		return Render(c, a.Views.Post(cfg, meta, data))
	case pages.StateLoading:
		c.Response().Header().Set("Cache-Control", "no-store")
		return RenderStatus(c, http.StatusAccepted, a.Views.Loading(cfg, uid, a.Config.LoadingRefresh))
	case pages.StateNotFound:
		return echo.NewHTTPError(http.StatusNotFound)
	default:
		return contentError(page.Err)
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	feed, err := a.Home.Feed(c.Request().Context())
	if err != nil {
		return contentError(err)
	}
	return a.renderSitemap(c, feed)
}

func (a *App) handleFeed(c echo.Context) error {
	feed, err := a.Home.Feed(c.Request().Context())
	if err != nil {
		return contentError(err)
	}
	return a.renderRSS(c, feed)
}

func handlePostIndexRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\nDisallow: /api/\n")
	b.WriteString("Sitemap: " + strings.TrimRight(a.Config.URL, "/") + "/sitemap.xml\n")
	return c.String(http.StatusOK, b.String())
}

func (a *App) homeMeta() views.PageMeta {
	cfg := a.viewConfig()
	return views.PageMeta{
		Title:       views.PageTitle(cfg, "Posts"),
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
	}
}

func (a *App) homeData(c echo.Context, st listing.State, notice string) views.HomeData {
	return views.HomeData{
		Posts:     st.Posts,
		HasMore:   st.HasMore(),
		CSRFToken: CsrfToken(c),
		Notice:    notice,
	}
}

// contentError reports a CMS failure as 502 so the error page explains that
// content could not be loaded.
func contentError(err error) error {
	if err == nil {
		err = errors.New("content unavailable")
	}
	return echo.NewHTTPError(http.StatusBadGateway).SetInternal(err)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		c.Response().Header().Set("Cache-Control", "no-store")
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.viewConfig()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		c.Response().Header().Set("Cache-Control", "no-store")
		_ = RenderStatus(c, code, a.Views.ServerError(a.viewConfig()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
