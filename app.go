// Package spacetraveling is a server-rendered blog front-end built with Go,
// Echo, and templ. Posts live in a headless CMS; the listing page grows with
// "load more" and detail pages are built on demand and kept fresh.
//
// Sites can replace any page through the ViewFuncs struct; spacetraveling
// handles the handler logic, middleware, caching and CMS access.
package spacetraveling

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/pages"
	"github.com/eringen/spacetraveling/prismic"
)

// App is the central spacetraveling application. It wires together the CMS
// client, caches, page generator, handlers, middleware, and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Views    ViewFuncs
	CMS      *prismic.Client
	Store    *Store
	Home     *HomeCache
	Pages    *pages.Generator
	Listings *listing.Manager
	Banners  *BannerOptimizer

	loadMoreLimiter *IPLimiter
	snapshots       pages.Snapshots
	httpClient      *http.Client
	logger          *slog.Logger
	customRoutes    []func(*App)
	staticDir       string
	closers         []func() error
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	views.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		logger:    slog.Default(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init builds the CMS client, stores, caches, middleware and routes without
// starting the server.
func (a *App) Init() error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	cms, err := prismic.New(prismic.Config{
		Endpoint:          a.Config.PrismicEndpoint,
		AccessToken:       a.Config.PrismicAccessToken,
		Timeout:           a.Config.CMSTimeout,
		RequestsPerSecond: a.Config.CMSRequestsPerSecond,
		HTTPClient:        a.httpClient,
		Logger:            a.logger,
	})
	if err != nil {
		return fmt.Errorf("spacetraveling: init cms client: %w", err)
	}
	a.CMS = cms

	if a.snapshots == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("spacetraveling: init store: %w", err)
		}
		a.Store = store
		a.snapshots = store
		a.closers = append(a.closers, store.Close)
	}

	a.Home = NewHomeCache(cms, a.Config.DocumentType, a.Config.PageSize, a.Config.FeedSize, a.Config.HomeCacheTTL)

	gen, err := pages.New(pages.Config{
		Builder:         pages.FromSource(cms, a.Config.DocumentType),
		Snapshots:       a.snapshots,
		RevalidateAfter: a.Config.RevalidateAfter,
		FallbackWait:    a.Config.FallbackWait,
		FailureTTL:      a.Config.FailedBuildTTL,
		BuildTimeout:    a.Config.CMSTimeout + 5*time.Second,
		Logger:          a.logger,
	})
	if err != nil {
		return fmt.Errorf("spacetraveling: init pages: %w", err)
	}
	a.Pages = gen
	stopSweep := gen.StartSweeper(time.Minute)
	a.closers = append(a.closers, func() error {
		stopSweep()
		return nil
	})

	sessions, err := a.newListingStore()
	if err != nil {
		return err
	}
	a.Listings = listing.NewManager(sessions, cms)

	banners, err := NewBannerOptimizer(a.httpClient, a.Config.BannerMaxWidth, a.Config.BannerCacheSize)
	if err != nil {
		return fmt.Errorf("spacetraveling: init banners: %w", err)
	}
	a.Banners = banners

	a.loadMoreLimiter = NewIPLimiter(a.Config.LoadMoreRate, a.Config.LoadMoreBurst, 5*time.Minute)
	a.closers = append(a.closers, func() error {
		a.loadMoreLimiter.Close()
		return nil
	})

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) newListingStore() (listing.Store, error) {
	if a.Config.RedisURL != "" {
		rs, err := listing.NewRedisStore(a.Config.RedisURL, a.Config.RedisPrefix, a.Config.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("spacetraveling: init redis: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	}
	ms := listing.NewMemoryStore(a.Config.SessionTTL)
	stop := ms.StartSweeper(max(a.Config.SessionTTL/2, time.Minute))
	a.closers = append(a.closers, func() error {
		stop()
		return nil
	})
	return ms, nil
}

// Start initializes the app, builds the configured pages, and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}

	if uids := FilterEmpty(a.Config.PrebuildUIDs); len(uids) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := a.Pages.Prebuild(ctx, uids)
		cancel()
		if err != nil {
			a.Echo.Logger.Warnf("prebuild: %v", err)
		} else {
			a.Echo.Logger.Infof("prebuilt %d pages", len(uids))
		}
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework stylesheet, then the site's own static assets.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/style.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.POST("/posts/more/", a.handleLoadMore, a.loadMoreLimiter.Middleware())
	e.GET("/post", handlePostIndexRedirect)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/post/:slug/banner.jpg", a.handleBanner)

	e.POST("/api/revalidate", a.handleRevalidate)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
