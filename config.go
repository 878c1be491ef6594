package spacetraveling

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/eringen/spacetraveling/pages"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "spacetraveling")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Publisher name for JSON-LD

	Addr         string `env:"ADDR"`          // Listen address (default ":3000")
	DatabasePath string `env:"DATABASE_PATH"` // SQLite path for page snapshots (default "data/pages.db")

	PrismicEndpoint      string        `env:"PRISMIC_API_ENDPOINT"`    // Required: CMS API root
	PrismicAccessToken   string        `env:"PRISMIC_ACCESS_TOKEN"`    // Optional CMS token
	DocumentType         string        `env:"PRISMIC_DOCUMENT_TYPE"`   // Document type holding posts (default "posts")
	CMSRequestsPerSecond float64       `env:"CMS_REQUESTS_PER_SECOND"` // Outbound throttle (default 10)
	CMSTimeout           time.Duration `env:"CMS_TIMEOUT"`             // Per request (default 10s)

	PageSize int `env:"PAGE_SIZE"` // Posts per listing page (default 1)
	FeedSize int `env:"FEED_SIZE"` // Posts in RSS and sitemap (default 20)

	HomeCacheTTL    time.Duration `env:"HOME_CACHE_TTL"`                 // First listing page cache (default 1min)
	RevalidateAfter time.Duration `env:"REVALIDATE_AFTER"`               // Detail page freshness window (default 30min)
	FallbackWait    time.Duration `env:"FALLBACK_WAIT"`                  // Wait for an on-demand build before showing the placeholder
	PrebuildUIDs    []string      `env:"PREBUILD_UIDS" envSeparator:","` // Pages built at startup
	FailedBuildTTL  time.Duration `env:"FAILED_BUILD_TTL"`               // How long a failed page build is shown before retrying (default 10s)
	LoadingRefresh  int           `env:"LOADING_REFRESH_SECONDS"`        // Placeholder auto-refresh (default 2)
	SessionTTL      time.Duration `env:"LISTING_SESSION_TTL"`            // Listing session lifetime (default 30min)
	LoadMoreRate    float64       `env:"LOAD_MORE_PER_SECOND"`           // Per-IP load-more rate (default 2)
	LoadMoreBurst   int           `env:"LOAD_MORE_BURST"`                // Per-IP load-more burst (default 5)
	BannerMaxWidth  int           `env:"BANNER_MAX_WIDTH"`               // Optimized banner width (default 1440)
	BannerCacheSize int           `env:"BANNER_CACHE_SIZE"`              // Optimized banners kept in memory (default 64)
	RedisURL        string        `env:"REDIS_URL"`                      // Optional shared listing session store
	RedisPrefix     string        `env:"REDIS_PREFIX"`                   // Key prefix (default "spacetraveling:")
	RevalidateToken string        `env:"REVALIDATE_SECRET"`              // Enables POST /api/revalidate
	SessionSecret   string        `env:"SESSION_SECRET"`                 // Required: session encryption secret
	CookieSecure    bool          `env:"COOKIE_SECURE"`                  // Set true for HTTPS
}

// LoadConfig reads a SiteConfig from the environment.
func LoadConfig() (SiteConfig, error) {
	cfg, err := env.ParseAs[SiteConfig]()
	if err != nil {
		return SiteConfig{}, fmt.Errorf("spacetraveling: parse config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.DocumentType == "" {
		c.DocumentType = "posts"
	}
	if c.CMSRequestsPerSecond == 0 {
		c.CMSRequestsPerSecond = 10
	}
	if c.CMSTimeout == 0 {
		c.CMSTimeout = 10 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 1
	}
	if c.FeedSize <= 0 {
		c.FeedSize = 20
	}
	if c.HomeCacheTTL == 0 {
		c.HomeCacheTTL = time.Minute
	}
	if c.RevalidateAfter == 0 {
		c.RevalidateAfter = 30 * time.Minute
	}
	if c.FailedBuildTTL <= 0 {
		c.FailedBuildTTL = 10 * time.Second
	}
	if c.LoadingRefresh <= 0 {
		c.LoadingRefresh = 2
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.LoadMoreRate == 0 {
		c.LoadMoreRate = 2
	}
	if c.LoadMoreBurst <= 0 {
		c.LoadMoreBurst = 5
	}
	if c.BannerMaxWidth <= 0 {
		c.BannerMaxWidth = 1440
	}
	if c.BannerCacheSize <= 0 {
		c.BannerCacheSize = 64
	}
	if c.RedisPrefix == "" {
		c.RedisPrefix = "spacetraveling:"
	}
}

func (c SiteConfig) validate() error {
	if c.PrismicEndpoint == "" {
		return fmt.Errorf("spacetraveling: PrismicEndpoint is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("spacetraveling: SessionSecret is required")
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithSnapshots replaces the SQLite page snapshot store.
func WithSnapshots(s pages.Snapshots) Option {
	return func(a *App) {
		a.snapshots = s
	}
}

// WithHTTPClient sets the client used for CMS and banner requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// WithLogger sets the logger used by the CMS client and page generator.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}
