package spacetraveling

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName     = "listing_session"
	sessionIDKey    = "listing_id"
	sessionMaxAgeS  = 60 * 60 * 12
	revalidatePath  = "/api/revalidate"
	contentSecurity = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/public/") || strings.HasSuffix(p, ".jpg")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurity,
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			// The webhook authenticates with its own secret.
			return c.Request().URL.Path == revalidatePath
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/public") ||
				strings.HasPrefix(p, "/api/") ||
				strings.HasSuffix(p, ".jpg") ||
				p == "/post" ||
				p == "/metrics" || p == "/favicon.svg" ||
				p == "/sitemap.xml" || p == "/feed.xml" || p == "/robots.txt"
		},
	}))

	e.Use(cacheControlMiddleware)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := c.Request().URL.Path
		h := c.Response().Header()
		switch {
		case strings.HasPrefix(p, "/public/"):
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		case p == "/sitemap.xml" || p == "/feed.xml" || p == "/robots.txt":
			h.Set("Cache-Control", "public, max-age=3600")
		case strings.HasSuffix(p, "/banner.jpg"):
			h.Set("Cache-Control", "public, max-age=86400")
		case p == "/" || strings.HasPrefix(p, "/posts/") || strings.HasPrefix(p, "/api/") || p == "/metrics":
			// Listing pages carry a per-viewer session.
			h.Set("Cache-Control", "no-store")
		default:
			h.Set("Cache-Control", "public, max-age=60")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   sessionMaxAgeS,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// listingSessionID returns the viewer's listing session id, or "".
func listingSessionID(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[sessionIDKey].(string)
	return id
}

func setListingSession(c echo.Context, id string) error {
	// A cookie that no longer decodes still yields a fresh session.
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return err
	}
	sess.Values[sessionIDKey] = id
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
