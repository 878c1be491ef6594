package spacetraveling

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// revalidateRequest is the webhook body. CMS publish hooks send the secret
// in the body; other callers may use the X-Revalidate-Secret header.
type revalidateRequest struct {
	Secret string   `json:"secret"`
	UIDs   []string `json:"uids"`
}

type revalidateResponse struct {
	Revalidated bool   `json:"revalidated"`
	Pages       int    `json:"pages"`
	Error       string `json:"error,omitempty"`
}

// handleRevalidate drops the cached listing and rebuilds the named pages, or
// every built page when none are named.
func (a *App) handleRevalidate(c echo.Context) error {
	if a.Config.RevalidateToken == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	var req revalidateRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, revalidateResponse{Error: "invalid body"})
		}
	}
	secret := c.Request().Header.Get("X-Revalidate-Secret")
	if secret == "" {
		secret = req.Secret
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.Config.RevalidateToken)) != 1 {
		return c.JSON(http.StatusUnauthorized, revalidateResponse{Error: "invalid secret"})
	}

	a.Home.Invalidate()
	a.CMS.InvalidateRef()

	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Minute)
	defer cancel()
	uids := FilterEmpty(req.UIDs)
	if len(uids) == 0 {
		uids = a.builtPages(ctx)
	}
	if err := a.Pages.Revalidate(ctx, uids...); err != nil {
		c.Logger().Errorf("revalidate: %v", err)
		return c.JSON(http.StatusBadGateway, revalidateResponse{Pages: len(uids), Error: err.Error()})
	}
	c.Logger().Infof("revalidated %d pages", len(uids))
	return c.JSON(http.StatusOK, revalidateResponse{Revalidated: true, Pages: len(uids)})
}

// builtPages lists pages held in memory plus those only persisted so far.
func (a *App) builtPages(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var uids []string
	add := func(uid string) {
		if _, ok := seen[uid]; !ok {
			seen[uid] = struct{}{}
			uids = append(uids, uid)
		}
	}
	for _, uid := range a.Pages.Ready() {
		add(uid)
	}
	if a.Store != nil {
		stored, err := a.Store.SnapshotUIDs(ctx)
		if err != nil {
			a.Echo.Logger.Warnf("list snapshots: %v", err)
		}
		for _, uid := range stored {
			add(uid)
		}
	}
	return uids
}
