// Package pages builds post detail pages and keeps them fresh. Pages named at
// startup are built ahead of time; any other page is built the first time it
// is requested while the viewer is shown a loading placeholder. A ready page
// older than the revalidation window is still served and rebuilt in the
// background.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/metrics"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
)

// ErrNotFound is returned by a Builder or Snapshots when a page does not exist.
var ErrNotFound = prismic.ErrNotFound

// State is what a request for a page resolves to.
type State int

const (
	StateLoading State = iota
	StateReady
	StateNotFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateNotFound:
		return "not_found"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Build triggers, used as metric labels.
const (
	TriggerPrebuild   = "prebuild"
	TriggerOnDemand   = "on_demand"
	TriggerRevalidate = "revalidate"
)

// Page is the result of Get.
type Page struct {
	UID         string
	State       State
	Post        posts.Detail
	GeneratedAt time.Time
	Err         error // set for StateFailed
}

// Builder produces the detail for uid. It returns an error wrapping
// ErrNotFound when no such post exists.
type Builder func(ctx context.Context, uid string) (posts.Detail, error)

// Snapshot is a built page as persisted between restarts.
type Snapshot struct {
	UID         string
	Post        posts.Detail
	GeneratedAt time.Time
}

// Snapshots persists built pages. LoadSnapshot returns ErrNotFound when
// nothing is stored for uid.
type Snapshots interface {
	LoadSnapshot(ctx context.Context, uid string) (Snapshot, error)
	SaveSnapshot(ctx context.Context, s Snapshot) error
	DeleteSnapshot(ctx context.Context, uid string) error
}

// Config configures a Generator.
type Config struct {
	Builder         Builder
	Snapshots       Snapshots     // optional
	RevalidateAfter time.Duration // default 30m
	FallbackWait    time.Duration // how long Get waits for a first build; 0 shows the placeholder at once
	NotFoundTTL     time.Duration // default 1m
	FailureTTL      time.Duration // how long a failed build is reported before retrying; default 10s
	BuildTimeout    time.Duration // default 15s
	Logger          *slog.Logger
	Now             func() time.Time
}

type entry struct {
	state        State
	detail       posts.Detail
	generatedAt  time.Time
	refreshAfter time.Time
	expires      time.Time // StateNotFound and StateFailed
	err          error     // StateFailed only
}

// Generator resolves detail pages. It is safe for concurrent use.
type Generator struct {
	build       Builder
	snapshots   Snapshots
	revalidate  time.Duration
	wait        time.Duration
	notFoundTTL time.Duration
	failureTTL  time.Duration
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

// New creates a Generator from cfg.
func New(cfg Config) (*Generator, error) {
	if cfg.Builder == nil {
		return nil, errors.New("pages: builder is required")
	}
	if cfg.RevalidateAfter <= 0 {
		cfg.RevalidateAfter = 30 * time.Minute
	}
	if cfg.NotFoundTTL <= 0 {
		cfg.NotFoundTTL = time.Minute
	}
	if cfg.FailureTTL <= 0 {
		cfg.FailureTTL = 10 * time.Second
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Generator{
		build:       cfg.Builder,
		snapshots:   cfg.Snapshots,
		revalidate:  cfg.RevalidateAfter,
		wait:        cfg.FallbackWait,
		notFoundTTL: cfg.NotFoundTTL,
		failureTTL:  cfg.FailureTTL,
		timeout:     cfg.BuildTimeout,
		logger:      cfg.Logger,
		now:         cfg.Now,
		entries:     make(map[string]*entry),
	}, nil
}

// Get resolves uid. A page that has never been built starts building and,
// unless it finishes within FallbackWait, comes back as StateLoading.
func (g *Generator) Get(ctx context.Context, uid string) Page {
	if uid == "" {
		return Page{State: StateNotFound}
	}
	if p, ok := g.lookup(uid); ok {
		return p
	}
	if g.restore(ctx, uid) {
		if p, ok := g.lookup(uid); ok {
			return p
		}
	}

	g.mu.Lock()
	if _, ok := g.entries[uid]; !ok {
		g.entries[uid] = &entry{state: StateLoading}
	}
	g.mu.Unlock()
	done := g.group.DoChan(uid, g.buildFunc(uid, TriggerOnDemand))

	if g.wait > 0 {
		timer := time.NewTimer(g.wait)
		defer timer.Stop()
		select {
		case <-done:
			if p, ok := g.lookup(uid); ok {
				return p
			}
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return Page{UID: uid, State: StateLoading}
}

// lookup answers from memory. Not-found and failed results are reported to
// every request until they expire; the next request after that rebuilds.
func (g *Generator) lookup(uid string) (Page, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[uid]
	if !ok {
		return Page{}, false
	}
	now := g.now()
	switch e.state {
	case StateReady:
		if !now.Before(e.refreshAfter) {
			e.refreshAfter = now.Add(g.revalidate)
			g.group.DoChan(uid, g.buildFunc(uid, TriggerRevalidate))
		}
		return Page{UID: uid, State: StateReady, Post: e.detail, GeneratedAt: e.generatedAt}, true
	case StateNotFound:
		if now.Before(e.expires) {
			return Page{UID: uid, State: StateNotFound}, true
		}
		delete(g.entries, uid)
		return Page{}, false
	case StateFailed:
		if now.Before(e.expires) {
			return Page{UID: uid, State: StateFailed, Err: e.err}, true
		}
		delete(g.entries, uid)
		return Page{}, false
	}
	return Page{UID: uid, State: StateLoading}, true
}

// restore loads a persisted snapshot into memory.
func (g *Generator) restore(ctx context.Context, uid string) bool {
	if g.snapshots == nil {
		return false
	}
	snap, err := g.snapshots.LoadSnapshot(ctx, uid)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.logger.Warn("load page snapshot", "uid", uid, "error", err)
		}
		return false
	}
	g.mu.Lock()
	if _, ok := g.entries[uid]; !ok {
		g.entries[uid] = &entry{
			state:        StateReady,
			detail:       snap.Post,
			generatedAt:  snap.GeneratedAt,
			refreshAfter: snap.GeneratedAt.Add(g.revalidate),
		}
	}
	g.mu.Unlock()
	return true
}

func (g *Generator) buildFunc(uid, trigger string) func() (any, error) {
	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		d, err := g.build(ctx, uid)
		g.record(ctx, uid, trigger, d, err)
		return nil, err
	}
}

func (g *Generator) record(ctx context.Context, uid, trigger string, d posts.Detail, err error) {
	now := g.now()
	outcome := "ok"

	g.mu.Lock()
	switch {
	case err == nil:
		g.entries[uid] = &entry{
			state:        StateReady,
			detail:       d,
			generatedAt:  now,
			refreshAfter: now.Add(g.revalidate),
		}
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
		g.entries[uid] = &entry{state: StateNotFound, expires: now.Add(g.notFoundTTL)}
	default:
		outcome = "error"
		// A stale page keeps being served after a failed rebuild.
		if e, ok := g.entries[uid]; !ok || e.state != StateReady {
			g.entries[uid] = &entry{state: StateFailed, err: err, expires: now.Add(g.failureTTL)}
		}
	}
	g.mu.Unlock()

	metrics.RecordPageBuild(trigger, outcome)

	switch outcome {
	case "ok":
		g.logger.Info("page built", "uid", uid, "trigger", trigger)
		if g.snapshots != nil {
			if serr := g.snapshots.SaveSnapshot(ctx, Snapshot{UID: uid, Post: d, GeneratedAt: now}); serr != nil {
				g.logger.Warn("save page snapshot", "uid", uid, "error", serr)
			}
		}
	case "not_found":
		g.logger.Info("page not found", "uid", uid, "trigger", trigger)
		if g.snapshots != nil {
			if serr := g.snapshots.DeleteSnapshot(ctx, uid); serr != nil && !errors.Is(serr, ErrNotFound) {
				g.logger.Warn("delete page snapshot", "uid", uid, "error", serr)
			}
		}
	default:
		if errors.Is(err, posts.ErrMalformed) {
			g.logger.Error("malformed post record", "uid", uid, "trigger", trigger, "error", err)
		} else {
			g.logger.Warn("page build failed", "uid", uid, "trigger", trigger, "error", err)
		}
	}
}

// Prebuild builds every uid before returning. Missing posts are skipped; the
// first build failure is returned after all builds have finished.
func (g *Generator) Prebuild(ctx context.Context, uids []string) error {
	return g.rebuild(ctx, uids, TriggerPrebuild)
}

// Revalidate rebuilds the given pages now, or every ready page when uids is empty.
func (g *Generator) Revalidate(ctx context.Context, uids ...string) error {
	if len(uids) == 0 {
		uids = g.Ready()
	}
	return g.rebuild(ctx, uids, TriggerRevalidate)
}

func (g *Generator) rebuild(ctx context.Context, uids []string, trigger string) error {
	var eg errgroup.Group
	eg.SetLimit(4)
	for _, uid := range uids {
		if uid == "" {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err, _ := g.group.Do(uid, g.buildFunc(uid, trigger))
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("pages: build %q: %w", uid, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// Sweep drops expired not-found and failed results.
func (g *Generator) Sweep() {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for uid, e := range g.entries {
		if (e.state == StateNotFound || e.state == StateFailed) && !now.Before(e.expires) {
			delete(g.entries, uid)
		}
	}
}

// StartSweeper runs Sweep every interval until the returned stop func is called.
func (g *Generator) StartSweeper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				g.Sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Ready returns the uids currently held as ready pages.
func (g *Generator) Ready() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var uids []string
	for uid, e := range g.entries {
		if e.state == StateReady {
			uids = append(uids, uid)
		}
	}
	return uids
}

// DocumentSource looks a document up by uid.
type DocumentSource interface {
	GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error)
}

// FromSource returns a Builder that fetches docType records from src.
func FromSource(src DocumentSource, docType string) Builder {
	return func(ctx context.Context, uid string) (posts.Detail, error) {
		doc, err := src.GetByUID(ctx, docType, uid)
		if err != nil {
			return posts.Detail{}, err
		}
		return posts.DetailFromDocument(*doc)
	}
}
