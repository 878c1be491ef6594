// Package listing holds the state of one viewer's post listing: the summaries
// currently displayed and the cursor for the next page.
package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
)

var (
	// ErrExhausted is returned by LoadMore once the source has no further pages.
	ErrExhausted = errors.New("listing: no more pages")
	// ErrLoadInFlight is returned when a load is already running for the session.
	ErrLoadInFlight = errors.New("listing: load already in progress")
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("listing: session not found")
)

// Lister fetches the first page of a document type.
type Lister interface {
	ListByType(ctx context.Context, docType string, pageSize int) (*prismic.Response, error)
}

// Fetcher follows a next-page cursor.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

// State is what a listing displays. An empty NextPage means no further pages;
// once empty it never becomes non-empty again for the same session.
type State struct {
	Posts    []posts.Summary `json:"posts"`
	NextPage string          `json:"next_page"`
}

// HasMore reports whether another page can be loaded.
func (s State) HasMore() bool {
	return s.NextPage != ""
}

// Initial loads the first page of docType.
func Initial(ctx context.Context, src Lister, docType string, pageSize int) (State, error) {
	resp, err := src.ListByType(ctx, docType, pageSize)
	if err != nil {
		return State{}, fmt.Errorf("listing: load first page: %w", err)
	}
	summaries, err := posts.SummariesFromResponse(resp)
	if err != nil {
		return State{}, err
	}
	return State{Posts: summaries, NextPage: resp.NextPage}, nil
}

// LoadMore fetches the next page and returns the new state with the fetched
// batch in front of the posts already shown. s itself is never modified, so
// on error the caller keeps displaying s as it was.
func (s State) LoadMore(ctx context.Context, src Fetcher) (State, error) {
	if !s.HasMore() {
		return s, ErrExhausted
	}
	resp, err := src.FetchPage(ctx, s.NextPage)
	if err != nil {
		return s, fmt.Errorf("listing: load next page: %w", err)
	}
	batch, err := posts.SummariesFromResponse(resp)
	if err != nil {
		return s, err
	}
	merged := make([]posts.Summary, 0, len(batch)+len(s.Posts))
	merged = append(merged, batch...)
	merged = append(merged, s.Posts...)
	return State{Posts: merged, NextPage: resp.NextPage}, nil
}
