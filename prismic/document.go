package prismic

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is the offset format the API uses ("2021-03-25T19:25:28+0000").
const timestampLayout = "2006-01-02T15:04:05-0700"

// Document is one record returned by the content source. Data is left raw so
// callers can decode the type-specific fields they expect.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate string          `json:"first_publication_date"`
	LastPublicationDate  string          `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of search results. NextPage is empty when the result
// set is exhausted.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"`
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`
}

type apiInfo struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// ParseTimestamp parses a publication timestamp. An empty string yields a nil
// time and no error since unpublished records carry no date.
func ParseTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{timestampLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("prismic: invalid timestamp %q", s)
}
