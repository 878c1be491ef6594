// Package posts shapes content source records into the view models the
// listing and detail pages render, and computes the values derived from them.
package posts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

// ErrMalformed is returned when a record lacks a field the pages need.
var ErrMalformed = errors.New("posts: malformed record")

// Summary is one entry of the listing page.
type Summary struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	Author               string     `json:"author"`
}

// Section is one heading plus its rich-text body.
type Section struct {
	Heading string            `json:"heading"`
	Body    richtext.Document `json:"body"`
}

// Detail is a full article.
type Detail struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	LastPublicationDate  *time.Time `json:"last_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	BannerURL            string     `json:"banner_url"`
	Author               string     `json:"author"`
	Content              []Section  `json:"content"`
}

type summaryData struct {
	Title    *string `json:"title"`
	Subtitle *string `json:"subtitle"`
	Author   *string `json:"author"`
}

type detailData struct {
	Title    *string `json:"title"`
	Subtitle *string `json:"subtitle"`
	Author   *string `json:"author"`
	Banner   *struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content *[]struct {
		Heading *string           `json:"heading"`
		Body    richtext.Document `json:"body"`
	} `json:"content"`
}

// SummaryFromDocument maps one listing record. Title, subtitle and author are
// required.
func SummaryFromDocument(doc prismic.Document) (Summary, error) {
	var data summaryData
	if err := decodeData(doc, &data); err != nil {
		return Summary{}, err
	}
	var missing fieldList
	missing.check(doc.UID == "", "uid")
	missing.check(data.Title == nil, "title")
	missing.check(data.Subtitle == nil, "subtitle")
	missing.check(data.Author == nil, "author")
	if err := missing.err(doc); err != nil {
		return Summary{}, err
	}
	first, err := parseDate(doc, "first_publication_date", doc.FirstPublicationDate)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		UID:                  doc.UID,
		FirstPublicationDate: first,
		Title:                *data.Title,
		Subtitle:             *data.Subtitle,
		Author:               *data.Author,
	}, nil
}

// SummariesFromResponse maps every record of a page. One malformed record
// fails the whole page so that nothing partial reaches the listing.
func SummariesFromResponse(resp *prismic.Response) ([]Summary, error) {
	out := make([]Summary, 0, len(resp.Results))
	for _, doc := range resp.Results {
		s, err := SummaryFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DetailFromDocument maps one article record. Title, author, banner URL and
// content are required; every section needs a heading.
func DetailFromDocument(doc prismic.Document) (Detail, error) {
	var data detailData
	if err := decodeData(doc, &data); err != nil {
		return Detail{}, err
	}
	var missing fieldList
	missing.check(doc.UID == "", "uid")
	missing.check(data.Title == nil, "title")
	missing.check(data.Author == nil, "author")
	missing.check(data.Banner == nil || data.Banner.URL == "", "banner.url")
	missing.check(data.Content == nil, "content")
	if data.Content != nil {
		for i, sec := range *data.Content {
			missing.check(sec.Heading == nil, fmt.Sprintf("content[%d].heading", i))
		}
	}
	if err := missing.err(doc); err != nil {
		return Detail{}, err
	}
	first, err := parseDate(doc, "first_publication_date", doc.FirstPublicationDate)
	if err != nil {
		return Detail{}, err
	}
	last, err := parseDate(doc, "last_publication_date", doc.LastPublicationDate)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{
		UID:                  doc.UID,
		FirstPublicationDate: first,
		LastPublicationDate:  last,
		Title:                *data.Title,
		BannerURL:            data.Banner.URL,
		Author:               *data.Author,
		Content:              make([]Section, 0, len(*data.Content)),
	}
	if data.Subtitle != nil {
		d.Subtitle = *data.Subtitle
	}
	for _, sec := range *data.Content {
		d.Content = append(d.Content, Section{Heading: *sec.Heading, Body: sec.Body})
	}
	return d, nil
}

// Summary returns the listing view of d.
func (d Detail) Summary() Summary {
	return Summary{
		UID:                  d.UID,
		FirstPublicationDate: d.FirstPublicationDate,
		Title:                d.Title,
		Subtitle:             d.Subtitle,
		Author:               d.Author,
	}
}

func decodeData(doc prismic.Document, dst any) error {
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return fmt.Errorf("%w: %s has no data", ErrMalformed, recordName(doc))
	}
	if err := json.Unmarshal(doc.Data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, recordName(doc), err)
	}
	return nil
}

func parseDate(doc prismic.Document, field, raw string) (*time.Time, error) {
	t, err := prismic.ParseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrMalformed, recordName(doc), field, err)
	}
	return t, nil
}

type fieldList []string

func (f *fieldList) check(isMissing bool, name string) {
	if isMissing {
		*f = append(*f, name)
	}
}

func (f fieldList) err(doc prismic.Document) error {
	if len(f) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s missing %s", ErrMalformed, recordName(doc), strings.Join(f, ", "))
}

func recordName(doc prismic.Document) string {
	switch {
	case doc.UID != "":
		return fmt.Sprintf("record %q", doc.UID)
	case doc.ID != "":
		return fmt.Sprintf("record id %q", doc.ID)
	default:
		return "record"
	}
}
