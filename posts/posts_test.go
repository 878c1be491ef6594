package posts

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"   ", 0},
		{"Hello, world!", 2},
		{"  leading and trailing  ", 3},
		{"foo - bar", 2},
		{"under_score 123", 2},
		{"can't stop", 2},
		{"ação rápida", 2},
		{"— …", 0},
		{"tab\tseparated\nlines", 3},
		{"nbsp\u00a0split", 2},
	}
	for _, tt := range tests {
		if got := CountWords(tt.input); got != tt.expected {
			t.Errorf("CountWords(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestMinutesFor(t *testing.T) {
	tests := []struct {
		words    int
		expected int
	}{
		{0, 0},
		{1, 1},
		{199, 1},
		{200, 1},
		{201, 2},
		{400, 2},
		{401, 3},
	}
	for _, tt := range tests {
		if got := MinutesFor(tt.words); got != tt.expected {
			t.Errorf("MinutesFor(%d) = %d, want %d", tt.words, got, tt.expected)
		}
	}
}

func TestMinutesForIsMonotonic(t *testing.T) {
	prev := 0
	for words := 0; words <= 1000; words++ {
		m := MinutesFor(words)
		if m < prev {
			t.Fatalf("MinutesFor(%d) = %d decreased from %d", words, m, prev)
		}
		prev = m
	}
}

func TestSectionWordCount(t *testing.T) {
	s := Section{
		Heading: "Intro.",
		Body: richtext.Document{
			{Type: "paragraph", Text: "Hello world."},
			{Type: "paragraph", Text: "Second para"},
		},
	}
	if got := s.WordCount(); got != 5 {
		t.Errorf("WordCount = %d, want 5", got)
	}

	want := CountWords("Intro. Hello world. Second para")
	if got := s.WordCount(); got != want {
		t.Errorf("WordCount = %d, want joined count %d", got, want)
	}
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("word ", n))
	}
	section := func(heading string, body ...string) Section {
		s := Section{Heading: heading}
		for _, b := range body {
			s.Body = append(s.Body, richtext.Block{Type: "paragraph", Text: b})
		}
		return s
	}

	if got := ReadingTime(nil); got != 0 {
		t.Errorf("ReadingTime(nil) = %d, want 0", got)
	}
	if got := ReadingTime([]Section{section("")}); got != 0 {
		t.Errorf("empty section = %d, want 0", got)
	}
	if got := ReadingTime([]Section{section("Title", words(199))}); got != 1 {
		t.Errorf("200 words = %d, want 1", got)
	}
	if got := ReadingTime([]Section{section("Title", words(100)), section("Other", words(100))}); got != 2 {
		t.Errorf("202 words = %d, want 2", got)
	}

	a := section("First heading", "Some, punctuated; text!", words(150))
	b := section("Second", words(120))
	if ReadingTime([]Section{a, b}) != ReadingTime([]Section{b, a}) {
		t.Errorf("reading time depends on section order")
	}

	d := Detail{Content: []Section{a, b}}
	if d.ReadingTime() != ReadingTime([]Section{a, b}) {
		t.Errorf("Detail.ReadingTime disagrees with ReadingTime")
	}
}

func TestFormatDate(t *testing.T) {
	date := func(s string) *time.Time {
		tm, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return &tm
	}
	tests := []struct {
		input    *time.Time
		expected string
	}{
		{date("2021-03-25T00:00:00Z"), "25 Mar 2021"},
		{date("2021-05-19T12:00:00Z"), "19 Mai 2021"},
		{date("2021-02-01T00:00:00Z"), "01 Fev 2021"},
		{date("2020-12-31T23:59:59Z"), "31 Dez 2020"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.input); got != tt.expected {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSummaryFromDocument(t *testing.T) {
	doc := prismic.Document{
		UID:                  "como-utilizar-hooks",
		FirstPublicationDate: "2021-03-15T19:25:28+0000",
		Data:                 []byte(`{"title":"Como utilizar Hooks","subtitle":"Pensando em sincronização","author":"Joseph Oliveira"}`),
	}
	got, err := SummaryFromDocument(doc)
	if err != nil {
		t.Fatalf("SummaryFromDocument failed: %v", err)
	}
	if got.UID != doc.UID || got.Title != "Como utilizar Hooks" || got.Author != "Joseph Oliveira" {
		t.Errorf("unexpected summary: %+v", got)
	}
	if FormatDate(got.FirstPublicationDate) != "15 Mar 2021" {
		t.Errorf("date = %q", FormatDate(got.FirstPublicationDate))
	}
}

func TestSummaryFromDocumentNullDate(t *testing.T) {
	doc := prismic.Document{UID: "draft", Data: []byte(`{"title":"t","subtitle":"s","author":"a"}`)}
	got, err := SummaryFromDocument(doc)
	if err != nil {
		t.Fatalf("SummaryFromDocument failed: %v", err)
	}
	if got.FirstPublicationDate != nil {
		t.Errorf("expected nil date, got %v", got.FirstPublicationDate)
	}
}

func TestSummaryFromDocumentMalformed(t *testing.T) {
	tests := []struct {
		name    string
		doc     prismic.Document
		missing string
	}{
		{"no author", prismic.Document{UID: "a", Data: []byte(`{"title":"t","subtitle":"s"}`)}, "author"},
		{"no uid", prismic.Document{ID: "X1", Data: []byte(`{"title":"t","subtitle":"s","author":"a"}`)}, "uid"},
		{"no data", prismic.Document{UID: "a"}, "no data"},
		{"bad date", prismic.Document{UID: "a", FirstPublicationDate: "soon", Data: []byte(`{"title":"t","subtitle":"s","author":"a"}`)}, "first_publication_date"},
		{"wrong type", prismic.Document{UID: "a", Data: []byte(`{"title":7,"subtitle":"s","author":"a"}`)}, "title"},
	}
	for _, tt := range tests {
		_, err := SummaryFromDocument(tt.doc)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tt.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.missing) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.missing)
		}
	}
}

func TestSummariesFromResponse(t *testing.T) {
	resp := &prismic.Response{Results: []prismic.Document{
		{UID: "a", Data: []byte(`{"title":"A","subtitle":"s","author":"x"}`)},
		{UID: "b", Data: []byte(`{"title":"B","subtitle":"s","author":"y"}`)},
	}}
	got, err := SummariesFromResponse(resp)
	if err != nil {
		t.Fatalf("SummariesFromResponse failed: %v", err)
	}
	if len(got) != 2 || got[0].UID != "a" || got[1].UID != "b" {
		t.Errorf("unexpected summaries: %+v", got)
	}

	resp.Results = append(resp.Results, prismic.Document{UID: "c", Data: []byte(`{}`)})
	if _, err := SummariesFromResponse(resp); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for partial page, got %v", err)
	}
}

const detailJSON = `{
	"title": "Criando um app CRA do zero",
	"subtitle": "Tudo sobre como criar a sua primeira aplicação",
	"author": "Danilo Vieira",
	"banner": {"url": "https://images.prismic.io/criando-app.png"},
	"content": [
		{"heading": "Proin et varius", "body": [{"type": "paragraph", "text": "Lorem ipsum dolor sit amet.", "spans": []}]},
		{"heading": "Cras laoreet", "body": [{"type": "list-item", "text": "Nullam dolor"}, {"type": "list-item", "text": "Ut venenatis"}]}
	]
}`

func TestDetailFromDocument(t *testing.T) {
	doc := prismic.Document{
		UID:                  "criando-um-app-cra-do-zero",
		FirstPublicationDate: "2021-03-25T19:25:28+0000",
		LastPublicationDate:  "2021-03-26T10:00:00+0000",
		Data:                 []byte(detailJSON),
	}
	got, err := DetailFromDocument(doc)
	if err != nil {
		t.Fatalf("DetailFromDocument failed: %v", err)
	}
	if got.BannerURL != "https://images.prismic.io/criando-app.png" {
		t.Errorf("BannerURL = %q", got.BannerURL)
	}
	if len(got.Content) != 2 || got.Content[1].Heading != "Cras laoreet" || len(got.Content[1].Body) != 2 {
		t.Errorf("unexpected content: %+v", got.Content)
	}
	if got.LastPublicationDate == nil || got.LastPublicationDate.Day() != 26 {
		t.Errorf("LastPublicationDate = %v", got.LastPublicationDate)
	}
	// "Proin et varius Lorem ipsum dolor sit amet" + "Cras laoreet Nullam dolor Ut venenatis"
	if got.ReadingTime() != 1 {
		t.Errorf("ReadingTime = %d, want 1", got.ReadingTime())
	}
	if s := got.Summary(); s.UID != got.UID || s.Subtitle != got.Subtitle {
		t.Errorf("Summary = %+v", s)
	}
}

func TestDetailFromDocumentMalformed(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		missing string
	}{
		{"no banner", `{"title":"t","author":"a","content":[]}`, "banner.url"},
		{"empty banner", `{"title":"t","author":"a","banner":{"url":""},"content":[]}`, "banner.url"},
		{"no content", `{"title":"t","author":"a","banner":{"url":"https://x/y.png"}}`, "content"},
		{"section without heading", `{"title":"t","author":"a","banner":{"url":"https://x/y.png"},"content":[{"body":[]}]}`, "content[0].heading"},
	}
	for _, tt := range tests {
		_, err := DetailFromDocument(prismic.Document{UID: "x", Data: []byte(tt.data)})
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", tt.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.missing) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.missing)
		}
	}
}
