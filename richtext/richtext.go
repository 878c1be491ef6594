// Package richtext converts the structured rich-text documents delivered by the
// content source into sanitized HTML, and exposes their plain text for
// word counting.
//
// Documents are first parsed into a small closed set of node kinds; anything
// outside that set degrades to escaped text. The rendered markup is then run
// through an allow-list sanitizer before it reaches a template.
package richtext

import (
	"sort"
	"unicode/utf16"
)

// Block is one block of a rich-text document as delivered by the source.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Span marks an inline range of a block's text. Start and End are offsets in
// UTF-16 code units, as the source emits them.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries hyperlink targets.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Document is an ordered list of blocks.
type Document []Block

// Texts returns the text fragment of every block, in order. Image blocks
// contribute an empty fragment.
func (d Document) Texts() []string {
	out := make([]string, len(d))
	for i, b := range d {
		out[i] = b.Text
	}
	return out
}

// Kind is the closed set of node kinds the renderer understands.
type Kind int

const (
	KindText Kind = iota
	KindParagraph
	KindHeading
	KindListItem
	KindOrderedListItem
	KindPreformatted
	KindImage
	KindEmphasis
	KindStrong
	KindLink
)

// Node is one element of a parsed document.
type Node struct {
	Kind     Kind
	Level    int    // headings: 1..6
	Text     string // text nodes and preformatted blocks
	URL      string // links and images
	Target   string // links
	Alt      string // images
	Width    int
	Height   int
	Children []*Node
}

// Parse turns a document into block nodes with inline children.
func Parse(doc Document) []*Node {
	nodes := make([]*Node, 0, len(doc))
	for _, b := range doc {
		nodes = append(nodes, parseBlock(b))
	}
	return nodes
}

func parseBlock(b Block) *Node {
	switch b.Type {
	case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
		return &Node{Kind: KindHeading, Level: int(b.Type[len(b.Type)-1] - '0'), Children: parseInline(b.Text, b.Spans)}
	case "list-item":
		return &Node{Kind: KindListItem, Children: parseInline(b.Text, b.Spans)}
	case "o-list-item":
		return &Node{Kind: KindOrderedListItem, Children: parseInline(b.Text, b.Spans)}
	case "preformatted":
		return &Node{Kind: KindPreformatted, Text: b.Text}
	case "image":
		n := &Node{Kind: KindImage, URL: b.URL, Alt: b.Alt}
		if b.Dimensions != nil {
			n.Width, n.Height = b.Dimensions.Width, b.Dimensions.Height
		}
		return n
	default:
		return &Node{Kind: KindParagraph, Children: parseInline(b.Text, b.Spans)}
	}
}

func parseInline(text string, spans []Span) []*Node {
	units := utf16.Encode([]rune(text))
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(units) || s.Start >= s.End {
			continue
		}
		if spanKind(s) == KindText {
			continue
		}
		valid = append(valid, s)
	}
	// Outer spans first so nesting can be read left to right.
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})
	return descend(units, 0, len(units), valid)
}

// descend builds the nodes covering units[start:end] from spans that all lie
// inside that range. Spans that cross a sibling's boundary are dropped.
func descend(units []uint16, start, end int, spans []Span) []*Node {
	var out []*Node
	pos := start
	for i := 0; i < len(spans); {
		s := spans[i]
		if s.Start < pos {
			i++
			continue
		}
		if s.Start > pos {
			out = append(out, textNode(units[pos:s.Start]))
		}
		j := i + 1
		var inner []Span
		for ; j < len(spans) && spans[j].Start < s.End; j++ {
			if spans[j].End <= s.End {
				inner = append(inner, spans[j])
			}
		}
		n := &Node{Kind: spanKind(s), Children: descend(units, s.Start, s.End, inner)}
		if n.Kind == KindLink && s.Data != nil {
			n.URL = s.Data.URL
			n.Target = s.Data.Target
		}
		out = append(out, n)
		pos = s.End
		i = j
	}
	if pos < end {
		out = append(out, textNode(units[pos:end]))
	}
	return out
}

func textNode(units []uint16) *Node {
	return &Node{Kind: KindText, Text: string(utf16.Decode(units))}
}

func spanKind(s Span) Kind {
	switch s.Type {
	case "em":
		return KindEmphasis
	case "strong":
		return KindStrong
	case "hyperlink":
		return KindLink
	default:
		return KindText
	}
}
