package posts

import (
	"strings"
)

// WordsPerMinute is the reading speed the estimate assumes.
const WordsPerMinute = 200

// ReadingTime estimates minutes to read sections: ceil(words / 200).
// No words gives zero minutes.
func ReadingTime(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += s.WordCount()
	}
	return MinutesFor(total)
}

// ReadingTime estimates minutes to read d.
func (d Detail) ReadingTime() int {
	return ReadingTime(d.Content)
}

// MinutesFor converts a word count to whole minutes, rounding up.
func MinutesFor(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// WordCount counts the words of a section: the heading and every body
// fragment joined by single spaces.
func (s Section) WordCount() int {
	parts := append([]string{s.Heading}, s.Body.Texts()...)
	return CountWords(strings.Join(parts, " "))
}

// CountWords strips every rune that is neither an ASCII word character
// ([A-Za-z0-9_]) nor whitespace, then counts the whitespace-separated tokens.
// Zero-length tokens at the edges are not counted. Non-ASCII letters are
// stripped like punctuation, so "ação" counts as the single token "ao".
func CountWords(text string) int {
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || isSpace(r) {
			return r
		}
		return -1
	}, text)
	return len(strings.FieldsFunc(cleaned, isSpace))
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// isSpace matches the ECMAScript whitespace and line terminator set.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
