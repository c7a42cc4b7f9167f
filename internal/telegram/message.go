package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	messageLimit = 4096
	captionLimit = 1024
)

// Post is everything the channel message is built from.
type Post struct {
	Title       string
	Summary     string
	SourceLabel string
	Link        string
	ImageURL    string
}

// Characters Telegram requires escaping in MarkdownV2 text.
const markdownV2Special = `_*[]()~` + "`" + `>#+-=|{}.!\`

// EscapeMarkdownV2 backslash-escapes every MarkdownV2 special character.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// composeMessage renders a post under the given length limit. The summary
// is the only part that shrinks; title, source and link always survive.
func composeMessage(post Post, limit int) string {
	title := EscapeMarkdownV2(strings.TrimSpace(post.Title))
	summary := strings.TrimSpace(post.Summary)

	footer := fmt.Sprintf("[%s](%s)", EscapeMarkdownV2(readMoreLabel(post.SourceLabel)), escapeLinkURL(post.Link))

	render := func(sum string) string {
		parts := []string{"*" + title + "*"}
		if sum != "" {
			parts = append(parts, EscapeMarkdownV2(sum))
		}
		parts = append(parts, footer)
		return strings.Join(parts, "\n\n")
	}

	msg := render(summary)
	for utf8.RuneCountInString(msg) > limit && summary != "" {
		summary = shrink(summary, utf8.RuneCountInString(msg)-limit)
		msg = render(summary)
	}

	// Degenerate case: an enormous title. Hard-cut, Telegram rejects
	// over-limit messages outright.
	if utf8.RuneCountInString(msg) > limit {
		msg = string([]rune(msg)[:limit])
	}

	return msg
}

func readMoreLabel(source string) string {
	if source == "" {
		return "Читати повністю"
	}
	return source
}

// shrink cuts at least `by` runes off the end, then backs up to a word
// boundary and appends an ellipsis.
func shrink(s string, by int) string {
	runes := []rune(s)
	keep := len(runes) - by - 8
	if keep <= 0 {
		return ""
	}
	trimmed := strings.TrimSpace(string(runes[:keep]))
	if idx := strings.LastIndex(trimmed, " "); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed + "…"
}

// escapeLinkURL escapes only what MarkdownV2 requires inside (...) of an
// inline link.
func escapeLinkURL(u string) string {
	u = strings.ReplaceAll(u, `\`, `\\`)
	return strings.ReplaceAll(u, `)`, `\)`)
}
