// Package store persists proof that an article URL was already delivered.
//
// Reads fail open: a store outage makes a candidate look new, so the worst
// case is an occasional duplicate post, never permanent silence. Writes are
// best-effort and never roll back a publish that already happened.
package store

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"
)

const titleMaxRunes = 255

// Store is the dedup ledger the pipeline checks and records against.
type Store interface {
	// IsPublished reports whether url was already delivered. Errors are
	// swallowed and reported as false (fail open).
	IsPublished(ctx context.Context, url string) bool

	// Record marks url as delivered. Called only after a confirmed publish;
	// failures are logged and dropped.
	Record(ctx context.Context, url, title string)

	Close() error
}

// NormalizeKey produces the dedup key for a URL. The same form is used on
// read and write; mixing forms across runs silently breaks dedup.
func NormalizeKey(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	key := u.String()
	return strings.TrimSuffix(key, "/")
}

func capTitle(title string) string {
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:titleMaxRunes])
}
