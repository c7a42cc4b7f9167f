package source

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"context"

	"github.com/PuerkitoBio/goquery"

	"engnews/internal/config"
)

// Path segments that mark navigation or utility links, not articles.
var denylistSegments = []string{
	"login", "signin", "sign-in", "register", "account",
	"cart", "checkout", "subscribe", "newsletter",
	"privacy", "terms", "cookie", "cookies",
	"events", "event", "careers", "contact", "about",
	"search", "tag", "tags", "category",
}

// Selector ladder tried when the configured selector matches nothing.
// Best-guess main-content containers first, whole document last.
var fallbackSelectors = []string{
	"main a[href]",
	"article a[href]",
	"#content a[href]",
	".content a[href]",
	"a[href]",
}

// fetchHTML scrapes one HTML source page into candidates.
func (r *Reader) fetchHTML(ctx context.Context, src config.SourceConfig) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(src.BaseURL)
	if err != nil || src.BaseURL == "" {
		base, err = url.Parse(src.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
	}

	selectors := fallbackSelectors
	if src.Selector != "" {
		selectors = append([]string{src.Selector}, fallbackSelectors...)
	}

	var anchors *goquery.Selection
	for _, sel := range selectors {
		anchors = doc.Find(sel)
		if anchors.Length() > 0 {
			break
		}
	}
	if anchors == nil || anchors.Length() == 0 {
		return nil, fmt.Errorf("no anchors matched")
	}

	var candidates []Candidate
	seen := make(map[string]struct{})

	anchors.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}

		resolved := resolveLink(base, strings.TrimSpace(href))
		if resolved == "" {
			return
		}

		title := strings.Join(strings.Fields(a.Text()), " ")
		if !titleLongEnough(title, r.minTitleLen) {
			return
		}
		if deniedPath(resolved) {
			return
		}

		label := src.Name
		if src.ExternalLinks {
			// Aggregator page: keep only links pointing away from the site
			// itself and read the publication name from the surrounding text.
			if sameDomain(hostOf(resolved), src.Domain) {
				return
			}
			if ctxLabel := labelFromContext(a, title); ctxLabel != "" {
				label = ctxLabel
			}
		} else if !sameDomain(hostOf(resolved), src.Domain) {
			// Domain lock: outbound ads and unrelated links do not belong
			// in the candidate list.
			return
		}

		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}

		candidates = append(candidates, Candidate{
			URL:         resolved,
			Title:       title,
			SourceLabel: label,
		})
	})

	if src.OldestFirst {
		reverse(candidates)
	}

	return candidates, nil
}

// resolveLink makes href absolute against base; non-http(s) schemes are
// dropped.
func resolveLink(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := base.ResolveReference(u)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""

	return abs.String()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// sameDomain reports whether host is domain itself or a subdomain of it.
func sameDomain(host, domain string) bool {
	host = strings.TrimPrefix(host, "www.")
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	if domain == "" {
		return true
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func deniedPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	path := strings.ToLower(u.Path)
	for _, seg := range strings.Split(path, "/") {
		for _, deny := range denylistSegments {
			if seg == deny {
				return true
			}
		}
	}
	return false
}

// labelFromContext reads the publication name from text next to the
// anchor ("via Engineering Week" style attribution).
func labelFromContext(a *goquery.Selection, title string) string {
	parent := a.Parent()
	if parent == nil {
		return ""
	}

	text := strings.Join(strings.Fields(parent.Text()), " ")
	text = strings.Replace(text, title, "", 1)
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "via "))

	if len(text) < 3 {
		return ""
	}
	if len(text) > 80 {
		text = text[:80]
	}
	return strings.TrimSpace(text)
}

func reverse(cs []Candidate) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}
