// Package transform turns a source-language title and excerpt into a
// target-language title and summary. Providers are tried in order; when
// every provider fails the original text passes through untranslated,
// flagged as degraded, rather than raising or fabricating content.
package transform

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"engnews/internal/logger"
	"engnews/internal/ratelimit"
)

// Result is the transient translation/summary outcome for one candidate.
type Result struct {
	Title    string
	Summary  string
	Degraded bool
}

// Provider is one translation or summarization backend.
type Provider interface {
	Name() string
	Transform(ctx context.Context, title, text, targetLang string) (Result, error)
}

type Transformer struct {
	providers  []Provider
	budget     *ratelimit.Budget
	targetLang string
}

func New(providers []Provider, budget *ratelimit.Budget, targetLang string) *Transformer {
	return &Transformer{
		providers:  providers,
		budget:     budget,
		targetLang: targetLang,
	}
}

// ProviderNames lists the chain in call order.
func (t *Transformer) ProviderNames() []string {
	names := make([]string, len(t.providers))
	for i, p := range t.providers {
		names[i] = p.Name()
	}
	return names
}

// Transform runs the provider chain. The returned result is always
// usable: at worst the original title with a placeholder summary.
func (t *Transformer) Transform(ctx context.Context, title, text string) Result {
	for _, p := range t.providers {
		if !t.budget.Allow() {
			break
		}
		t.budget.Use(p.Name())

		res, err := p.Transform(ctx, title, text, t.targetLang)
		if err != nil {
			logger.Warn("provider failed, trying next", "provider", p.Name(), "error", err)
			continue
		}

		res.Title = CleanForScript(SanitizeAIText(res.Title), t.targetLang)
		res.Summary = CleanForScript(SanitizeAIText(res.Summary), t.targetLang)

		if res.Summary == "" || !looksLikeLang(res.Summary, t.targetLang) {
			logger.Warn("provider output failed language check, trying next", "provider", p.Name())
			continue
		}
		if res.Title == "" {
			res.Title = title
		}

		logger.Info("transform ok", "provider", p.Name())
		return res
	}

	return Result{
		Title:    title,
		Summary:  placeholderSummary(t.targetLang),
		Degraded: true,
	}
}

var (
	parenNoteExpr   = regexp.MustCompile(`(?i)\((?:note|disclaimer)[^)]*\)`)
	bracketNoteExpr = regexp.MustCompile(`(?i)\[(?:note|disclaimer)[^\]]*\]`)
	lineNoteExpr    = regexp.MustCompile(`(?i)^(?:note|disclaimer)\s*:`)
)

// SanitizeAIText strips machine-translation disclaimers providers like to
// attach ("Note: this translation may contain errors...").
func SanitizeAIText(s string) string {
	s = parenNoteExpr.ReplaceAllString(s, " ")
	s = bracketNoteExpr.ReplaceAllString(s, " ")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if lineNoteExpr.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(strings.Fields(strings.Join(kept, " ")), " "))
}

// Letters allowed per target language: the target script plus Latin, so
// brand names survive. Everything else a provider leaks (wrong script,
// mojibake) is dropped.
var scriptTables = map[string][]*unicode.RangeTable{
	"uk": {unicode.Cyrillic, unicode.Latin},
	"ru": {unicode.Cyrillic, unicode.Latin},
	"fa": {unicode.Arabic, unicode.Latin},
	"en": {unicode.Latin},
	"da": {unicode.Latin},
}

// Distinctive target-script tables used to judge whether output is in the
// requested language at all.
var coreTables = map[string]*unicode.RangeTable{
	"uk": unicode.Cyrillic,
	"ru": unicode.Cyrillic,
	"fa": unicode.Arabic,
	"en": unicode.Latin,
	"da": unicode.Latin,
}

// CleanForScript removes letters outside the target language's expected
// scripts. Digits, punctuation and whitespace always pass.
func CleanForScript(s, lang string) string {
	tables, ok := scriptTables[lang]
	if !ok {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	for _, r := range s {
		if !unicode.IsLetter(r) || unicode.In(r, tables...) {
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}

// looksLikeLang requires a handful of target-script letters before output
// counts as translated.
func looksLikeLang(s, lang string) bool {
	table, ok := coreTables[lang]
	if !ok {
		return s != ""
	}

	count := 0
	for _, r := range s {
		if unicode.In(r, table) {
			count++
			if count >= 10 {
				return true
			}
		}
	}
	return false
}

func placeholderSummary(lang string) string {
	switch lang {
	case "uk":
		return "(переклад тимчасово недоступний)"
	case "fa":
		return "(ترجمه در دسترس نیست)"
	default:
		return "(translation unavailable)"
	}
}
