package transform

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiInputCap = 4000

// GeminiProvider translates and summarizes in a single model call. The
// prompt demands labeled output; anything that does not match the labels
// is rejected rather than guessed at.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) Close() error { return g.client.Close() }

func (g *GeminiProvider) Transform(ctx context.Context, title, text, targetLang string) (Result, error) {
	model := g.client.GenerativeModel(g.model)

	prompt := buildPrompt(title, truncateAtSentence(text, geminiInputCap), targetLang)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Result{}, fmt.Errorf("gemini request: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("gemini: empty response")
	}

	raw := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	outTitle, outSummary, err := parseLabeled(raw)
	if err != nil {
		return Result{}, err
	}

	return Result{Title: outTitle, Summary: outSummary}, nil
}

func buildPrompt(title, text, targetLang string) string {
	lang := languageName(targetLang)
	return fmt.Sprintf(`You are a news editor. Translate the headline into %[1]s and write a short %[1]s summary (2-4 sentences) of the article text. Keep brand and product names as they are. Do not add opinions, notes, or disclaimers.

Respond in EXACTLY this format and nothing else:
TITLE: <translated headline>
SUMMARY: <summary>

Headline: %[2]s

Article text:
%[3]s`, lang, title, text)
}

func languageName(code string) string {
	switch code {
	case "uk":
		return "Ukrainian"
	case "ru":
		return "Russian"
	case "fa":
		return "Persian"
	case "da":
		return "Danish"
	default:
		return "English"
	}
}

var (
	titleLabelExpr   = regexp.MustCompile(`(?i)^\s*\**\s*TITLE\s*\**\s*:\s*(.*)$`)
	summaryLabelExpr = regexp.MustCompile(`(?i)^\s*\**\s*SUMMARY\s*\**\s*:\s*(.*)$`)
)

// parseLabeled extracts the TITLE:/SUMMARY: sections. Continuation lines
// belong to the last seen label. Both labels are required; a response
// without them is a provider failure, never split heuristically.
func parseLabeled(raw string) (string, string, error) {
	var title, summary []string
	current := &[]string{}
	seenTitle, seenSummary := false, false

	for _, line := range strings.Split(raw, "\n") {
		if m := titleLabelExpr.FindStringSubmatch(line); m != nil {
			seenTitle = true
			current = &title
			if m[1] != "" {
				title = append(title, m[1])
			}
			continue
		}
		if m := summaryLabelExpr.FindStringSubmatch(line); m != nil {
			seenSummary = true
			current = &summary
			if m[1] != "" {
				summary = append(summary, m[1])
			}
			continue
		}
		if line = strings.TrimSpace(line); line != "" && (seenTitle || seenSummary) {
			*current = append(*current, line)
		}
	}

	if !seenTitle || !seenSummary {
		return "", "", fmt.Errorf("gemini: response missing TITLE/SUMMARY labels")
	}

	t := strings.TrimSpace(strings.Join(title, " "))
	s := strings.TrimSpace(strings.Join(summary, " "))
	if t == "" || s == "" {
		return "", "", fmt.Errorf("gemini: empty TITLE or SUMMARY section")
	}

	return t, s, nil
}

func truncateAtSentence(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	trimmed := string([]rune(s)[:max])
	if idx := strings.LastIndex(trimmed, ". "); idx > max/3 {
		trimmed = trimmed[:idx+1]
	}
	return strings.TrimSpace(trimmed)
}
