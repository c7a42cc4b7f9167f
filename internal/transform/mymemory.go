package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"

	"engnews/internal/logger"
)

const (
	myMemoryEndpoint = "https://api.mymemory.translated.net/get"
	myMemoryChunk    = 400 // free-tier query length limit
	myMemoryTextCap  = 700
	myMemoryPause    = 300 * time.Millisecond
)

// MyMemoryProvider translates title and excerpt through the free MyMemory
// API. It only translates; the "summary" is the translated excerpt. A
// circuit breaker stops hammering the API once it starts failing.
type MyMemoryProvider struct {
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	sourceLang string
	pause      time.Duration
}

func NewMyMemoryProvider(timeout time.Duration) *MyMemoryProvider {
	return &MyMemoryProvider{
		client: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mymemory",
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
		sourceLang: "en",
		pause:      myMemoryPause,
	}
}

func (m *MyMemoryProvider) Name() string { return "mymemory" }

func (m *MyMemoryProvider) Transform(ctx context.Context, title, text, targetLang string) (Result, error) {
	outTitle, err := m.translate(ctx, title, targetLang)
	if err != nil {
		return Result{}, fmt.Errorf("translate title: %w", err)
	}

	outSummary, err := m.translate(ctx, truncateAtSentence(text, myMemoryTextCap), targetLang)
	if err != nil {
		return Result{}, fmt.Errorf("translate text: %w", err)
	}

	return Result{Title: outTitle, Summary: outSummary}, nil
}

// translate splits the text into chunks under the free-tier query limit
// and translates them sequentially with a short pause between requests.
func (m *MyMemoryProvider) translate(ctx context.Context, text, targetLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	var out []string
	for i, chunk := range chunkRunes(text, myMemoryChunk) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(m.pause):
			}
		}

		translated, err := m.translateChunk(ctx, chunk, targetLang)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}

	return strings.Join(out, " "), nil
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// Comes back as a number on success and a string on errors.
	ResponseStatus interface{} `json:"responseStatus"`
}

func (m *MyMemoryProvider) translateChunk(ctx context.Context, chunk, targetLang string) (string, error) {
	result, err := m.breaker.Execute(func() (interface{}, error) {
		q := url.Values{}
		q.Set("q", chunk)
		q.Set("langpair", m.sourceLang+"|"+targetLang)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, myMemoryEndpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("mymemory: status %d", resp.StatusCode)
		}

		var body myMemoryResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("mymemory: decode: %w", err)
		}

		if s := fmt.Sprint(body.ResponseStatus); s != "200" && s != "<nil>" {
			return nil, fmt.Errorf("mymemory: api status %s", s)
		}

		text := strings.TrimSpace(body.ResponseData.TranslatedText)
		// Quota and error messages come back inside translatedText.
		if text == "" || strings.HasPrefix(strings.ToUpper(text), "MYMEMORY") {
			return nil, fmt.Errorf("mymemory: unusable translation %q", text)
		}

		return text, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func chunkRunes(s string, size int) []string {
	if utf8.RuneCountInString(s) <= size {
		return []string{s}
	}

	runes := []rune(s)
	var chunks []string
	for len(runes) > 0 {
		n := size
		if n > len(runes) {
			n = len(runes)
		} else {
			// Back up to the nearest space so words stay whole.
			for i := n - 1; i > size/2; i-- {
				if runes[i] == ' ' {
					n = i
					break
				}
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:n])))
		runes = runes[n:]
	}

	return chunks
}
