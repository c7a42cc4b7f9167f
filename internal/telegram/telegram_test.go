package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engnews/internal/retry"
)

func TestEscapeMarkdownV2(t *testing.T) {
	in := "Price up 3.5% (Q1) - what_next?"
	want := `Price up 3\.5% \(Q1\) \- what\_next?`
	assert.Equal(t, want, EscapeMarkdownV2(in))
}

func TestComposeMessageStructure(t *testing.T) {
	post := Post{
		Title:       "New turbine record",
		Summary:     "Інженери підтвердили рекорд.",
		SourceLabel: "ASME News",
		Link:        "https://example.com/news/turbine",
	}

	msg := composeMessage(post, messageLimit)

	assert.True(t, strings.HasPrefix(msg, "*New turbine record*"))
	assert.Contains(t, msg, "Інженери підтвердили рекорд\\.")
	assert.Contains(t, msg, "[ASME News](https://example.com/news/turbine)")
}

func TestComposeMessageDefaultSourceLabel(t *testing.T) {
	msg := composeMessage(Post{Title: "T", Link: "https://example.com/a"}, messageLimit)
	assert.Contains(t, msg, "Читати повністю")
}

func TestComposeMessageShrinksSummaryOnly(t *testing.T) {
	post := Post{
		Title:       "Short title",
		Summary:     strings.Repeat("Довге речення яке повторюється багато разів. ", 100),
		SourceLabel: "Source",
		Link:        "https://example.com/long",
	}

	msg := composeMessage(post, captionLimit)

	assert.LessOrEqual(t, utf8.RuneCountInString(msg), captionLimit)
	assert.Contains(t, msg, "*Short title*")
	assert.Contains(t, msg, "(https://example.com/long)", "link must survive truncation")
	assert.Contains(t, msg, "…")
}

func TestComposeMessageHugeTitleHardCut(t *testing.T) {
	post := Post{
		Title: strings.Repeat("verylongtitle ", 500),
		Link:  "https://example.com/a",
	}
	msg := composeMessage(post, captionLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(msg), captionLimit)
}

type capturedCall struct {
	Method  string
	Payload map[string]interface{}
}

func newFakeAPI(t *testing.T, photoFails bool) (*Client, *[]capturedCall) {
	t.Helper()

	var calls []capturedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		calls = append(calls, capturedCall{Method: method, Payload: payload})

		if method == "sendPhoto" && photoFails {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"wrong file identifier"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-token", "@channel")
	c.apiBase = srv.URL
	c.retry = retry.Config{MaxAttempts: 1, Delay: time.Millisecond}
	return c, &calls
}

func TestPublishWithImage(t *testing.T) {
	c, calls := newFakeAPI(t, false)

	err := c.Publish(context.Background(), Post{
		Title:    "Title",
		Summary:  "Підсумок новини для каналу.",
		Link:     "https://example.com/a",
		ImageURL: "https://cdn.example.com/lead.jpg",
	})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "sendPhoto", call.Method)
	assert.Equal(t, "https://cdn.example.com/lead.jpg", call.Payload["photo"])
	assert.Equal(t, "@channel", call.Payload["chat_id"])
	assert.Equal(t, "MarkdownV2", call.Payload["parse_mode"])
}

func TestPublishPhotoFallsBackToText(t *testing.T) {
	c, calls := newFakeAPI(t, true)

	err := c.Publish(context.Background(), Post{
		Title:    "Title",
		Summary:  "Підсумок новини для каналу.",
		Link:     "https://example.com/a",
		ImageURL: "https://cdn.example.com/broken.jpg",
	})
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, "sendPhoto", (*calls)[0].Method)
	assert.Equal(t, "sendMessage", (*calls)[1].Method)
}

func TestPublishTextOnly(t *testing.T) {
	c, calls := newFakeAPI(t, false)

	err := c.Publish(context.Background(), Post{
		Title:   "Title",
		Summary: "Підсумок новини для каналу.",
		Link:    "https://example.com/a",
	})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	assert.Equal(t, "sendMessage", (*calls)[0].Method)
}
