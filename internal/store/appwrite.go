package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"engnews/internal/config"
	"engnews/internal/logger"
	"engnews/internal/retry"
)

// AppwriteStore keeps published records in an Appwrite collection with
// attributes news_url, title and published_at.
type AppwriteStore struct {
	cfg    config.AppwriteConfig
	client *http.Client
}

var _ Store = (*AppwriteStore)(nil)

func NewAppwriteStore(cfg config.AppwriteConfig, timeout time.Duration) *AppwriteStore {
	return &AppwriteStore{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *AppwriteStore) documentsURL() string {
	return fmt.Sprintf("%s/databases/%s/collections/%s/documents",
		s.cfg.Endpoint, s.cfg.DatabaseID, s.cfg.CollectionID)
}

func (s *AppwriteStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", s.cfg.ProjectID)
	req.Header.Set("X-Appwrite-Key", s.cfg.APIKey)
}

// IsPublished queries the collection for an exact news_url match.
func (s *AppwriteStore) IsPublished(ctx context.Context, rawURL string) bool {
	key := NormalizeKey(rawURL)

	query := url.Values{}
	query.Add("queries[]", fmt.Sprintf(`equal("news_url", [%q])`, key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.documentsURL()+"?"+query.Encode(), nil)
	if err != nil {
		logger.Warn("store: build query failed, treating as unpublished", "error", err)
		return false
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn("store: query failed, treating as unpublished", "url", key, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("store: query returned non-OK, treating as unpublished", "url", key, "status", resp.StatusCode)
		return false
	}

	var result struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warn("store: bad query response, treating as unpublished", "url", key, "error", err)
		return false
	}

	return result.Total > 0
}

// Record inserts one published document. A concurrent run inserting the
// same URL just leaves a second informational record.
func (s *AppwriteStore) Record(ctx context.Context, rawURL, title string) {
	payload := map[string]interface{}{
		"documentId": "unique()",
		"data": map[string]string{
			"news_url":     NormalizeKey(rawURL),
			"title":        capTitle(title),
			"published_at": time.Now().UTC().Format(time.RFC3339),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("store: marshal record failed", "error", err)
		return
	}

	err = retry.WithRetry(ctx, retry.Config{MaxAttempts: 2, Delay: time.Second}, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.documentsURL(), bytes.NewReader(body))
		if err != nil {
			return err
		}
		s.setHeaders(req)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 300 {
			return fmt.Errorf("appwrite returned status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		logger.Error("store: record failed, duplicate post possible next run", "url", rawURL, "error", err)
	}
}

func (s *AppwriteStore) Close() error { return nil }
