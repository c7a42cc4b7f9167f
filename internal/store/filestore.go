package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"engnews/internal/logger"
)

// PublishedRecord is one delivered article, as stored on disk.
type PublishedRecord struct {
	NewsURL     string    `json:"news_url"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// FileStore keeps published records in a local JSON file. Meant for dev
// runs and tests; a hosted deployment uses Appwrite or Postgres.
type FileStore struct {
	path  string
	mu    sync.Mutex
	items map[string]PublishedRecord
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:  path,
		items: make(map[string]PublishedRecord),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var records []PublishedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse store file: %w", err)
	}

	for _, rec := range records {
		fs.items[rec.NewsURL] = rec
	}
	return nil
}

func (fs *FileStore) save() error {
	records := make([]PublishedRecord, 0, len(fs.items))
	for _, rec := range fs.items {
		records = append(records, rec)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path, data, 0644)
}

func (fs *FileStore) IsPublished(_ context.Context, rawURL string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_, ok := fs.items[NormalizeKey(rawURL)]
	return ok
}

func (fs *FileStore) Record(_ context.Context, rawURL, title string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := NormalizeKey(rawURL)
	fs.items[key] = PublishedRecord{
		NewsURL:     key,
		Title:       capTitle(title),
		PublishedAt: time.Now().UTC(),
	}

	if err := fs.save(); err != nil {
		logger.Error("store: save failed, duplicate post possible next run", "url", rawURL, "error", err)
	}
}

func (fs *FileStore) Close() error { return nil }
