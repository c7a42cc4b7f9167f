package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"engnews/internal/logger"
)

// PostgresStore keeps published records in a published_news table.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS published_news (
		id SERIAL PRIMARY KEY,
		news_url TEXT UNIQUE NOT NULL,
		title VARCHAR(255),
		published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_published_news_url ON published_news(news_url);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsPublished(ctx context.Context, rawURL string) bool {
	query, args, err := s.builder.
		Select("COUNT(*)").
		From("published_news").
		Where(sq.Eq{"news_url": NormalizeKey(rawURL)}).
		ToSql()
	if err != nil {
		logger.Warn("store: build query failed, treating as unpublished", "error", err)
		return false
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		logger.Warn("store: query failed, treating as unpublished", "url", rawURL, "error", err)
		return false
	}

	return count > 0
}

func (s *PostgresStore) Record(ctx context.Context, rawURL, title string) {
	// ON CONFLICT keeps the race between overlapping runs harmless.
	query, args, err := s.builder.
		Insert("published_news").
		Columns("news_url", "title", "published_at").
		Values(NormalizeKey(rawURL), capTitle(title), time.Now().UTC()).
		Suffix("ON CONFLICT (news_url) DO NOTHING").
		ToSql()
	if err != nil {
		logger.Error("store: build insert failed", "error", err)
		return
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("store: record failed, duplicate post possible next run", "url", rawURL, "error", err)
	}
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
