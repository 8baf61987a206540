package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/feedscope/feedscope/core"
	"github.com/feedscope/feedscope/storage"
)

// SQLite extended result codes for primary key and unique violations.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	image_path TEXT NOT NULL,
	text_content TEXT NOT NULL,
	embedding BLOB,
	sentiment_score REAL,
	sentiment_label TEXT,
	entities TEXT,
	keywords TEXT,
	topic_id INTEGER,
	topic_probability REAL
);

CREATE TABLE IF NOT EXISTS topics (
	id INTEGER PRIMARY KEY,
	keywords TEXT NOT NULL,
	keyword_weights TEXT NOT NULL,
	post_count INTEGER NOT NULL,
	first_seen INTEGER NOT NULL,
	last_seen INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS patterns (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	pattern_type TEXT NOT NULL,
	details TEXT NOT NULL,
	confidence REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_timestamp ON posts(timestamp);
CREATE INDEX IF NOT EXISTS idx_topic ON posts(topic_id);
`

// Store implements storage.PostRepository on SQLite. The topics and patterns
// tables are created alongside posts for forward compatibility; the current
// pipeline never writes to them.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.PostRepository = (*Store)(nil)

// Open opens (or creates) the analysis database at path and applies the
// schema. A single connection is used so statements are serialized at the
// storage engine, matching the single-logical-writer contract.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: slog.Default().With("component", "poststore"),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// isDuplicateErr reports whether err is a primary-key or unique violation.
func isDuplicateErr(err error) bool {
	type coder interface{ Code() int }
	var c coder
	if errors.As(err, &c) {
		code := c.Code()
		if code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InsertPost writes one post row, all-or-nothing.
func (s *Store) InsertPost(ctx context.Context, post *core.AnalyzedPost) error {
	if err := core.ValidatePost(post); err != nil {
		return err
	}

	entities, err := json.Marshal(post.Entities)
	if err != nil {
		return fmt.Errorf("%w: entities: %w", storage.ErrEncodingFailed, err)
	}
	keywords, err := json.Marshal(post.Keywords)
	if err != nil {
		return fmt.Errorf("%w: keywords: %w", storage.ErrEncodingFailed, err)
	}

	// Absent optional fields persist as NULL, never a sentinel.
	var embedding any
	if post.Embedding != nil {
		embedding = EncodeVector(post.Embedding)
	}
	var score, topicProb any
	if post.SentimentScore != nil {
		score = float64(*post.SentimentScore)
	}
	if post.TopicProbability != nil {
		topicProb = float64(*post.TopicProbability)
	}
	var label, topicID any
	if post.SentimentLabel != nil {
		label = *post.SentimentLabel
	}
	if post.TopicID != nil {
		topicID = *post.TopicID
	}

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO posts (id, timestamp, image_path, text_content, embedding,
			sentiment_score, sentiment_label, entities, keywords,
			topic_id, topic_probability)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: insert: %w", storage.ErrPrepareFailed, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		post.ID.String(),
		post.Timestamp.UnixMicro(),
		post.ImagePath,
		post.TextContent,
		embedding,
		score,
		label,
		string(entities),
		string(keywords),
		topicID,
		topicProb,
	)
	if err != nil {
		if isDuplicateErr(err) {
			return fmt.Errorf("%w: post %s", storage.ErrDuplicateID, post.ID)
		}
		return fmt.Errorf("inserting post %s: %w", post.ID, err)
	}

	return nil
}

const postColumns = `id, timestamp, image_path, text_content, embedding,
	sentiment_score, sentiment_label, entities, keywords, topic_id, topic_probability`

// FetchRecent returns up to limit posts, newest first. Rows whose stored
// fields cannot be decoded are skipped, not fatal.
func (s *Store) FetchRecent(ctx context.Context, limit int) ([]*core.AnalyzedPost, error) {
	return s.fetch(ctx, `
		SELECT `+postColumns+`
		FROM posts ORDER BY timestamp DESC LIMIT ?`, limit)
}

// FetchUnembedded returns up to limit posts that have no embedding yet,
// oldest first. Used to select posts for reprocessing.
func (s *Store) FetchUnembedded(ctx context.Context, limit int) ([]*core.AnalyzedPost, error) {
	return s.fetch(ctx, `
		SELECT `+postColumns+`
		FROM posts WHERE embedding IS NULL ORDER BY timestamp ASC LIMIT ?`, limit)
}

func (s *Store) fetch(ctx context.Context, query string, limit int) ([]*core.AnalyzedPost, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []*core.AnalyzedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			s.logger.Warn("skipping malformed post row", "err", err)
			continue
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, nil
}

func scanPost(rows *sql.Rows) (*core.AnalyzedPost, error) {
	var (
		idStr        string
		micros       int64
		imagePath    string
		textContent  string
		embedding    []byte
		score        sql.NullFloat64
		label        sql.NullString
		entitiesJSON sql.NullString
		keywordsJSON sql.NullString
		topicID      sql.NullInt64
		topicProb    sql.NullFloat64
	)

	if err := rows.Scan(&idStr, &micros, &imagePath, &textContent, &embedding,
		&score, &label, &entitiesJSON, &keywordsJSON, &topicID, &topicProb); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing post id %q: %w", idStr, err)
	}

	post := &core.AnalyzedPost{
		ID:          id,
		Timestamp:   time.UnixMicro(micros).UTC(),
		ImagePath:   imagePath,
		TextContent: textContent,
		Entities:    map[string][]string{},
		Keywords:    []string{},
	}

	if embedding != nil {
		post.Embedding, err = DecodeVector(embedding)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}
	}

	if entitiesJSON.Valid && entitiesJSON.String != "" {
		if err := json.Unmarshal([]byte(entitiesJSON.String), &post.Entities); err != nil {
			return nil, fmt.Errorf("decoding entities for %s: %w", id, err)
		}
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &post.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords for %s: %w", id, err)
		}
	}

	if score.Valid {
		v := float32(score.Float64)
		post.SentimentScore = &v
	}
	if label.Valid {
		v := label.String
		post.SentimentLabel = &v
	}
	if topicID.Valid {
		v := topicID.Int64
		post.TopicID = &v
	}
	if topicProb.Valid {
		v := float32(topicProb.Float64)
		post.TopicProbability = &v
	}

	return post, nil
}

// DeleteAllPosts irreversibly removes all post rows. Topics and patterns are
// not touched.
func (s *Store) DeleteAllPosts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrDeleteFailed, err)
	}
	return nil
}
