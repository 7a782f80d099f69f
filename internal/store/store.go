// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists resolved article references in SQLite and indexes
// their text with FTS5 for retrieval across many articles.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/jats-engine/internal/render"
	"github.com/pdiddy/jats-engine/pkg/types"
)

const (
	dbFile            = "jats.db"
	defaultMaxResults = 20
)

// Store manages the reference index database.
type Store struct {
	db         *sql.DB
	indexDir   string
	maxResults int
}

// NewStore opens or creates the database at cfg.IndexDir/jats.db and
// creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, indexDir: cfg.IndexDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			source TEXT,
			run_id TEXT NOT NULL,
			indexed_at TEXT NOT NULL,
			paragraphs INTEGER NOT NULL DEFAULT 0,
			warnings INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS refs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			kind TEXT NOT NULL,
			target_id TEXT,
			content TEXT NOT NULL,
			data TEXT NOT NULL,
			UNIQUE(article_id, idx)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_article_id ON refs(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_kind ON refs(kind)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='refs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE refs_fts USING fts5(content, content=refs, content_rowid=rowid)`,
		`CREATE TRIGGER refs_ai AFTER INSERT ON refs BEGIN
			INSERT INTO refs_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER refs_ad AFTER DELETE ON refs BEGIN
			INSERT INTO refs_fts(refs_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER refs_au AFTER UPDATE ON refs BEGIN
			INSERT INTO refs_fts(refs_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO refs_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	RunID   string
	Indexed int
	Updated int
	Failed  int
}

// Total returns the number of articles processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Failed
}

// Ingest stores the resolved references of each record. An article already
// in the index has its rows replaced. Each article is written in its own
// transaction; a failure is reported to w and does not stop the run.
func (s *Store) Ingest(ctx context.Context, recs []*types.ArticleRecord, w io.Writer) (IngestSummary, error) {
	summary := IngestSummary{RunID: uuid.NewString()}
	now := time.Now().UTC().Format(time.RFC3339)

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		existed, err := s.ingestArticle(ctx, rec, summary.RunID, now)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.ID, err)
			summary.Failed++
			continue
		}
		if existed {
			fmt.Fprintf(w, "updated %s (%d refs)\n", rec.ID, len(rec.References))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d refs)\n", rec.ID, len(rec.References))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, failed: %d (run %s)\n",
		summary.Indexed, summary.Updated, summary.Failed, summary.RunID)
	return summary, nil
}

func (s *Store) ingestArticle(ctx context.Context, rec *types.ArticleRecord, runID, now string) (bool, error) {
	if rec.ID == "" {
		return false, fmt.Errorf("article has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM articles WHERE id = ?`, rec.ID).Scan(&n); err != nil {
		return false, fmt.Errorf("checking article: %w", err)
	}
	existed := n > 0

	if _, err := tx.ExecContext(ctx, `DELETE FROM refs WHERE article_id = ?`, rec.ID); err != nil {
		return false, fmt.Errorf("deleting old refs: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO articles (id, source, run_id, indexed_at, paragraphs, warnings)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source=excluded.source, run_id=excluded.run_id, indexed_at=excluded.indexed_at,
			paragraphs=excluded.paragraphs, warnings=excluded.warnings`,
		rec.ID, rec.Source, runID, now, countParagraphs(rec), len(rec.Warnings),
	)
	if err != nil {
		return false, fmt.Errorf("upserting article: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO refs (article_id, idx, kind, target_id, content, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range rec.References {
		data, err := json.Marshal(e)
		if err != nil {
			return false, fmt.Errorf("encoding ref %d: %w", e.Index, err)
		}
		_, err = stmt.ExecContext(ctx,
			rec.ID, e.Index, string(e.Kind), TargetID(e), render.Describe(e), string(data),
		)
		if err != nil {
			return false, fmt.Errorf("inserting ref %d: %w", e.Index, err)
		}
	}

	return existed, tx.Commit()
}

// TargetID returns the id of the element a reference resolved to.
func TargetID(e types.RefEntry) string {
	switch {
	case e.Citation != nil:
		return e.Citation.ID
	case e.Table != nil:
		return e.Table.ID
	case e.Figure != nil:
		return e.Figure.ID
	case e.Fallback != nil:
		return e.Fallback.ID
	}
	return ""
}

func countParagraphs(rec *types.ArticleRecord) int {
	var count func(n *types.NodeRecord) int
	count = func(n *types.NodeRecord) int {
		if n == nil {
			return 0
		}
		if n.Type == types.NodeParagraph {
			return 1
		}
		total := 0
		for i := range n.Children {
			total += count(&n.Children[i])
		}
		return total
	}
	return count(rec.Abstract) + count(rec.Body)
}
