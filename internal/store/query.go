// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/jats-engine/pkg/types"
)

// QueryOptions holds parameters for reference queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Kind filters by resolved value kind.
	Kind types.ValueKind

	// ArticleID filters by article.
	ArticleID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Kind == "" && q.ArticleID == ""
}

// QueryResult is one stored reference.
type QueryResult struct {
	ArticleID string          `json:"article_id" yaml:"article_id"`
	Index     int             `json:"index" yaml:"index"`
	Kind      types.ValueKind `json:"kind" yaml:"kind"`
	TargetID  string          `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Content   string          `json:"content" yaml:"content"`
	Entry     types.RefEntry  `json:"entry" yaml:"entry"`
}

// Query searches stored references with optional full-text search and
// filters. Results are ranked by relevance for full-text queries, otherwise
// sorted by article and index.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.article_id, r.idx, r.kind, r.target_id, r.content, r.data
			FROM refs_fts
			JOIN refs r ON r.rowid = refs_fts.rowid
			WHERE refs_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.article_id, r.idx, r.kind, r.target_id, r.content, r.data
			FROM refs r
			WHERE 1=1`)
	}

	if opts.Kind != "" {
		qb.WriteString(` AND r.kind = ?`)
		args = append(args, string(opts.Kind))
	}
	if opts.ArticleID != "" {
		qb.WriteString(` AND r.article_id = ?`)
		args = append(args, opts.ArticleID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY refs_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.article_id, r.idx`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying references: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			kind     string
			targetID *string
			data     string
		)
		if err := rows.Scan(&qr.ArticleID, &qr.Index, &kind, &targetID, &qr.Content, &data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Kind = types.ValueKind(kind)
		if targetID != nil {
			qr.TargetID = *targetID
		}
		if err := json.Unmarshal([]byte(data), &qr.Entry); err != nil {
			return nil, fmt.Errorf("decoding ref %s/%d: %w", qr.ArticleID, qr.Index, err)
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// Articles returns the ids of indexed articles in order.
func (s *Store) Articles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes an article and its references.
func (s *Store) Delete(ctx context.Context, articleID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, articleID); err != nil {
		return fmt.Errorf("deleting article %s: %w", articleID, err)
	}
	return nil
}
