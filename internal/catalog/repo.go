package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/narrate/internal/apperr"
	"github.com/starford/narrate/internal/models"
)

const defaultLimit = 50

// Upsert inserts or replaces the narration record for n.Path.
func (db *DB) Upsert(n models.Narration) error {
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO narrations (path, slug, title, audio_url, checksum, words, size_bytes, duration_ms, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			slug        = excluded.slug,
			title       = excluded.title,
			audio_url   = excluded.audio_url,
			checksum    = excluded.checksum,
			words       = excluded.words,
			size_bytes  = excluded.size_bytes,
			duration_ms = excluded.duration_ms,
			run_id      = excluded.run_id,
			updated_at  = excluded.updated_at
	`, n.Path, n.Slug, n.Title, n.AudioURL, n.Checksum, n.Words, n.SizeBytes,
		n.Duration.Milliseconds(), n.RunID, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert: %w", err)
	}
	return nil
}

// Get returns the narration recorded for path, or apperr.ErrNotFound.
func (db *DB) Get(path string) (*models.Narration, error) {
	row := db.conn.QueryRow(`
		SELECT path, slug, title, audio_url, checksum, words, size_bytes, duration_ms, run_id, updated_at
		FROM narrations WHERE path = ?`, path)
	n, err := scanNarration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get: %w", err)
	}
	return n, nil
}

// List returns narrations ordered by most recent first, plus the total count.
func (db *DB) List(limit, offset int) ([]models.Narration, int, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM narrations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, slug, title, audio_url, checksum, words, size_bytes, duration_ms, run_id, updated_at
		FROM narrations ORDER BY updated_at DESC, path ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	out := []models.Narration{}
	for rows.Next() {
		n, err := scanNarration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// Delete removes the record for path. Missing records are not an error.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM narrations WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNarration(s scanner) (*models.Narration, error) {
	var (
		n          models.Narration
		durationMS int64
	)
	err := s.Scan(&n.Path, &n.Slug, &n.Title, &n.AudioURL, &n.Checksum, &n.Words,
		&n.SizeBytes, &durationMS, &n.RunID, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Duration = time.Duration(durationMS) * time.Millisecond
	return &n, nil
}
