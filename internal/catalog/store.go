package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"sprite-curator/internal/grid"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("catalog path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordProcessed stores (or replaces) a processed sheet and clears any
// pending review entry for the same sheet.
func (s *Store) RecordProcessed(ctx context.Context, p ProcessedSheet) error {
	if p.ID == "" {
		return errors.New("processed sheet has no id")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	directions, err := json.Marshal(p.Directions)
	if err != nil {
		return fmt.Errorf("marshal directions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	l := p.Layout
	_, err = tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO processed_sheets (
            id, run_id, title, source_path, frame_width, frame_height, columns, rows,
            total_frames, method, perfect_fit, extracted_frames, output_dir,
            direction_method, direction_verdict, direction_confidence, directions_json,
            group_count, largest_group, kind, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.RunID, nullableString(p.Title), p.SourcePath,
		l.FrameWidth, l.FrameHeight, l.Columns, l.Rows,
		l.TotalFrames, string(l.Method), boolToInt(l.PerfectFit), p.ExtractedFrames, nullableString(p.OutputDir),
		nullableString(p.DirectionMethod), nullableString(p.DirectionVerdict), p.DirectionConfidence, string(directions),
		p.GroupCount, p.LargestGroup, nullableString(p.Kind), p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert processed sheet: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM review_queue WHERE id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear review entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit processed sheet: %w", err)
	}
	return nil
}

// RecordReview stores (or replaces) a review entry.
func (s *Store) RecordReview(ctx context.Context, e ReviewEntry) error {
	if e.ID == "" {
		return errors.New("review entry has no id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = ReviewStatusPending
	}
	if e.Instructions == "" {
		e.Instructions = ReviewInstructions
	}
	candidates, err := json.Marshal(e.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO review_queue (
            id, run_id, title, image_path, image_width, image_height, verdict, reason,
            candidates_json, instructions, status, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, nullableString(e.Title), e.ImagePath, e.ImageWidth, e.ImageHeight,
		e.Verdict, nullableString(e.Reason), string(candidates), e.Instructions, e.Status,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert review entry: %w", err)
	}
	return nil
}

const processedColumns = `id, run_id, title, source_path, frame_width, frame_height, columns, rows,
    total_frames, method, perfect_fit, extracted_frames, output_dir,
    direction_method, direction_verdict, direction_confidence, directions_json,
    group_count, largest_group, kind, created_at`

// Processed fetches a processed sheet by id. Returns nil when absent.
func (s *Store) Processed(ctx context.Context, id string) (*ProcessedSheet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+processedColumns+` FROM processed_sheets WHERE id = ?`, id)
	p, err := scanProcessed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get processed sheet: %w", err)
	}
	return p, nil
}

// ProcessedSheets lists processed sheets, optionally restricted to one run.
func (s *Store) ProcessedSheets(ctx context.Context, runID string) ([]ProcessedSheet, error) {
	query := `SELECT ` + processedColumns + ` FROM processed_sheets`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processed sheets: %w", err)
	}
	defer rows.Close()

	var out []ProcessedSheet
	for rows.Next() {
		p, err := scanProcessed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processed sheet: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ReviewQueue lists pending review entries, oldest first.
func (s *Store) ReviewQueue(ctx context.Context) ([]ReviewEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, title, image_path, image_width, image_height, verdict, reason,
            candidates_json, instructions, status, created_at
         FROM review_queue WHERE status = ? ORDER BY created_at, id`,
		ReviewStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	defer rows.Close()

	var out []ReviewEntry
	for rows.Next() {
		var (
			e          ReviewEntry
			title      sql.NullString
			reason     sql.NullString
			candidates sql.NullString
			created    string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &title, &e.ImagePath, &e.ImageWidth, &e.ImageHeight,
			&e.Verdict, &reason, &candidates, &e.Instructions, &e.Status, &created); err != nil {
			return nil, fmt.Errorf("scan review entry: %w", err)
		}
		e.Title = title.String
		e.Reason = reason.String
		if candidates.Valid && candidates.String != "" {
			if err := json.Unmarshal([]byte(candidates.String), &e.Candidates); err != nil {
				return nil, fmt.Errorf("decode candidates for %s: %w", e.ID, err)
			}
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats returns catalog totals.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(extracted_frames), 0) FROM processed_sheets`,
	).Scan(&st.Processed, &st.ExtractedFrames); err != nil {
		return Stats{}, fmt.Errorf("count processed: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM review_queue WHERE status = ?`, ReviewStatusPending,
	).Scan(&st.NeedsReview); err != nil {
		return Stats{}, fmt.Errorf("count review queue: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProcessed(row scanner) (*ProcessedSheet, error) {
	var (
		p          ProcessedSheet
		title      sql.NullString
		outputDir  sql.NullString
		dirMethod  sql.NullString
		dirVerdict sql.NullString
		directions sql.NullString
		kind       sql.NullString
		method     string
		perfect    int
		created    string
	)
	l := &p.Layout
	if err := row.Scan(
		&p.ID, &p.RunID, &title, &p.SourcePath, &l.FrameWidth, &l.FrameHeight, &l.Columns, &l.Rows,
		&l.TotalFrames, &method, &perfect, &p.ExtractedFrames, &outputDir,
		&dirMethod, &dirVerdict, &p.DirectionConfidence, &directions,
		&p.GroupCount, &p.LargestGroup, &kind, &created,
	); err != nil {
		return nil, err
	}
	p.Title = title.String
	p.OutputDir = outputDir.String
	p.DirectionMethod = dirMethod.String
	p.DirectionVerdict = dirVerdict.String
	p.Kind = kind.String
	l.Method = grid.Method(method)
	l.PerfectFit = perfect != 0
	if directions.Valid && directions.String != "" && directions.String != "null" {
		if err := json.Unmarshal([]byte(directions.String), &p.Directions); err != nil {
			return nil, fmt.Errorf("decode directions for %s: %w", p.ID, err)
		}
	}
	p.CreatedAt = parseTime(created)
	return &p, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
