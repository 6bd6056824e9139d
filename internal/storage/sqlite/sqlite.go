package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ripplework/ripple/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// CreateItem inserts a work item, or overwrites an existing row with the
// same ID. The overwrite path exists because creation over a non-terminal
// record is an idempotent re-create; the engine rejects terminal IDs before
// calling this. The stored version still advances on overwrite so stale
// readers of the old record cannot write it back.
func (s *SQLiteStorage) CreateItem(ctx context.Context, item *types.WorkItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// IMMEDIATE acquires the write lock up front so the version read and
	// the insert happen atomically across concurrent writers.
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin immediate transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var oldVersion int
	err = conn.QueryRowContext(ctx,
		`SELECT version FROM work_items WHERE id = ?`, item.ID).Scan(&oldVersion)
	switch {
	case err == sql.ErrNoRows:
		item.Version = 1
	case err != nil:
		return fmt.Errorf("failed to read existing version: %w", err)
	default:
		item.Version = oldVersion + 1
	}

	cols, err := encodeItem(item)
	if err != nil {
		return err
	}

	_, err = conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO work_items (
			id, title, status, work_type, cycle_phase, queue_position,
			priority, milestone, acceptance_criteria, archived, version,
			last_touched_session, blocked_by, node_history, memory_refs,
			related, requirement_refs, source_files, artifacts, extensions,
			created_at, updated_at, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, item.Title, item.Status, item.Type, item.CyclePhase,
		item.QueuePosition, item.Priority, nullString(item.Milestone),
		item.AcceptanceCriteria, 0, item.Version, item.LastTouchedSession,
		cols.blockedBy, cols.nodeHistory, cols.memoryRefs, cols.related,
		cols.requirementRefs, cols.sourceFiles, cols.artifacts,
		cols.extensions, item.CreatedAt, item.UpdatedAt, item.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert work item: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// GetItem retrieves a work item by ID, looking in the active namespace
// first, then the archive.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*types.WorkItem, error) {
	row := s.db.QueryRowContext(ctx, selectItems+`
		WHERE id = ? ORDER BY archived ASC LIMIT 1`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work item %s: %w", id, err)
	}
	return item, nil
}

// PutItem persists a mutated work item. The caller's Version must match
// the stored row; on success the stored version is incremented and the
// in-memory item updated to match. A mismatch returns ErrVersionConflict.
func (s *SQLiteStorage) PutItem(ctx context.Context, item *types.WorkItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	item.UpdatedAt = time.Now()
	cols, err := encodeItem(item)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE work_items SET
			title = ?, status = ?, work_type = ?, cycle_phase = ?,
			queue_position = ?, priority = ?, milestone = ?,
			acceptance_criteria = ?, version = version + 1,
			last_touched_session = ?, blocked_by = ?, node_history = ?,
			memory_refs = ?, related = ?, requirement_refs = ?,
			source_files = ?, artifacts = ?, extensions = ?,
			updated_at = ?, closed_at = ?
		WHERE id = ? AND version = ?
	`,
		item.Title, item.Status, item.Type, item.CyclePhase,
		item.QueuePosition, item.Priority, nullString(item.Milestone),
		item.AcceptanceCriteria, item.LastTouchedSession, cols.blockedBy,
		cols.nodeHistory, cols.memoryRefs, cols.related,
		cols.requirementRefs, cols.sourceFiles, cols.artifacts,
		cols.extensions, item.UpdatedAt, item.ClosedAt,
		item.ID, item.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update work item %s: %w", item.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a version race.
		var stored int
		err := s.db.QueryRowContext(ctx,
			`SELECT version FROM work_items WHERE id = ?`, item.ID).Scan(&stored)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", types.ErrNotFound, item.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to check stored version for %s: %w", item.ID, err)
		}
		return fmt.Errorf("%w: %s (stored version %d, caller had %d)",
			types.ErrVersionConflict, item.ID, stored, item.Version)
	}

	item.Version++
	return nil
}

// ListActive returns all work items in the active namespace.
func (s *SQLiteStorage) ListActive(ctx context.Context) ([]*types.WorkItem, error) {
	return s.listItems(ctx, 0)
}

// ListArchived returns all work items in the archive namespace.
func (s *SQLiteStorage) ListArchived(ctx context.Context) ([]*types.WorkItem, error) {
	return s.listItems(ctx, 1)
}

func (s *SQLiteStorage) listItems(ctx context.Context, archived int) ([]*types.WorkItem, error) {
	rows, err := s.db.QueryContext(ctx, selectItems+`
		WHERE archived = ? ORDER BY id`, archived)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []*types.WorkItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ArchiveItem moves a record from the active namespace to the archive
// namespace. The record and all its substructure are preserved.
func (s *SQLiteStorage) ArchiveItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE work_items
		SET archived = 1, status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND archived = 0
	`, types.StatusArchived, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to archive work item %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check archive result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return nil
}

// GetConfig retrieves a storage-level config value
func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, nil
}

// SetConfig stores a storage-level config value
func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const selectItems = `
	SELECT id, title, status, work_type, cycle_phase, queue_position,
	       priority, milestone, acceptance_criteria, version,
	       last_touched_session, blocked_by, node_history, memory_refs,
	       related, requirement_refs, source_files, artifacts, extensions,
	       created_at, updated_at, closed_at
	FROM work_items`

// jsonColumns holds the JSON-encoded nested fields of a work item row.
type jsonColumns struct {
	blockedBy       string
	nodeHistory     string
	memoryRefs      string
	related         string
	requirementRefs string
	sourceFiles     string
	artifacts       string
	extensions      string
}

func encodeItem(item *types.WorkItem) (*jsonColumns, error) {
	cols := &jsonColumns{}
	for _, enc := range []struct {
		dst *string
		src any
	}{
		{&cols.blockedBy, emptySlice(item.BlockedBy)},
		{&cols.nodeHistory, item.NodeHistory},
		{&cols.memoryRefs, emptySlice(item.MemoryRefs)},
		{&cols.related, emptySlice(item.Related)},
		{&cols.requirementRefs, emptySlice(item.RequirementRefs)},
		{&cols.sourceFiles, emptySlice(item.SourceFiles)},
		{&cols.artifacts, emptySlice(item.Artifacts)},
		{&cols.extensions, emptyMap(item.Extensions)},
	} {
		data, err := json.Marshal(enc.src)
		if err != nil {
			return nil, fmt.Errorf("failed to encode work item %s: %w", item.ID, err)
		}
		*enc.dst = string(data)
	}
	return cols, nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*types.WorkItem, error) {
	var item types.WorkItem
	var milestone sql.NullString
	var closedAt sql.NullTime
	var cols jsonColumns

	err := row.Scan(
		&item.ID, &item.Title, &item.Status, &item.Type, &item.CyclePhase,
		&item.QueuePosition, &item.Priority, &milestone,
		&item.AcceptanceCriteria, &item.Version, &item.LastTouchedSession,
		&cols.blockedBy, &cols.nodeHistory, &cols.memoryRefs, &cols.related,
		&cols.requirementRefs, &cols.sourceFiles, &cols.artifacts,
		&cols.extensions, &item.CreatedAt, &item.UpdatedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	if milestone.Valid {
		item.Milestone = milestone.String
	}
	if closedAt.Valid {
		item.ClosedAt = &closedAt.Time
	}

	for _, dec := range []struct {
		src string
		dst any
	}{
		{cols.blockedBy, &item.BlockedBy},
		{cols.nodeHistory, &item.NodeHistory},
		{cols.memoryRefs, &item.MemoryRefs},
		{cols.related, &item.Related},
		{cols.requirementRefs, &item.RequirementRefs},
		{cols.sourceFiles, &item.SourceFiles},
		{cols.artifacts, &item.Artifacts},
		{cols.extensions, &item.Extensions},
	} {
		if dec.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(dec.src), dec.dst); err != nil {
			return nil, fmt.Errorf("failed to decode work item %s: %w", item.ID, err)
		}
	}
	return &item, nil
}
