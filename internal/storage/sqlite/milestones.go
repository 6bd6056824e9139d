package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ripplework/ripple/internal/types"
)

// GetMilestone retrieves a milestone by ID
func (s *SQLiteStorage) GetMilestone(ctx context.Context, id string) (*types.Milestone, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, items, complete, progress, prior_progress
		FROM milestones WHERE id = ?`, id)
	m, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: milestone %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone %s: %w", id, err)
	}
	return m, nil
}

// PutMilestone inserts or updates a milestone
func (s *SQLiteStorage) PutMilestone(ctx context.Context, m *types.Milestone) error {
	if m.ID == "" {
		return fmt.Errorf("%w: milestone id is required", types.ErrInvalidArgument)
	}
	items, err := json.Marshal(emptySlice(m.Items))
	if err != nil {
		return fmt.Errorf("failed to encode milestone %s: %w", m.ID, err)
	}
	complete, err := json.Marshal(emptySlice(m.Complete))
	if err != nil {
		return fmt.Errorf("failed to encode milestone %s: %w", m.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO milestones (id, name, items, complete, progress, prior_progress)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			items = excluded.items,
			complete = excluded.complete,
			progress = excluded.progress,
			prior_progress = excluded.prior_progress
	`, m.ID, m.Name, string(items), string(complete), m.Progress, m.PriorProgress)
	if err != nil {
		return fmt.Errorf("failed to put milestone %s: %w", m.ID, err)
	}
	return nil
}

// ListMilestones returns all milestones ordered by ID
func (s *SQLiteStorage) ListMilestones(ctx context.Context) ([]*types.Milestone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, items, complete, progress, prior_progress
		FROM milestones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []*types.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func scanMilestone(row rowScanner) (*types.Milestone, error) {
	var m types.Milestone
	var items, complete string
	if err := row.Scan(&m.ID, &m.Name, &items, &complete, &m.Progress, &m.PriorProgress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &m.Items); err != nil {
		return nil, fmt.Errorf("failed to decode milestone %s items: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(complete), &m.Complete); err != nil {
		return nil, fmt.Errorf("failed to decode milestone %s complete: %w", m.ID, err)
	}
	return &m, nil
}
