package sqlite

const schema = `
-- Work items table. The archived column partitions the active and archive
-- namespaces; archival flips the flag and never deletes the row.
CREATE TABLE IF NOT EXISTS work_items (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL CHECK(length(title) <= 500),
    status TEXT NOT NULL DEFAULT 'active',
    work_type TEXT NOT NULL DEFAULT 'feature',
    cycle_phase TEXT NOT NULL DEFAULT '',
    queue_position TEXT NOT NULL DEFAULT 'backlog',
    priority TEXT NOT NULL DEFAULT 'medium',
    milestone TEXT,
    acceptance_criteria TEXT NOT NULL DEFAULT '',
    archived INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    last_touched_session INTEGER NOT NULL DEFAULT 0,
    blocked_by TEXT NOT NULL DEFAULT '[]',
    node_history TEXT NOT NULL DEFAULT '[]',
    memory_refs TEXT NOT NULL DEFAULT '[]',
    related TEXT NOT NULL DEFAULT '[]',
    requirement_refs TEXT NOT NULL DEFAULT '[]',
    source_files TEXT NOT NULL DEFAULT '[]',
    artifacts TEXT NOT NULL DEFAULT '[]',
    extensions TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    closed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items(status);
CREATE INDEX IF NOT EXISTS idx_work_items_archived ON work_items(archived);
CREATE INDEX IF NOT EXISTS idx_work_items_queue_position ON work_items(queue_position);
CREATE INDEX IF NOT EXISTS idx_work_items_milestone ON work_items(milestone);

-- Milestones table
CREATE TABLE IF NOT EXISTS milestones (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    items TEXT NOT NULL DEFAULT '[]',
    complete TEXT NOT NULL DEFAULT '[]',
    progress INTEGER NOT NULL DEFAULT 0,
    prior_progress INTEGER NOT NULL DEFAULT 0
);

-- Config table for storage-level settings
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
