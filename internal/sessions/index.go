package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/radium-run/radium/pkg/radium"
)

// Index is a queryable secondary index over the on-disk session store,
// grounded on internal/sessions/cockroach.go's prepared-statement-over-a-
// sessions-table shape, but backed by modernc.org/sqlite's
// pure-Go driver instead of CockroachDB/pgx — nothing in this module runs
// sessions across multiple processes, so a local file is sufficient and
// the sessions themselves remain the JSON-per-directory layout spec.md §4.5
// names; this index only accelerates List.
type Index struct {
	db *sql.DB

	stmtUpsert *sql.Stmt
	stmtDelete *sql.Stmt
	stmtQuery  *sql.Stmt
}

// NewIndex opens (creating if necessary) a sqlite index file under dir.
func NewIndex(dir string) (*Index, error) {
	path := filepath.Join(dir, "index.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessions: open index: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions_index (
			id          TEXT PRIMARY KEY,
			agent_id    TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL DEFAULT '',
			last_active INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_agent ON sessions_index(agent_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions_index(state);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessions: create index schema: %w", err)
	}

	upsert, err := db.Prepare(`
		INSERT INTO sessions_index (id, agent_id, state, last_active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET agent_id = excluded.agent_id, state = excluded.state, last_active = excluded.last_active
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sessions: prepare upsert: %w", err)
	}
	del, err := db.Prepare(`DELETE FROM sessions_index WHERE id = ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sessions: prepare delete: %w", err)
	}
	query, err := db.Prepare(`
		SELECT id FROM sessions_index
		WHERE (? = '' OR agent_id = ?) AND (? = '' OR state = ?)
		ORDER BY last_active DESC
		LIMIT ? OFFSET ?
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sessions: prepare query: %w", err)
	}

	return &Index{db: db, stmtUpsert: upsert, stmtDelete: del, stmtQuery: query}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error { return idx.db.Close() }

// Upsert records or refreshes session's index row.
func (idx *Index) Upsert(ctx context.Context, session *radium.Session) error {
	_, err := idx.stmtUpsert.ExecContext(ctx, session.ID, session.AgentID, string(session.State), session.LastActive.Unix())
	return err
}

// Remove drops a session's index row.
func (idx *Index) Remove(ctx context.Context, sessionID string) error {
	_, err := idx.stmtDelete.ExecContext(ctx, sessionID)
	return err
}

// Query returns matching session ids, newest last_active first, paginated.
func (idx *Index) Query(ctx context.Context, opts ListOptions) ([]string, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	offset := (page - 1) * size

	rows, err := idx.stmtQuery.QueryContext(ctx, opts.AgentID, opts.AgentID, string(opts.State), string(opts.State), size, offset)
	if err != nil {
		return nil, fmt.Errorf("sessions: query index: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sessions: scan index row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
