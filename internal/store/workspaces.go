package store

import (
	"database/sql"
	"fmt"
)

// --- Workspace operations ---

func (s *Store) InsertWorkspace(ws *Workspace) error {
	_, err := s.db.Exec(
		"INSERT INTO workspaces (uri, label, description) VALUES (?, ?, ?)",
		ws.URI, ws.Label, ws.Description,
	)
	if err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

// WorkspaceByURI returns the workspace or nil when it does not exist.
func (s *Store) WorkspaceByURI(uri string) (*Workspace, error) {
	ws := &Workspace{}
	err := s.db.QueryRow(
		"SELECT uri, label, description FROM workspaces WHERE uri = ?", uri,
	).Scan(&ws.URI, &ws.Label, &ws.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workspace by uri: %w", err)
	}
	return ws, nil
}

func (s *Store) Workspaces() ([]*Workspace, error) {
	rows, err := s.db.Query("SELECT uri, label, description FROM workspaces ORDER BY label COLLATE label_order")
	if err != nil {
		return nil, fmt.Errorf("workspaces: %w", err)
	}
	defer rows.Close()
	var out []*Workspace
	for rows.Next() {
		ws := &Workspace{}
		if err := rows.Scan(&ws.URI, &ws.Label, &ws.Description); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// --- Context operations ---

// UpsertContext creates or replaces a context description.
func (s *Store) UpsertContext(c *Context) error {
	return upsertContext(s.db, c)
}

func upsertContext(e execer, c *Context) error {
	_, err := e.Exec(
		`INSERT INTO contexts (uri, vocabulary, based_on_version, change_tracking_context)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(uri) DO UPDATE SET
		   vocabulary = excluded.vocabulary,
		   based_on_version = excluded.based_on_version,
		   change_tracking_context = excluded.change_tracking_context`,
		c.URI, nullString(c.Vocabulary), nullString(c.BasedOnVersion), nullString(c.ChangeTrackingContext),
	)
	if err != nil {
		return fmt.Errorf("upsert context: %w", err)
	}
	return nil
}

// AddContextReference records that container references ctx. Idempotent.
func (s *Store) AddContextReference(container, ctx string) error {
	return addContextReference(s.db, container, ctx)
}

func addContextReference(e execer, container, ctx string) error {
	_, err := e.Exec(
		"INSERT OR IGNORE INTO context_references (container, context) VALUES (?, ?)",
		container, ctx,
	)
	if err != nil {
		return fmt.Errorf("add context reference: %w", err)
	}
	return nil
}

func (s *Store) RemoveContextReference(container, ctx string) error {
	return removeContextReference(s.db, container, ctx)
}

func removeContextReference(e execer, container, ctx string) error {
	_, err := e.Exec(
		"DELETE FROM context_references WHERE container = ? AND context = ?",
		container, ctx,
	)
	if err != nil {
		return fmt.Errorf("remove context reference: %w", err)
	}
	return nil
}

// ReferencedContexts returns every context the container references, in
// identifier order.
func (s *Store) ReferencedContexts(container string) ([]*Context, error) {
	rows, err := s.db.Query(
		`SELECT c.uri, c.vocabulary, c.based_on_version, c.change_tracking_context
		 FROM context_references r
		 JOIN contexts c ON c.uri = r.context
		 WHERE r.container = ?
		 ORDER BY c.uri`, container,
	)
	if err != nil {
		return nil, fmt.Errorf("referenced contexts: %w", err)
	}
	defer rows.Close()
	var out []*Context
	for rows.Next() {
		c := &Context{}
		if err := rows.Scan(&c.URI, &c.Vocabulary, &c.BasedOnVersion, &c.ChangeTrackingContext); err != nil {
			return nil, fmt.Errorf("scan context: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UniqueCanonicalContexts returns the contexts referenced by the canonical
// container that no context referenced by workspace declares as its
// based-on version.
func (s *Store) UniqueCanonicalContexts(container, workspace string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT r.context
		 FROM context_references r
		 WHERE r.container = ?
		   AND NOT EXISTS (
		     SELECT 1
		     FROM context_references wr
		     JOIN contexts wc ON wc.uri = wr.context
		     WHERE wr.container = ?
		       AND wc.based_on_version = r.context
		   )
		 ORDER BY r.context`, container, workspace,
	)
	if err != nil {
		return nil, fmt.Errorf("unique canonical contexts: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan canonical context: %w", err)
	}
	return out, nil
}
