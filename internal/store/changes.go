package store

import "fmt"

func (s *Store) InsertChangeRecord(r *ChangeRecord) error {
	return insertChangeRecord(s.db, r)
}

func insertChangeRecord(e execer, r *ChangeRecord) error {
	_, err := e.Exec(
		`INSERT INTO change_records (id, context, changed_entity, author, kind, attribute, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Context, r.ChangedEntity, r.Author, r.Kind, r.Attribute, r.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert change record: %w", err)
	}
	return nil
}

// ChangeRecords returns the records about entity stored in contexts, oldest
// first.
func (s *Store) ChangeRecords(entity string, contexts []string) ([]*ChangeRecord, error) {
	in, args := inClause("context", contexts)
	rows, err := s.db.Query(
		`SELECT id, context, changed_entity, author, kind, attribute, recorded_at
		 FROM change_records WHERE changed_entity = ? AND `+in+`
		 ORDER BY recorded_at, id`, append([]any{entity}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("change records: %w", err)
	}
	defer rows.Close()
	var out []*ChangeRecord
	for rows.Next() {
		r := &ChangeRecord{}
		if err := rows.Scan(&r.ID, &r.Context, &r.ChangedEntity, &r.Author, &r.Kind, &r.Attribute, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan change record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
