package store

import (
	"database/sql"
	"fmt"
)

// --- Vocabulary writes ---

// InsertVocabulary stores the vocabulary and its imports in v.Context.
func (s *Store) InsertVocabulary(v *Vocabulary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("insert vocabulary: begin: %w", err)
	}
	defer tx.Rollback()
	if err := insertVocabulary(tx, v); err != nil {
		return err
	}
	return tx.Commit()
}

func insertVocabulary(tx *sql.Tx, v *Vocabulary) error {
	if _, err := tx.Exec(
		`INSERT INTO vocabularies (uri, context, label, description, glossary, model, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.URI, v.Context, v.Label, v.Description, v.Glossary, v.Model, nullString(v.Document),
	); err != nil {
		return fmt.Errorf("insert vocabulary: %w", err)
	}
	for _, imp := range v.Imports {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO vocabulary_imports (vocabulary, imported, context) VALUES (?, ?, ?)",
			v.URI, imp, v.Context,
		); err != nil {
			return fmt.Errorf("insert vocabulary import: %w", err)
		}
	}
	return nil
}

// CreateVocabularyContext stores c, the vocabulary v kept in it, and the
// reference from container to c, within a single transaction.
func (s *Store) CreateVocabularyContext(container string, c *Context, v *Vocabulary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("create vocabulary context: begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertContext(tx, c); err != nil {
		return fmt.Errorf("create vocabulary context: %w", err)
	}
	if err := insertVocabulary(tx, v); err != nil {
		return fmt.Errorf("create vocabulary context: %w", err)
	}
	if err := addContextReference(tx, container, c.URI); err != nil {
		return fmt.Errorf("create vocabulary context: %w", err)
	}
	return tx.Commit()
}

// RemoveVocabularyContext deletes the vocabulary stored in ctx and drops the
// reference from container to ctx, within a single transaction.
func (s *Store) RemoveVocabularyContext(container, uri, ctx string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("remove vocabulary context: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteVocabulary(tx, uri, ctx); err != nil {
		return fmt.Errorf("remove vocabulary context: %w", err)
	}
	if err := removeContextReference(tx, container, ctx); err != nil {
		return fmt.Errorf("remove vocabulary context: %w", err)
	}
	return tx.Commit()
}

// DeleteVocabulary removes the vocabulary row and its imports from ctx.
func (s *Store) DeleteVocabulary(uri, ctx string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete vocabulary: begin: %w", err)
	}
	defer tx.Rollback()
	if err := deleteVocabulary(tx, uri, ctx); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteVocabulary(e execer, uri, ctx string) error {
	for _, q := range []string{
		"DELETE FROM vocabulary_imports WHERE vocabulary = ? AND context = ?",
		"DELETE FROM vocabularies WHERE uri = ? AND context = ?",
	} {
		if _, err := e.Exec(q, uri, ctx); err != nil {
			return fmt.Errorf("delete vocabulary: %w", err)
		}
	}
	return nil
}

// --- Vocabulary lookups ---

const vocabularyColumns = "uri, context, label, description, glossary, model, document"

func scanVocabulary(row interface{ Scan(...any) error }) (*Vocabulary, error) {
	v := &Vocabulary{}
	err := row.Scan(&v.URI, &v.Context, &v.Label, &v.Description, &v.Glossary, &v.Model, &v.Document)
	return v, err
}

// VocabularyInContexts returns the vocabulary from the first of contexts (in
// identifier order) holding it, with its imports. Nil when absent.
func (s *Store) VocabularyInContexts(uri string, contexts []string) (*Vocabulary, error) {
	in, args := inClause("context", contexts)
	v, err := scanVocabulary(s.db.QueryRow(
		"SELECT "+vocabularyColumns+" FROM vocabularies WHERE uri = ? AND "+in+" ORDER BY context LIMIT 1",
		append([]any{uri}, args...)...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vocabulary in contexts: %w", err)
	}
	if v.Imports, err = s.vocabularyImports(v.URI, v.Context); err != nil {
		return nil, err
	}
	return v, nil
}

// VocabularyExists reports whether uri is stored in any context.
func (s *Store) VocabularyExists(uri string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM vocabularies WHERE uri = ?)", uri).Scan(&exists); err != nil {
		return false, fmt.Errorf("vocabulary exists: %w", err)
	}
	return exists, nil
}

// VocabulariesInContexts lists the vocabularies stored in contexts, one row
// per vocabulary, ordered by label.
func (s *Store) VocabulariesInContexts(contexts []string) ([]*Vocabulary, error) {
	in, args := inClause("context", contexts)
	rows, err := s.db.Query(
		`SELECT uri, MIN(context), label, description, glossary, model, document
		 FROM vocabularies WHERE `+in+`
		 GROUP BY uri
		 ORDER BY label COLLATE label_order, uri`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("vocabularies in contexts: %w", err)
	}
	defer rows.Close()
	var out []*Vocabulary
	for rows.Next() {
		v, err := scanVocabulary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vocabulary: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) vocabularyImports(uri, ctx string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT imported FROM vocabulary_imports WHERE vocabulary = ? AND context = ? ORDER BY imported", uri, ctx,
	)
	if err != nil {
		return nil, fmt.Errorf("vocabulary imports: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan vocabulary import: %w", err)
	}
	return out, nil
}

// TransitiveImports returns every vocabulary uri imports directly or
// indirectly, following import edges asserted in contexts.
func (s *Store) TransitiveImports(uri string, contexts []string) ([]string, error) {
	in, args := inClause("i.context", contexts)
	rows, err := s.db.Query(
		`WITH RECURSIVE deps(uri) AS (
		   SELECT ?
		   UNION
		   SELECT i.imported FROM vocabulary_imports i
		   JOIN deps d ON i.vocabulary = d.uri
		   WHERE `+in+`
		 )
		 SELECT uri FROM deps WHERE uri != ? ORDER BY uri`,
		append(append([]any{uri}, args...), uri)...,
	)
	if err != nil {
		return nil, fmt.Errorf("transitive imports: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan transitive import: %w", err)
	}
	return out, nil
}

// TransitiveDependents returns every vocabulary that imports uri directly or
// indirectly, following import edges asserted in contexts.
func (s *Store) TransitiveDependents(uri string, contexts []string) ([]string, error) {
	in, args := inClause("i.context", contexts)
	rows, err := s.db.Query(
		`WITH RECURSIVE dependents(uri) AS (
		   SELECT ?
		   UNION
		   SELECT i.vocabulary FROM vocabulary_imports i
		   JOIN dependents d ON i.imported = d.uri
		   WHERE `+in+`
		 )
		 SELECT uri FROM dependents WHERE uri != ? ORDER BY uri`,
		append(append([]any{uri}, args...), uri)...,
	)
	if err != nil {
		return nil, fmt.Errorf("transitive dependents: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan transitive dependent: %w", err)
	}
	return out, nil
}
