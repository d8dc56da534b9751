package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// --- Term writes ---

// SaveTerm replaces everything the term asserts in data.Term.Context with
// data and inserts changes, within a single transaction.
func (s *Store) SaveTerm(data *TermData, changes ...*ChangeRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save term: begin: %w", err)
	}
	defer tx.Rollback()

	t := data.Term
	if err := deleteTermTx(tx, t.URI, t.Context); err != nil {
		return fmt.Errorf("save term: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO terms (uri, context, glossary, definition_source, draft) VALUES (?, ?, ?, ?, ?)",
		t.URI, t.Context, nullString(t.Glossary), nullString(t.DefinitionSource), t.Draft,
	); err != nil {
		return fmt.Errorf("save term: insert term: %w", err)
	}
	for _, l := range data.Literals {
		if _, err := tx.Exec(
			"INSERT INTO term_literals (term, context, property, lang, value) VALUES (?, ?, ?, ?, ?)",
			t.URI, t.Context, l.Property, l.Lang, l.Value,
		); err != nil {
			return fmt.Errorf("save term: insert literal: %w", err)
		}
	}
	for _, r := range data.Relations {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO term_relations (subject, predicate, object, context) VALUES (?, ?, ?, ?)",
			t.URI, r.Predicate, r.Object, t.Context,
		); err != nil {
			return fmt.Errorf("save term: insert relation: %w", err)
		}
	}
	for _, src := range data.Sources {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO term_sources (term, context, source) VALUES (?, ?, ?)",
			t.URI, t.Context, src,
		); err != nil {
			return fmt.Errorf("save term: insert source: %w", err)
		}
	}
	if data.TopConcept && t.Glossary != nil {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO glossary_top_concepts (glossary, term, context) VALUES (?, ?, ?)",
			*t.Glossary, t.URI, t.Context,
		); err != nil {
			return fmt.Errorf("save term: insert top concept: %w", err)
		}
	}
	for _, r := range changes {
		if err := insertChangeRecord(tx, r); err != nil {
			return fmt.Errorf("save term: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteTerm removes every fact the term asserts in ctx. It reports whether
// the term existed there.
func (s *Store) DeleteTerm(uri, ctx string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("delete term: begin: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow("SELECT COUNT(*) FROM terms WHERE uri = ? AND context = ?", uri, ctx).Scan(&n); err != nil {
		return false, fmt.Errorf("delete term: lookup: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if err := deleteTermTx(tx, uri, ctx); err != nil {
		return false, fmt.Errorf("delete term: %w", err)
	}
	return true, tx.Commit()
}

func deleteTermTx(tx *sql.Tx, uri, ctx string) error {
	for _, q := range []string{
		"DELETE FROM term_literals WHERE term = ? AND context = ?",
		"DELETE FROM term_relations WHERE subject = ? AND context = ?",
		"DELETE FROM term_sources WHERE term = ? AND context = ?",
		"DELETE FROM glossary_top_concepts WHERE term = ? AND context = ?",
		"DELETE FROM terms WHERE uri = ? AND context = ?",
	} {
		if _, err := tx.Exec(q, uri, ctx); err != nil {
			return fmt.Errorf("delete term facts: %w", err)
		}
	}
	return nil
}

// --- Term lookups ---

// TermData loads everything the term asserts in the first of contexts (in
// identifier order) that holds it. Returns nil when none does.
func (s *Store) TermData(uri string, contexts []string) (*TermData, error) {
	in, args := inClause("context", contexts)
	t := Term{}
	err := s.db.QueryRow(
		"SELECT uri, context, glossary, definition_source, draft FROM terms WHERE uri = ? AND "+in+" ORDER BY context LIMIT 1",
		append([]any{uri}, args...)...,
	).Scan(&t.URI, &t.Context, &t.Glossary, &t.DefinitionSource, &t.Draft)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("term data: %w", err)
	}
	data := &TermData{Term: t}

	rows, err := s.db.Query(
		"SELECT property, lang, value FROM term_literals WHERE term = ? AND context = ? ORDER BY id", uri, t.Context,
	)
	if err != nil {
		return nil, fmt.Errorf("term literals: %w", err)
	}
	for rows.Next() {
		var l Literal
		if err := rows.Scan(&l.Property, &l.Lang, &l.Value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan literal: %w", err)
		}
		data.Literals = append(data.Literals, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("term literals: %w", err)
	}

	rows, err = s.db.Query(
		"SELECT predicate, object FROM term_relations WHERE subject = ? AND context = ? ORDER BY predicate, object", uri, t.Context,
	)
	if err != nil {
		return nil, fmt.Errorf("term relations: %w", err)
	}
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.Predicate, &r.Object); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		data.Relations = append(data.Relations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("term relations: %w", err)
	}

	rows, err = s.db.Query("SELECT source FROM term_sources WHERE term = ? AND context = ? ORDER BY source", uri, t.Context)
	if err != nil {
		return nil, fmt.Errorf("term sources: %w", err)
	}
	if data.Sources, err = scanStrings(rows); err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM glossary_top_concepts WHERE term = ? AND context = ?)", uri, t.Context,
	).Scan(&data.TopConcept)
	if err != nil {
		return nil, fmt.Errorf("term top concept: %w", err)
	}
	return data, nil
}

// VocabularyOfTerm infers the vocabulary of a term from its glossary, in any
// context. Returns "" when the term or its glossary's vocabulary is unknown.
func (s *Store) VocabularyOfTerm(uri string) (string, error) {
	var vocab string
	err := s.db.QueryRow(
		`SELECT v.uri FROM terms t
		 JOIN vocabularies v ON v.glossary = t.glossary
		 WHERE t.uri = ?
		 ORDER BY v.uri LIMIT 1`, uri,
	).Scan(&vocab)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("vocabulary of term: %w", err)
	}
	return vocab, nil
}

// TermExistsWithLabel reports whether a term of glossary in ctx has a
// preferred label in lang equal to label, ignoring case.
func (s *Store) TermExistsWithLabel(label, lang, glossary, ctx string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(
		   SELECT 1 FROM terms t
		   JOIN term_literals l ON l.term = t.uri AND l.context = t.context
		   WHERE t.context = ? AND t.glossary = ?
		     AND l.property = ? AND l.lang = ? AND fold(l.value) = ?
		 )`, ctx, glossary, PropPrefLabel, lang, Fold(label),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("term exists with label: %w", err)
	}
	return exists, nil
}

// GlossaryHasTerms reports whether any term in ctx belongs to glossary.
func (s *Store) GlossaryHasTerms(glossary, ctx string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM terms WHERE glossary = ? AND context = ?)", glossary, ctx,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("glossary has terms: %w", err)
	}
	return exists, nil
}

// GlossaryTerms returns the distinct terms of glossary stored in contexts,
// in identifier order. Unlike ListTerms it does not require a label.
func (s *Store) GlossaryTerms(glossary string, contexts []string) ([]string, error) {
	in, args := inClause("context", contexts)
	rows, err := s.db.Query(
		"SELECT DISTINCT uri FROM terms WHERE glossary = ? AND "+in+" ORDER BY uri",
		append([]any{glossary}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("glossary terms: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan glossary term: %w", err)
	}
	return out, nil
}

// --- Term listing ---

// termWhere builds the FROM/WHERE clause shared by CountTerms and ListTerms.
func termWhere(f TermFilter) (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString(` FROM terms t
		JOIN term_literals l ON l.term = t.uri AND l.context = t.context AND l.property = ? AND l.lang = ?
		LEFT JOIN vocabularies v ON v.glossary = t.glossary
		WHERE `)
	args = append(args, PropPrefLabel, f.Lang)

	in, inArgs := inClause("t.context", f.Contexts)
	b.WriteString(in)
	args = append(args, inArgs...)

	if f.RootsOnly {
		b.WriteString(" AND EXISTS (SELECT 1 FROM glossary_top_concepts g WHERE g.term = t.uri AND g.context = t.context)")
	}
	if f.Search != "" {
		b.WriteString(" AND instr(fold(l.value), ?) > 0")
		args = append(args, Fold(f.Search))
	}
	if f.Glossary != "" {
		b.WriteString(" AND t.glossary = ?")
		args = append(args, f.Glossary)
	}
	if f.ExcludeVocabulary != "" {
		b.WriteString(" AND NOT EXISTS (SELECT 1 FROM vocabularies ev WHERE ev.uri = ? AND ev.glossary = t.glossary)")
		args = append(args, f.ExcludeVocabulary)
	}
	if len(f.ShadowContexts) > 0 {
		in, inArgs := inClause("x.context", f.ShadowContexts)
		b.WriteString(" AND NOT EXISTS (SELECT 1 FROM terms x WHERE x.uri = t.uri AND " + in + ")")
		args = append(args, inArgs...)
	}
	return b.String(), args
}

// CountTerms counts distinct terms matching f.
func (s *Store) CountTerms(f TermFilter) (int, error) {
	where, args := termWhere(f)
	var n int
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT t.uri)"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count terms: %w", err)
	}
	return n, nil
}

// ListTerms returns distinct terms matching f ordered by label. A limit of
// zero or less returns every row from offset on.
func (s *Store) ListTerms(f TermFilter, offset, limit int) ([]*TermRow, error) {
	where, args := termWhere(f)
	q := `SELECT t.uri, MIN(t.context), MIN(l.value) AS label, COALESCE(MIN(t.glossary), ''), COALESCE(MIN(v.uri), '')` +
		where + " GROUP BY t.uri ORDER BY label COLLATE label_order, t.uri"
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	} else if offset > 0 {
		q += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return scanTermRows(rows)
}

// SubTerms returns the terms declaring parent as broader in any context,
// provided the child itself is typed in one of contexts.
func (s *Store) SubTerms(parent, lang string, contexts []string) ([]*TermRow, error) {
	in, inArgs := inClause("t.context", contexts)
	args := append([]any{PropPrefLabel, lang, PredBroader, parent}, inArgs...)
	rows, err := s.db.Query(
		`SELECT t.uri, MIN(t.context), MIN(l.value) AS label, COALESCE(MIN(t.glossary), ''), COALESCE(MIN(v.uri), '')
		 FROM term_relations r
		 JOIN terms t ON t.uri = r.subject
		 JOIN term_literals l ON l.term = t.uri AND l.context = t.context AND l.property = ? AND l.lang = ?
		 LEFT JOIN vocabularies v ON v.glossary = t.glossary
		 WHERE r.predicate = ? AND r.object = ? AND `+in+`
		 GROUP BY t.uri
		 ORDER BY label COLLATE label_order, t.uri`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sub terms: %w", err)
	}
	return scanTermRows(rows)
}

func scanTermRows(rows *sql.Rows) ([]*TermRow, error) {
	defer rows.Close()
	var out []*TermRow
	for rows.Next() {
		r := &TermRow{}
		if err := rows.Scan(&r.URI, &r.Context, &r.Label, &r.Glossary, &r.Vocabulary); err != nil {
			return nil, fmt.Errorf("scan term row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Relation index lookups ---

// RelatedSubjects returns subjects asserting predicate towards object in any
// context, restricted to subjects typed in one of contexts.
func (s *Store) RelatedSubjects(object, predicate string, contexts []string) ([]string, error) {
	in, inArgs := inClause("t.context", contexts)
	rows, err := s.db.Query(
		`SELECT DISTINCT r.subject FROM term_relations r
		 JOIN terms t ON t.uri = r.subject
		 WHERE r.object = ? AND r.predicate = ? AND `+in+`
		 ORDER BY r.subject`, append([]any{object, predicate}, inArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("related subjects: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan related subject: %w", err)
	}
	return out, nil
}

// RelatedObjects returns objects subject asserts via predicate in any
// context, restricted to objects typed in one of contexts.
func (s *Store) RelatedObjects(subject, predicate string, contexts []string) ([]string, error) {
	in, inArgs := inClause("t.context", contexts)
	rows, err := s.db.Query(
		`SELECT DISTINCT r.object FROM term_relations r
		 JOIN terms t ON t.uri = r.object
		 WHERE r.subject = ? AND r.predicate = ? AND `+in+`
		 ORDER BY r.object`, append([]any{subject, predicate}, inArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("related objects: %w", err)
	}
	out, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan related object: %w", err)
	}
	return out, nil
}

// TermLabels returns the preferred labels of the given terms found in
// contexts, one row per term, context and language.
func (s *Store) TermLabels(uris, contexts []string) ([]*LabelRow, error) {
	if len(uris) == 0 || len(contexts) == 0 {
		return nil, nil
	}
	termIn, termArgs := inClause("t.uri", uris)
	ctxIn, ctxArgs := inClause("t.context", contexts)
	args := append([]any{PropPrefLabel}, termArgs...)
	args = append(args, ctxArgs...)
	rows, err := s.db.Query(
		`SELECT t.uri, t.context, COALESCE(l.lang, ''), COALESCE(l.value, ''), COALESCE(MIN(v.uri), '')
		 FROM terms t
		 LEFT JOIN term_literals l ON l.term = t.uri AND l.context = t.context AND l.property = ?
		 LEFT JOIN vocabularies v ON v.glossary = t.glossary
		 WHERE `+termIn+` AND `+ctxIn+`
		 GROUP BY t.uri, t.context, l.lang, l.value
		 ORDER BY t.uri, t.context, l.lang`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("term labels: %w", err)
	}
	defer rows.Close()
	var out []*LabelRow
	for rows.Next() {
		r := &LabelRow{}
		if err := rows.Scan(&r.Term, &r.Context, &r.Lang, &r.Value, &r.Vocabulary); err != nil {
			return nil, fmt.Errorf("scan label row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GlossaryContextCounts returns, for each of uris, the number of distinct
// contexts in which it is stored with a glossary.
func (s *Store) GlossaryContextCounts(uris []string) (map[string]int, error) {
	out := make(map[string]int, len(uris))
	if len(uris) == 0 {
		return out, nil
	}
	in, args := inClause("uri", uris)
	rows, err := s.db.Query(
		"SELECT uri, COUNT(DISTINCT context) FROM terms WHERE glossary IS NOT NULL AND "+in+" GROUP BY uri", args...,
	)
	if err != nil {
		return nil, fmt.Errorf("glossary context counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uri string
		var n int
		if err := rows.Scan(&uri, &n); err != nil {
			return nil, fmt.Errorf("scan glossary context count: %w", err)
		}
		out[uri] = n
	}
	return out, rows.Err()
}
