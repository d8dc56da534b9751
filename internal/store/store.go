package store

import (
	"database/sql"
	"fmt"
)

// Store is the SQLite data access layer for workspaces, contexts,
// vocabularies and terms. Every fact row carries the context (named graph)
// it belongs to; queries are scoped by explicit context sets.
type Store struct {
	db   *sql.DB
	lang string
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled. lang is
// the BCP 47 tag used by the label_order collation; empty means "en".
func NewStore(dbPath, lang string) (*Store, error) {
	driver, err := driverFor(lang)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, lang: lang}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
-- Partitions

CREATE TABLE IF NOT EXISTS workspaces (
  uri             TEXT PRIMARY KEY,
  label           TEXT NOT NULL,
  description     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS contexts (
  uri             TEXT PRIMARY KEY,
  vocabulary      TEXT,
  based_on_version TEXT,
  change_tracking_context TEXT
);

-- container is either a workspace URI or the canonical cache container URI.
CREATE TABLE IF NOT EXISTS context_references (
  container       TEXT NOT NULL,
  context         TEXT NOT NULL REFERENCES contexts(uri),
  PRIMARY KEY (container, context)
);

-- Vocabularies

CREATE TABLE IF NOT EXISTS vocabularies (
  uri             TEXT NOT NULL,
  context         TEXT NOT NULL,
  label           TEXT NOT NULL,
  description     TEXT NOT NULL DEFAULT '',
  glossary        TEXT NOT NULL,
  model           TEXT NOT NULL,
  document        TEXT,
  PRIMARY KEY (uri, context)
);

CREATE TABLE IF NOT EXISTS vocabulary_imports (
  vocabulary      TEXT NOT NULL,
  imported        TEXT NOT NULL,
  context         TEXT NOT NULL,
  PRIMARY KEY (vocabulary, imported, context)
);

-- Terms. A term's vocabulary is never stored; it is inferred from glossary.

CREATE TABLE IF NOT EXISTS terms (
  uri             TEXT NOT NULL,
  context         TEXT NOT NULL,
  glossary        TEXT,
  definition_source TEXT,
  draft           BOOLEAN NOT NULL DEFAULT TRUE,
  PRIMARY KEY (uri, context)
);

CREATE TABLE IF NOT EXISTS term_literals (
  id              INTEGER PRIMARY KEY,
  term            TEXT NOT NULL,
  context         TEXT NOT NULL,
  property        TEXT NOT NULL,
  lang            TEXT NOT NULL,
  value           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS term_relations (
  subject         TEXT NOT NULL,
  predicate       TEXT NOT NULL,
  object          TEXT NOT NULL,
  context         TEXT NOT NULL,
  PRIMARY KEY (subject, predicate, object, context)
);

CREATE TABLE IF NOT EXISTS term_sources (
  term            TEXT NOT NULL,
  context         TEXT NOT NULL,
  source          TEXT NOT NULL,
  PRIMARY KEY (term, context, source)
);

CREATE TABLE IF NOT EXISTS glossary_top_concepts (
  glossary        TEXT NOT NULL,
  term            TEXT NOT NULL,
  context         TEXT NOT NULL,
  PRIMARY KEY (glossary, term, context)
);

-- Change tracking

CREATE TABLE IF NOT EXISTS change_records (
  id              TEXT PRIMARY KEY,
  context         TEXT NOT NULL,
  changed_entity  TEXT NOT NULL,
  author          TEXT NOT NULL DEFAULT '',
  kind            TEXT NOT NULL,
  attribute       TEXT NOT NULL DEFAULT '',
  recorded_at     TIMESTAMP NOT NULL
);

-- Indexes

CREATE INDEX IF NOT EXISTS idx_contexts_based_on ON contexts(based_on_version);
CREATE INDEX IF NOT EXISTS idx_context_refs_context ON context_references(context);
CREATE INDEX IF NOT EXISTS idx_vocabularies_glossary ON vocabularies(glossary);
CREATE INDEX IF NOT EXISTS idx_vocabulary_imports_imported ON vocabulary_imports(imported);
CREATE INDEX IF NOT EXISTS idx_terms_glossary ON terms(glossary);
CREATE INDEX IF NOT EXISTS idx_terms_context ON terms(context);
CREATE INDEX IF NOT EXISTS idx_term_literals_term ON term_literals(term, context);
CREATE INDEX IF NOT EXISTS idx_term_literals_property ON term_literals(property, lang);
CREATE INDEX IF NOT EXISTS idx_term_relations_object ON term_relations(object, predicate);
CREATE INDEX IF NOT EXISTS idx_top_concepts_term ON glossary_top_concepts(term, context);
CREATE INDEX IF NOT EXISTS idx_change_records_entity ON change_records(changed_entity);
`
