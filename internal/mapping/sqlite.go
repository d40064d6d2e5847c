package mapping

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the versioned mapping store. The engine only ever reads from
// it, once, at the start of a run; writes happen through the admin import
// path in the CLI.
type Store struct {
	db *sql.DB
}

// NewStore creates or opens a SQLite mapping database.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS mappings (
			id TEXT PRIMARY KEY,
			source_signature TEXT NOT NULL,
			target_equivalent TEXT NOT NULL,
			conversion_type TEXT NOT NULL,
			version INTEGER NOT NULL,
			notes TEXT,
			example_usage TEXT,
			simplified_form TEXT,
			UNIQUE(source_signature, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mappings_signature ON mappings(source_signature)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reads the full mapping table. Callers hand the result to
// NewResolver and never touch the store again for the rest of the run.
func (s *Store) LoadAll(ctx context.Context) ([]APIMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_signature, target_equivalent, conversion_type,
		       version, COALESCE(notes,''), COALESCE(example_usage,''), COALESCE(simplified_form,'')
		FROM mappings
		ORDER BY source_signature, version`)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	var out []APIMapping
	for rows.Next() {
		var m APIMapping
		if err := rows.Scan(&m.ID, &m.SourceSignature, &m.TargetEquivalent, &m.ConversionType,
			&m.Version, &m.Notes, &m.ExampleUsage, &m.SimplifiedForm); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("stored table is invalid: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Import upserts mappings, the administrative write path used by the
// `mappings import` command. Rows are validated before any write.
func (s *Store) Import(ctx context.Context, mappings []APIMapping) error {
	for _, m := range mappings {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mappings (id, source_signature, target_equivalent, conversion_type,
			version, notes, example_usage, simplified_form)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_signature, version) DO UPDATE SET
			id=excluded.id,
			target_equivalent=excluded.target_equivalent,
			conversion_type=excluded.conversion_type,
			notes=excluded.notes,
			example_usage=excluded.example_usage,
			simplified_form=excluded.simplified_form`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range mappings {
		if _, err := stmt.ExecContext(ctx, m.ID, m.SourceSignature, m.TargetEquivalent,
			string(m.ConversionType), m.Version, m.Notes, m.ExampleUsage, m.SimplifiedForm); err != nil {
			return fmt.Errorf("import mapping %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}
