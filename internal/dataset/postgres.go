package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"homework-hero/internal/models"
)

// PostgresStore serves content sets from a vocab_entries table. Rows are
// returned in insertion order so extraction stays deterministic.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore creates a new database-backed dataset store.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{Pool: pool}, nil
}

// Initialize sets up the vocab_entries table and indices.
func (s *PostgresStore) Initialize(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS vocab_entries (
            id SERIAL PRIMARY KEY,
            dataset TEXT NOT NULL,
            section INTEGER NOT NULL,
            level_system TEXT NOT NULL DEFAULT '',
            level TEXT NOT NULL DEFAULT '',
            word TEXT NOT NULL,
            part_of_speech TEXT NOT NULL,
            definition TEXT NOT NULL,
            def_num INTEGER
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create vocab_entries table: %w", err)
	}

	_, err = s.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS vocab_entries_dataset_section_idx
		ON vocab_entries (dataset, section)
	`)
	if err != nil {
		return fmt.Errorf("failed to create dataset index: %w", err)
	}

	return nil
}

// StoreEntry inserts one vocabulary entry. Level columns may be empty for
// entries shared across reading levels.
func (s *PostgresStore) StoreEntry(ctx context.Context, dataset string, section int, level models.ReadingLevel, e models.Entry) error {
	_, err := s.Pool.Exec(ctx, `
        INSERT INTO vocab_entries (
            dataset, section, level_system, level,
            word, part_of_speech, definition, def_num
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `,
		dataset,
		section,
		level.System,
		level.Level,
		e.Word,
		e.PartOfSpeech,
		e.Definition,
		e.DefNum)

	return err
}

// LoadSection implements Store. Entries tagged with a reading level match
// only that level; untagged entries match every level.
func (s *PostgresStore) LoadSection(ctx context.Context, dataset string, section int, level models.ReadingLevel) (*models.ContentSet, error) {
	rows, err := s.Pool.Query(ctx, `
        SELECT word, part_of_speech, definition, COALESCE(def_num, 0)
        FROM vocab_entries
        WHERE dataset = $1 AND section = $2
          AND (level_system = '' OR (level_system = $3 AND level = $4))
        ORDER BY id
    `, dataset, section, level.System, level.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocab entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.Word, &e.PartOfSpeech, &e.Definition, &e.DefNum); err != nil {
			return nil, fmt.Errorf("failed to scan vocab entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab entries: %w", err)
	}

	if len(entries) == 0 {
		return nil, &NotFoundError{Dataset: dataset, Section: section}
	}

	return &models.ContentSet{
		Dataset:      dataset,
		Section:      section,
		ReadingLevel: level,
		Entries:      entries,
	}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.Pool.Close()
}
