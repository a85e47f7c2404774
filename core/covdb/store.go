// Package covdb stores parsed coverage runs in a SQLite database and
// aggregates coverage across runs.
//
// Each ingested Document becomes a run keyed by a generated UUID; runs are
// deduplicated by the BLAKE3 digest of their canonical encoding, so
// re-ingesting an identical trace is a no-op that returns the existing run.
package covdb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/drcovkit/core/drcov"
	"github.com/FocuswithJustin/drcovkit/core/errors"
	"github.com/FocuswithJustin/drcovkit/core/sqlite"
	"github.com/FocuswithJustin/drcovkit/internal/digest"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	flavor       TEXT NOT NULL,
	digest       TEXT NOT NULL UNIQUE,
	module_count INTEGER NOT NULL,
	block_count  INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS modules (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	module_id INTEGER NOT NULL,
	path      TEXT NOT NULL,
	base      INTEGER NOT NULL,
	end       INTEGER NOT NULL,
	PRIMARY KEY (run_id, module_id)
);
CREATE TABLE IF NOT EXISTS blocks (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	module_id INTEGER NOT NULL,
	start     INTEGER NOT NULL,
	size      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS blocks_by_run ON blocks(run_id, module_id);
`

// Store is a coverage run database.
type Store struct {
	db *sql.DB
}

// Run describes one ingested coverage trace.
type Run struct {
	ID        string
	Flavor    string
	Digest    string
	Modules   int
	Blocks    int
	CreatedAt time.Time
}

// ModuleStats aggregates coverage for one module path across all runs.
type ModuleStats struct {
	Path         string
	Runs         int    // runs in which the module appears
	Blocks       int    // total recorded blocks across runs
	CoveredBytes uint64 // total recorded block bytes across runs
}

// Open opens (creating if needed) a coverage database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ingest stores doc as a new run and returns it. If a run with the same
// canonical digest already exists, that run is returned unchanged and the
// second result is false.
func (s *Store) Ingest(doc *drcov.Document) (*Run, bool, error) {
	sum, err := digest.Document(doc)
	if err != nil {
		return nil, false, err
	}

	if existing, err := s.runByDigest(sum); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	run := &Run{
		ID:        uuid.NewString(),
		Flavor:    doc.Flavor,
		Digest:    sum,
		Modules:   len(doc.Modules),
		Blocks:    len(doc.BasicBlocks),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, errors.Wrap(err, "begin ingest")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (id, flavor, digest, module_count, block_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Flavor, run.Digest, run.Modules, run.Blocks, run.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, false, errors.Wrap(err, "insert run")
	}

	modStmt, err := tx.Prepare(`INSERT INTO modules (run_id, module_id, path, base, end) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, false, errors.Wrap(err, "prepare module insert")
	}
	defer modStmt.Close()
	for i := range doc.Modules {
		m := &doc.Modules[i]
		if _, err := modStmt.Exec(run.ID, m.ID, m.Path, int64(m.Base), int64(m.End)); err != nil {
			return nil, false, errors.Wrapf(err, "insert module %d", m.ID)
		}
	}

	blockStmt, err := tx.Prepare(`INSERT INTO blocks (run_id, module_id, start, size) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, false, errors.Wrap(err, "prepare block insert")
	}
	defer blockStmt.Close()
	for i, bb := range doc.BasicBlocks {
		if _, err := blockStmt.Exec(run.ID, bb.ModuleID, int64(bb.Start), int64(bb.Size)); err != nil {
			return nil, false, errors.Wrapf(err, "insert block %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "commit ingest")
	}
	return run, true, nil
}

// Runs lists all stored runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, flavor, digest, module_count, block_count, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Stats aggregates block counts and covered bytes per module path across
// all stored runs.
func (s *Store) Stats() ([]ModuleStats, error) {
	rows, err := s.db.Query(`
		SELECT m.path,
		       COUNT(DISTINCT m.run_id),
		       COUNT(b.rowid),
		       COALESCE(SUM(b.size), 0)
		FROM modules m
		LEFT JOIN blocks b ON b.run_id = m.run_id AND b.module_id = m.module_id
		GROUP BY m.path
		ORDER BY m.path`)
	if err != nil {
		return nil, errors.Wrap(err, "query stats")
	}
	defer rows.Close()

	var stats []ModuleStats
	for rows.Next() {
		var st ModuleStats
		var covered int64
		if err := rows.Scan(&st.Path, &st.Runs, &st.Blocks, &covered); err != nil {
			return nil, errors.Wrap(err, "scan stats")
		}
		st.CoveredBytes = uint64(covered)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) runByDigest(sum string) (*Run, error) {
	row := s.db.QueryRow(`SELECT id, flavor, digest, module_count, block_count, created_at FROM runs WHERE digest = ?`, sum)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var created string
	if err := row.Scan(&run.ID, &run.Flavor, &run.Digest, &run.Modules, &run.Blocks, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan run")
	}
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, errors.Wrap(err, "parse run timestamp")
	}
	run.CreatedAt = ts
	return &run, nil
}
