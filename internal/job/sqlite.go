package job

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteStore persists jobs in a single-file SQLite database so job history
// survives restarts. Config, progress, and result are stored as JSON blobs;
// only the columns the list view filters on are real columns.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the job database and runs migrations.
// Jobs left mid-flight by a previous process are marked failed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening job database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.failInterrupted(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if version < 1 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS jobs (
				id            TEXT PRIMARY KEY,
				status        TEXT NOT NULL,
				config        TEXT NOT NULL,
				progress      TEXT NOT NULL,
				error         TEXT NOT NULL DEFAULT '',
				result        TEXT,
				scrape_path   TEXT NOT NULL DEFAULT '',
				analysis_path TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL,
				started_at    TEXT,
				completed_at  TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at DESC);
		`)
		if err != nil {
			return fmt.Errorf("creating jobs table: %w", err)
		}
	}

	if version != schemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
	}
	return nil
}

// failInterrupted marks jobs that were mid-scrape or mid-analysis when the
// previous process died. Their goroutines are gone; the records must not
// look live forever.
func (s *SQLiteStore) failInterrupted() error {
	res, err := s.db.Exec(
		`UPDATE jobs SET status = CASE status WHEN ? THEN ? ELSE ? END, error = ?
		 WHERE status IN (?, ?)`,
		StatusRunning, StatusFailed, StatusAnalysisFailed,
		"interrupted by shutdown",
		StatusRunning, StatusAnalyzing,
	)
	if err != nil {
		return fmt.Errorf("failing interrupted jobs: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("Marked %d interrupted job(s) as failed", n)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*Job, error) {
	row := s.db.QueryRow(
		`SELECT id, status, config, progress, error, result,
		        scrape_path, analysis_path, created_at, started_at, completed_at
		 FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return j, err
}

func (s *SQLiteStore) Put(j *Job) error {
	configJSON, err := json.Marshal(j.Config)
	if err != nil {
		return fmt.Errorf("encoding job config: %w", err)
	}
	progressJSON, err := json.Marshal(j.Progress)
	if err != nil {
		return fmt.Errorf("encoding job progress: %w", err)
	}
	var resultJSON any
	if j.Result != nil {
		data, err := json.Marshal(j.Result)
		if err != nil {
			return fmt.Errorf("encoding job result: %w", err)
		}
		resultJSON = string(data)
	}

	_, err = s.db.Exec(
		`INSERT INTO jobs (id, status, config, progress, error, result,
		                   scrape_path, analysis_path, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   progress = excluded.progress,
		   error = excluded.error,
		   result = excluded.result,
		   scrape_path = excluded.scrape_path,
		   analysis_path = excluded.analysis_path,
		   started_at = excluded.started_at,
		   completed_at = excluded.completed_at`,
		j.ID, j.Status, string(configJSON), string(progressJSON), j.Error, resultJSON,
		j.ScrapePath, j.AnalysisPath,
		j.CreatedAt.UTC().Format(time.RFC3339Nano),
		formatNullableTime(j.StartedAt), formatNullableTime(j.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("saving job %s: %w", j.ID, err)
	}
	return nil
}

func (s *SQLiteStore) List() ([]*Job, error) {
	rows, err := s.db.Query(
		`SELECT id, status, config, progress, error, result,
		        scrape_path, analysis_path, created_at, started_at, completed_at
		 FROM jobs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j                        Job
		configJSON, progressJSON string
		resultJSON               sql.NullString
		createdAt                string
		startedAt, completedAt   sql.NullString
	)
	err := row.Scan(&j.ID, &j.Status, &configJSON, &progressJSON, &j.Error, &resultJSON,
		&j.ScrapePath, &j.AnalysisPath, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(configJSON), &j.Config); err != nil {
		return nil, fmt.Errorf("decoding config for job %s: %w", j.ID, err)
	}
	if err := json.Unmarshal([]byte(progressJSON), &j.Progress); err != nil {
		return nil, fmt.Errorf("decoding progress for job %s: %w", j.ID, err)
	}
	if resultJSON.Valid {
		j.Result = &Result{}
		if err := json.Unmarshal([]byte(resultJSON.String), j.Result); err != nil {
			return nil, fmt.Errorf("decoding result for job %s: %w", j.ID, err)
		}
	}

	if j.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for job %s: %w", j.ID, err)
	}
	if j.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at for job %s: %w", j.ID, err)
	}
	if j.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, fmt.Errorf("parsing completed_at for job %s: %w", j.ID, err)
	}
	return &j, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
