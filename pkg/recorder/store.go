package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id TEXT PRIMARY KEY,
	protocol TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	method TEXT NOT NULL,
	path TEXT NOT NULL,
	query TEXT,
	headers TEXT,
	body BLOB,
	body_encoding TEXT,
	client_ip TEXT,
	trace_id TEXT,
	span_id TEXT,
	duration_ms INTEGER,
	status_code INTEGER,
	tags TEXT
);
CREATE TABLE IF NOT EXISTS responses (
	request_id TEXT PRIMARY KEY REFERENCES requests(id),
	status_code INTEGER NOT NULL,
	headers TEXT,
	body BLOB,
	body_encoding TEXT,
	size_bytes INTEGER,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_timestamp ON requests(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_requests_method ON requests(method);
CREATE INDEX IF NOT EXISTS idx_requests_path ON requests(path);
CREATE INDEX IF NOT EXISTS idx_requests_trace_id ON requests(trace_id);
CREATE INDEX IF NOT EXISTS idx_requests_status_code ON requests(status_code);
`

// Store is the SQLite-backed persistence layer for recorded exchanges.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if absent) a SQLite database at path and
// applies the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("recorder: opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRequest persists req. Called by the writer goroutine, never
// directly from the serving path.
func (s *Store) InsertRequest(req RecordedRequest) error {
	headersJSON, err := json.Marshal(req.Headers)
	if err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(req.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO requests (id, protocol, timestamp, method, path, query, headers, body, body_encoding, client_ip, trace_id, span_id, duration_ms, status_code, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Protocol, req.Timestamp, req.Method, req.Path, req.Query,
		string(headersJSON), req.Body, req.BodyEncoding, req.ClientIP,
		req.TraceID, req.SpanID, req.DurationMs, req.StatusCode, string(tagsJSON),
	)
	return err
}

// InsertResponse persists resp, FK-linked to its request by RequestID.
func (s *Store) InsertResponse(resp RecordedResponse) error {
	headersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO responses (request_id, status_code, headers, body, body_encoding, size_bytes, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		resp.RequestID, resp.StatusCode, string(headersJSON), resp.Body, resp.BodyEncoding, resp.SizeBytes, resp.Timestamp,
	)
	return err
}

// FindByFingerprint looks up the most recent exchange whose method+path
// match, for the recorded-replay priority source.
func (s *Store) FindByFingerprint(method, path string) (*Exchange, error) {
	row := s.db.QueryRow(
		`SELECT id, protocol, timestamp, method, path, query, headers, body, body_encoding, client_ip, trace_id, span_id, duration_ms, status_code, tags
		 FROM requests WHERE method = ? AND path = ? ORDER BY timestamp DESC LIMIT 1`,
		method, path,
	)
	var req RecordedRequest
	var headersJSON, tagsJSON string
	if err := row.Scan(&req.ID, &req.Protocol, &req.Timestamp, &req.Method, &req.Path, &req.Query,
		&headersJSON, &req.Body, &req.BodyEncoding, &req.ClientIP, &req.TraceID, &req.SpanID,
		&req.DurationMs, &req.StatusCode, &tagsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	json.Unmarshal([]byte(headersJSON), &req.Headers)
	json.Unmarshal([]byte(tagsJSON), &req.Tags)

	respRow := s.db.QueryRow(
		`SELECT status_code, headers, body, body_encoding, size_bytes, timestamp FROM responses WHERE request_id = ?`,
		req.ID,
	)
	var resp RecordedResponse
	resp.RequestID = req.ID
	var respHeadersJSON string
	if err := respRow.Scan(&resp.StatusCode, &respHeadersJSON, &resp.Body, &resp.BodyEncoding, &resp.SizeBytes, &resp.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return &Exchange{Request: req}, nil
		}
		return nil, err
	}
	json.Unmarshal([]byte(respHeadersJSON), &resp.Headers)

	return &Exchange{Request: req, Response: resp}, nil
}

// DeleteOlderThan removes requests (and their responses, via FK cascade
// emulated here since sqlite3 FKs aren't enforced by default) older than
// the given age.
func (s *Store) DeleteOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	res, err := s.db.Exec(`DELETE FROM responses WHERE request_id IN (SELECT id FROM requests WHERE timestamp < ?)`, cutoff)
	if err != nil {
		return 0, err
	}
	res2, err := s.db.Exec(`DELETE FROM requests WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res2.RowsAffected()
	_, _ = res.RowsAffected()
	return n, nil
}

// EnforceMaxRows trims the oldest requests (and responses) beyond maxRows.
func (s *Store) EnforceMaxRows(maxRows int) (int64, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM requests`).Scan(&count); err != nil {
		return 0, err
	}
	if count <= maxRows {
		return 0, nil
	}
	excess := count - maxRows
	res, err := s.db.Exec(
		`DELETE FROM responses WHERE request_id IN (
			SELECT id FROM requests ORDER BY timestamp ASC LIMIT ?
		)`, excess)
	if err != nil {
		return 0, err
	}
	_, _ = res.RowsAffected()
	res2, err := s.db.Exec(
		`DELETE FROM requests WHERE id IN (
			SELECT id FROM requests ORDER BY timestamp ASC LIMIT ?
		)`, excess)
	if err != nil {
		return 0, err
	}
	n, _ := res2.RowsAffected()
	return n, nil
}

// RowCount returns the current number of recorded requests.
func (s *Store) RowCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM requests`).Scan(&count)
	return count, err
}
