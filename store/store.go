// Package store persists documents, checks and recorded mistakes in an
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/msklnkk/Electronic-corrector/checker"
)

// Document lifecycle statuses, as shown to users.
const (
	StatusUploaded      = "Загружен"
	StatusAnalyzing     = "Анализируется"
	StatusCompliant     = "Идеален"
	StatusNeedsRevision = "Отправлен на доработку"
	StatusError         = "Ошибка"
)

// Check processing states.
const (
	CheckPending   = "pending"
	CheckCompleted = "completed"
	CheckFailed    = "failed"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// the production pragmas: WAL journaling, busy timeout and foreign keys.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Init creates the schema. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	login         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	document_id TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	filepath    TEXT NOT NULL,
	status      TEXT NOT NULL,
	score       REAL,
	uploaded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS checks (
	check_id    TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(document_id),
	status      TEXT NOT NULL,
	score       REAL,
	is_compliant INTEGER,
	report_json TEXT,
	error       TEXT,
	created_at  INTEGER NOT NULL,
	checked_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_checks_document ON checks(document_id);

CREATE TABLE IF NOT EXISTS mistakes (
	mistake_id  TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(document_id),
	rule_id     TEXT NOT NULL,
	severity    TEXT NOT NULL,
	message     TEXT NOT NULL,
	suggestion  TEXT,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mistakes_document ON mistakes(document_id);
`

// Document is one uploaded file being tracked through checking.
type Document struct {
	ID         string
	Filename   string
	Filepath   string
	Status     string
	Score      *float64
	UploadedAt time.Time
}

// CreateDocument registers an uploaded file.
func (s *Store) CreateDocument(ctx context.Context, filename, path string) (Document, error) {
	doc := Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		Filepath:   path,
		Status:     StatusUploaded,
		UploadedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (document_id, filename, filepath, status, uploaded_at)
		VALUES (?,?,?,?,?)`,
		doc.ID, doc.Filename, doc.Filepath, doc.Status, doc.UploadedAt.Unix())
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// GetDocument fetches one document row.
func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	var (
		doc      Document
		score    sql.NullFloat64
		uploaded int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, filename, filepath, status, score, uploaded_at
		FROM documents WHERE document_id = ?`, id).
		Scan(&doc.ID, &doc.Filename, &doc.Filepath, &doc.Status, &score, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	if score.Valid {
		doc.Score = &score.Float64
	}
	doc.UploadedAt = time.Unix(uploaded, 0)
	return doc, nil
}

// UpdateDocumentStatus moves a document through its lifecycle; score may
// be nil while the document is still being analyzed.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id, status string, score *float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, score = COALESCE(?, score)
		WHERE document_id = ?`, status, score, id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Check is one compliance-check run over a document.
type Check struct {
	ID          string
	DocumentID  string
	Status      string
	Score       *float64
	IsCompliant *bool
	Error       string
	CreatedAt   time.Time
	CheckedAt   *time.Time
}

// CreateCheck registers a pending check for a document.
func (s *Store) CreateCheck(ctx context.Context, documentID string) (Check, error) {
	chk := Check{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     CheckPending,
		CreatedAt:  time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checks (check_id, document_id, status, created_at)
		VALUES (?,?,?,?)`,
		chk.ID, chk.DocumentID, chk.Status, chk.CreatedAt.Unix())
	if err != nil {
		return Check{}, fmt.Errorf("create check: %w", err)
	}
	return chk, nil
}

// FinishCheck stores a completed report against its check row.
func (s *Store) FinishCheck(ctx context.Context, checkID string, report *checker.DocumentCheckReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	compliant := 0
	if report.IsCompliant() {
		compliant = 1
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE checks
		SET status = ?, score = ?, is_compliant = ?, report_json = ?, checked_at = ?
		WHERE check_id = ?`,
		CheckCompleted, report.Score(), compliant, string(raw), time.Now().Unix(), checkID)
	if err != nil {
		return fmt.Errorf("finish check: %w", err)
	}
	return nil
}

// FailCheck marks a check that could not complete (timeout, internal error).
func (s *Store) FailCheck(ctx context.Context, checkID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE checks SET status = ?, error = ?, checked_at = ? WHERE check_id = ?`,
		CheckFailed, reason, time.Now().Unix(), checkID)
	if err != nil {
		return fmt.Errorf("fail check: %w", err)
	}
	return nil
}

// GetCheck fetches one check row.
func (s *Store) GetCheck(ctx context.Context, checkID string) (Check, error) {
	var (
		chk       Check
		score     sql.NullFloat64
		compliant sql.NullInt64
		errMsg    sql.NullString
		created   int64
		checked   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT check_id, document_id, status, score, is_compliant, error, created_at, checked_at
		FROM checks WHERE check_id = ?`, checkID).
		Scan(&chk.ID, &chk.DocumentID, &chk.Status, &score, &compliant, &errMsg, &created, &checked)
	if errors.Is(err, sql.ErrNoRows) {
		return Check{}, ErrNotFound
	}
	if err != nil {
		return Check{}, fmt.Errorf("get check: %w", err)
	}
	if score.Valid {
		chk.Score = &score.Float64
	}
	if compliant.Valid {
		v := compliant.Int64 == 1
		chk.IsCompliant = &v
	}
	chk.Error = errMsg.String
	chk.CreatedAt = time.Unix(created, 0)
	if checked.Valid {
		t := time.Unix(checked.Int64, 0)
		chk.CheckedAt = &t
	}
	return chk, nil
}

// GetReport unmarshals the stored report of a completed check.
func (s *Store) GetReport(ctx context.Context, checkID string) (*checker.DocumentCheckReport, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM checks WHERE check_id = ?`, checkID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return nil, ErrNotFound
	}
	var report checker.DocumentCheckReport
	if err := json.Unmarshal([]byte(raw.String), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// Mistake is one stored failed-rule row for a document.
type Mistake struct {
	ID         string
	DocumentID string
	RuleID     string
	Severity   string
	Message    string
	Suggestion string
	CreatedAt  time.Time
}

// SaveMistakes replaces the recorded mistakes of a document with the
// failed results of its latest report.
func (s *Store) SaveMistakes(ctx context.Context, documentID string, results []checker.ValidationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save mistakes: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM mistakes WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clear mistakes: %w", err)
	}

	now := time.Now().Unix()
	for _, r := range results {
		if r.IsPassed {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mistakes (mistake_id, document_id, rule_id, severity, message, suggestion, created_at)
			VALUES (?,?,?,?,?,?,?)`,
			uuid.NewString(), documentID, r.RuleID, string(r.Severity), r.Message, r.Suggestion, now); err != nil {
			return fmt.Errorf("insert mistake: %w", err)
		}
	}
	return tx.Commit()
}

// ListMistakes returns the recorded mistakes of a document, newest first.
func (s *Store) ListMistakes(ctx context.Context, documentID string) ([]Mistake, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mistake_id, document_id, rule_id, severity, message, suggestion, created_at
		FROM mistakes WHERE document_id = ? ORDER BY created_at DESC, rule_id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list mistakes: %w", err)
	}
	defer rows.Close()

	var out []Mistake
	for rows.Next() {
		var (
			m          Mistake
			suggestion sql.NullString
			created    int64
		)
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.RuleID, &m.Severity, &m.Message, &suggestion, &created); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		m.Suggestion = suggestion.String
		m.CreatedAt = time.Unix(created, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}

// User is an account allowed to upload and check documents.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser registers an account with an already-hashed password.
func (s *Store) CreateUser(ctx context.Context, login, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, login, password_hash, created_at)
		VALUES (?,?,?,?)`, u.ID, u.Login, u.PasswordHash, u.CreatedAt.Unix())
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByLogin fetches an account by login.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (User, error) {
	var (
		u       User
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, login, password_hash, created_at
		FROM users WHERE login = ?`, login).
		Scan(&u.ID, &u.Login, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0)
	return u, nil
}
