package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/smartsdlc/sdlc/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAnalysis inserts a history record, assigning an ID if missing.
func (s *SQLiteStore) CreateAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = newULID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, operation, file_name, status, reason, finding_count, text, elapsed_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Operation), rec.FileName, string(rec.Status), rec.Reason,
		rec.FindingCount, rec.Text, rec.Elapsed.Nanoseconds(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

// GetAnalysis fetches one history record by ID.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	rec := &models.AnalysisRecord{}
	var elapsed int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, operation, file_name, status, reason, finding_count, text, elapsed_ns, created_at
		FROM analyses WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Operation, &rec.FileName, &rec.Status, &rec.Reason, &rec.FindingCount, &rec.Text, &elapsed, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	rec.Elapsed = time.Duration(elapsed)
	return rec, nil
}

// ListAnalyses returns history records, newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisListFilter) ([]*models.AnalysisRecord, error) {
	query := `SELECT id, operation, file_name, status, reason, finding_count, text, elapsed_ns, created_at FROM analyses`
	var conds []string
	var args []any

	if filter.Operation != "" {
		conds = append(conds, "operation = ?")
		args = append(args, string(filter.Operation))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		rec := &models.AnalysisRecord{}
		var elapsed int64
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.FileName, &rec.Status, &rec.Reason, &rec.FindingCount, &rec.Text, &elapsed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.Elapsed = time.Duration(elapsed)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteAnalyses removes records with IDs at or below the given ULID.
// ULIDs sort lexicographically by creation time, so this prunes history
// older than a known record. An empty argument removes everything.
func (s *SQLiteStore) DeleteAnalyses(ctx context.Context, before string) (int64, error) {
	var res sql.Result
	var err error
	if before == "" {
		res, err = s.db.ExecContext(ctx, "DELETE FROM analyses")
	} else {
		res, err = s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id <= ?", before)
	}
	if err != nil {
		return 0, fmt.Errorf("delete analyses: %w", err)
	}
	return res.RowsAffected()
}
