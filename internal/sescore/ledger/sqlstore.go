package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Drivers registered for the two supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// SQLStore persists trails in a relational database so they survive process
// restarts and multi-instance deployment. One row per resource id; the trail
// snapshot is stored as JSON and replaced atomically on each save.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLStore opens a store for driver "postgres" or "mysql" and ensures
// the schema exists.
func OpenSQLStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported trail store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	s := &SQLStore{db: db, driver: driver}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	ddl := `CREATE TABLE IF NOT EXISTS audit_trails (
    resource_id VARCHAR(191) PRIMARY KEY,
    trail_json  TEXT NOT NULL,
    is_sealed   BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at  TIMESTAMP NOT NULL
)`
	if s.driver == "mysql" {
		ddl = `CREATE TABLE IF NOT EXISTS audit_trails (
    resource_id VARCHAR(191) PRIMARY KEY,
    trail_json  LONGTEXT NOT NULL,
    is_sealed   BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at  TIMESTAMP NOT NULL
)`
	}
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("ensure audit_trails schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(resourceID string) (*AuditTrail, bool, error) {
	var raw string
	query := `SELECT trail_json FROM audit_trails WHERE resource_id = $1`
	if s.driver == "mysql" {
		query = `SELECT trail_json FROM audit_trails WHERE resource_id = ?`
	}
	err := s.db.QueryRow(query, resourceID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select trail: %w", err)
	}

	var trail AuditTrail
	if err := json.Unmarshal([]byte(raw), &trail); err != nil {
		return nil, false, fmt.Errorf("decode trail %s: %w", resourceID, err)
	}
	return &trail, true, nil
}

func (s *SQLStore) Save(trail *AuditTrail) error {
	raw, err := json.Marshal(trail)
	if err != nil {
		return fmt.Errorf("encode trail %s: %w", trail.ResourceID, err)
	}

	now := time.Now().UTC()
	if s.driver == "mysql" {
		_, err = s.db.Exec(
			`INSERT INTO audit_trails (resource_id, trail_json, is_sealed, updated_at)
             VALUES (?, ?, ?, ?)
             ON DUPLICATE KEY UPDATE trail_json = VALUES(trail_json),
                 is_sealed = VALUES(is_sealed), updated_at = VALUES(updated_at)`,
			trail.ResourceID, string(raw), trail.IsSealed, now)
	} else {
		_, err = s.db.Exec(
			`INSERT INTO audit_trails (resource_id, trail_json, is_sealed, updated_at)
             VALUES ($1, $2, $3, $4)
             ON CONFLICT (resource_id) DO UPDATE SET trail_json = EXCLUDED.trail_json,
                 is_sealed = EXCLUDED.is_sealed, updated_at = EXCLUDED.updated_at`,
			trail.ResourceID, string(raw), trail.IsSealed, now)
	}
	if err != nil {
		return fmt.Errorf("upsert trail %s: %w", trail.ResourceID, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
