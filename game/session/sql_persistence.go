package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLPersistence implements OfficePersistence on a SQL database.
// Each office is one row holding the JSON record.
type SQLPersistence struct {
	db     *sql.DB
	driver string
}

// NewSQLitePersistence opens (or creates) a SQLite database file
func NewSQLitePersistence(path string) (*SQLPersistence, error) {
	return newSQLPersistence("sqlite3", path+"?_busy_timeout=5000")
}

// NewPostgresPersistence connects to PostgreSQL
func NewPostgresPersistence(connectionString string) (*SQLPersistence, error) {
	return newSQLPersistence("postgres", connectionString)
}

func newSQLPersistence(driver, dsn string) (*SQLPersistence, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &SQLPersistence{db: db, driver: driver}
	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return p, nil
}

func (p *SQLPersistence) initSchema() error {
	dataType, timeType := "TEXT", "DATETIME"
	if p.driver == "postgres" {
		dataType, timeType = "JSONB", "TIMESTAMP WITH TIME ZONE"
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS offices (
		id TEXT PRIMARY KEY,
		layout_name TEXT NOT NULL,
		data %s NOT NULL,
		updated_at %s NOT NULL
	)`, dataType, timeType)

	_, err := p.db.Exec(schema)
	return err
}

// bind rewrites ? placeholders to $n for PostgreSQL
func (p *SQLPersistence) bind(query string) string {
	if p.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save upserts the record
func (p *SQLPersistence) Save(rec *OfficeRecord) error {
	if rec == nil {
		return fmt.Errorf("office record cannot be nil")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal office record: %w", err)
	}

	query := p.bind(`
	INSERT INTO offices (id, layout_name, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id)
	DO UPDATE SET layout_name = excluded.layout_name, data = excluded.data, updated_at = excluded.updated_at`)

	if _, err := p.db.Exec(query, rec.ID, rec.LayoutName, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save office %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads one record
func (p *SQLPersistence) Load(id string) (*OfficeRecord, error) {
	var data string
	err := p.db.QueryRow(p.bind(`SELECT data FROM offices WHERE id = ?`), id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
		}
		return nil, fmt.Errorf("failed to load office %s: %w", id, err)
	}

	var rec OfficeRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal office record: %w", err)
	}
	return &rec, nil
}

// Delete removes one record
func (p *SQLPersistence) Delete(id string) error {
	res, err := p.db.Exec(p.bind(`DELETE FROM offices WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete office %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
	}
	return nil
}

// ListAll returns every stored office id in order
func (p *SQLPersistence) ListAll() ([]string, error) {
	rows, err := p.db.Query(`SELECT id FROM offices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan office id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a record is stored
func (p *SQLPersistence) Exists(id string) bool {
	var one int
	err := p.db.QueryRow(p.bind(`SELECT 1 FROM offices WHERE id = ?`), id).Scan(&one)
	return err == nil
}

// Close releases the database handle
func (p *SQLPersistence) Close() error {
	return p.db.Close()
}
