package receipt

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const receiptsSchema = `
CREATE TABLE IF NOT EXISTS receipts (
	id            TEXT PRIMARY KEY,
	merchant_name TEXT NOT NULL DEFAULT '',
	date          TEXT NOT NULL DEFAULT '',
	items         TEXT NOT NULL DEFAULT '[]',
	total_amount  REAL NOT NULL DEFAULT 0,
	tax_id        TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	image_name    TEXT NOT NULL DEFAULT '',
	content_type  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at);
`

// Ensure SQLiteDB implements DB
var _ DB = (*SQLiteDB)(nil)

// SQLiteDB implements the DB interface using SQLite. Queryable fields get
// real columns; line items are stored as a JSON column.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (and creates if needed) a SQLite database at the given
// path and ensures the schema exists.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	if _, err := db.Exec(receiptsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// SaveReceipt saves a record to the database
func (s *SQLiteDB) SaveReceipt(rec *Record) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshaling items: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO receipts (id, merchant_name, date, items, total_amount, tax_id, category, created_at, image_name, content_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			merchant_name = excluded.merchant_name,
			date          = excluded.date,
			items         = excluded.items,
			total_amount  = excluded.total_amount,
			tax_id        = excluded.tax_id,
			category      = excluded.category,
			image_name    = excluded.image_name,
			content_type  = excluded.content_type`,
		rec.ID, rec.MerchantName, rec.Date, string(items), rec.TotalAmount,
		rec.TaxID, rec.Category, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.ImageName, rec.ContentType,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// GetReceipt retrieves a record by ID
func (s *SQLiteDB) GetReceipt(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, merchant_name, date, items, total_amount, tax_id, category, created_at, image_name, content_type
		FROM receipts WHERE id = ?`, id)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListReceipts returns all records ordered by creation time ascending
func (s *SQLiteDB) ListReceipts() ([]*Record, error) {
	rows, err := s.db.Query(`
		SELECT id, merchant_name, date, items, total_amount, tax_id, category, created_at, image_name, content_type
		FROM receipts ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// DeleteReceipt removes a record from the database
func (s *SQLiteDB) DeleteReceipt(id string) error {
	if _, err := s.db.Exec(`DELETE FROM receipts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// scanRecord reads one row into a Record using the given Scan function, so
// it works for both sql.Row and sql.Rows.
func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var items, createdAt string

	err := scan(&rec.ID, &rec.MerchantName, &rec.Date, &items, &rec.TotalAmount,
		&rec.TaxID, &rec.Category, &createdAt, &rec.ImageName, &rec.ContentType)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling items: %w", err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &rec, nil
}
