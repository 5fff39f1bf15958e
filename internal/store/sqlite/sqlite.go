// Package sqlite stores records in a SQLite file through the pure-Go
// modernc.org/sqlite driver. It is meant for local and offline use and
// backs the store test suite; production deployments use the postgres
// driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/record"
	"github.com/JonMunkholm/records/internal/store"
)

//go:embed schema.sql
var schemaSQL string

func init() {
	store.Register(config.DriverSQLite, func(ctx context.Context, cfg config.DatabaseConfig) (store.Repository, error) {
		return Open(ctx, cfg.URL)
	})
}

// Repository implements store.Repository on SQLite.
type Repository struct {
	db *sql.DB
}

var _ store.Repository = (*Repository)(nil)

// Open opens or creates the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func dsn(path string) string {
	path = strings.TrimPrefix(path, "sqlite://")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const attributeColumns = `record_id, position, name, value, column_type, required, validation_pattern, validation_message, options`

func (r *Repository) FindAll(ctx context.Context) ([]record.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	byID := make(map[int64]int)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		byID[*rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	rows.Close()

	attrs, err := r.db.QueryContext(ctx,
		`SELECT `+attributeColumns+` FROM record_attributes ORDER BY record_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer attrs.Close()

	for attrs.Next() {
		id, attr, err := scanAttribute(attrs)
		if err != nil {
			return nil, err
		}
		if i, ok := byID[id]; ok {
			records[i].Attributes = append(records[i].Attributes, attr)
		}
	}
	if err := attrs.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}

	return records, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (record.Record, error) {
	return findByID(ctx, r.db, id)
}

func findByID(ctx context.Context, q querier, id int64) (record.Record, error) {
	row := q.QueryRowContext(ctx, `SELECT id, name, description FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, store.ErrNotFound
	}
	if err != nil {
		return record.Record{}, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+attributeColumns+` FROM record_attributes WHERE record_id = ? ORDER BY position`, id)
	if err != nil {
		return record.Record{}, fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, attr, err := scanAttribute(rows)
		if err != nil {
			return record.Record{}, err
		}
		rec.Attributes = append(rec.Attributes, attr)
	}
	if err := rows.Err(); err != nil {
		return record.Record{}, fmt.Errorf("iterate attributes: %w", err)
	}
	return rec, nil
}

func (r *Repository) Save(ctx context.Context, rec record.Record) (record.Record, error) {
	saved, err := r.SaveAll(ctx, []record.Record{rec})
	if err != nil {
		return record.Record{}, err
	}
	return saved[0], nil
}

func (r *Repository) SaveAll(ctx context.Context, records []record.Record) ([]record.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	saved := make([]record.Record, len(records))
	for i := range records {
		rec, err := saveOne(ctx, tx, records[i])
		if err != nil {
			return nil, fmt.Errorf("save record %d: %w", i+1, err)
		}
		saved[i] = rec
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func saveOne(ctx context.Context, tx *sql.Tx, rec record.Record) (record.Record, error) {
	rec = rec.Clone()
	desc := stringToNull(rec.Description)

	if rec.ID == nil {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO records (name, description) VALUES (?, ?)`, rec.Name, desc)
		if err != nil {
			return rec, fmt.Errorf("insert record: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return rec, fmt.Errorf("insert record id: %w", err)
		}
		rec.ID = record.IDPtr(id)
	} else {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, name, description) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				updated_at = CURRENT_TIMESTAMP`,
			*rec.ID, rec.Name, desc)
		if err != nil {
			return rec, fmt.Errorf("upsert record %d: %w", *rec.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM record_attributes WHERE record_id = ?`, *rec.ID); err != nil {
			return rec, fmt.Errorf("clear attributes of %d: %w", *rec.ID, err)
		}
	}

	for pos, a := range rec.Attributes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO record_attributes (`+attributeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			*rec.ID, pos, a.Name, stringToNull(a.Value), string(a.Type.OrDefault()), a.Required,
			stringToNull(a.ValidationPattern), stringToNull(a.ValidationMessage), stringToNull(a.Options))
		if err != nil {
			return rec, fmt.Errorf("insert attribute %q: %w", a.Name, err)
		}
	}
	return rec, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
