// Package postgres stores records in PostgreSQL through a pgx connection
// pool. Importing it registers the "postgres" store driver.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/records/internal/config"
	"github.com/JonMunkholm/records/internal/record"
	"github.com/JonMunkholm/records/internal/store"
)

// copyThreshold is the attribute count above which SaveAll switches from a
// batched INSERT to COPY.
const copyThreshold = 500

func init() {
	store.Register(config.DriverPostgres, func(ctx context.Context, cfg config.DatabaseConfig) (store.Repository, error) {
		return Open(ctx, cfg)
	})
}

// Repository implements store.Repository on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Repository = (*Repository)(nil)

// New wraps an existing pool. The schema must already be migrated.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Open connects with the pool settings from cfg, verifies the connection
// and, when cfg.Migrate is set, applies pending migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	if cfg.Migrate {
		if err := Migrate(cfg.URL); err != nil {
			return nil, err
		}
		slog.Info("database migrations applied")
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("connected to database",
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return New(pool), nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const attributeColumns = `record_id, position, name, value, column_type, required, validation_pattern, validation_message, options`

func (r *Repository) FindAll(ctx context.Context) ([]record.Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (record.Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	byID := make(map[int64]int, len(records))
	for i := range records {
		byID[*records[i].ID] = i
	}

	attrRows, err := r.pool.Query(ctx,
		`SELECT `+attributeColumns+` FROM record_attributes ORDER BY record_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	defer attrRows.Close()

	for attrRows.Next() {
		id, attr, err := scanAttribute(attrRows)
		if err != nil {
			return nil, err
		}
		if i, ok := byID[id]; ok {
			records[i].Attributes = append(records[i].Attributes, attr)
		}
	}
	if err := attrRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}

	return records, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (record.Record, error) {
	return findByID(ctx, r.pool, id)
}

func findByID(ctx context.Context, q querier, id int64) (record.Record, error) {
	rec, err := scanRecord(q.QueryRow(ctx, `SELECT id, name, description FROM records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return record.Record{}, store.ErrNotFound
	}
	if err != nil {
		return record.Record{}, fmt.Errorf("query record %d: %w", id, err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+attributeColumns+` FROM record_attributes WHERE record_id = $1 ORDER BY position`, id)
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

// SaveAll writes the batch in one transaction. Record rows go first so
// that new identifiers are known, then every attribute row is written in a
// single round trip.
func (r *Repository) SaveAll(ctx context.Context, records []record.Record) ([]record.Record, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	saved := make([]record.Record, len(records))
	explicitIDs := false

	for i := range records {
		rec := records[i].Clone()
		desc := toPgText(rec.Description)

		if rec.ID == nil {
			var id int64
			err := tx.QueryRow(ctx,
				`INSERT INTO records (name, description) VALUES ($1, $2) RETURNING id`,
				rec.Name, desc).Scan(&id)
			if err != nil {
				return nil, fmt.Errorf("save record %d: insert: %w", i+1, err)
			}
			rec.ID = record.IDPtr(id)
		} else {
			explicitIDs = true
			_, err := tx.Exec(ctx, `
				INSERT INTO records (id, name, description) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					description = EXCLUDED.description,
					updated_at = now()`,
				*rec.ID, rec.Name, desc)
			if err != nil {
				return nil, fmt.Errorf("save record %d: upsert %d: %w", i+1, *rec.ID, err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM record_attributes WHERE record_id = $1`, *rec.ID); err != nil {
				return nil, fmt.Errorf("save record %d: clear attributes: %w", i+1, err)
			}
		}

		saved[i] = rec
	}

	if err := insertAttributes(ctx, tx, attributeRows(saved)); err != nil {
		return nil, err
	}

	// Explicit identifiers bypass the identity sequence; move it past them
	// so later inserts don't collide.
	if explicitIDs {
		_, err := tx.Exec(ctx, `
			SELECT setval(pg_get_serial_sequence('records', 'id'),
				GREATEST((SELECT COALESCE(MAX(id), 0) FROM records), 1))`)
		if err != nil {
			return nil, fmt.Errorf("advance id sequence: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// attributeRows flattens the attributes of saved records into COPY rows.
// When several records share an identifier the last one wins, matching
// the row-by-row upsert.
func attributeRows(saved []record.Record) [][]any {
	last := make(map[int64]int, len(saved))
	for i := range saved {
		last[*saved[i].ID] = i
	}

	var rows [][]any
	for i := range saved {
		rec := &saved[i]
		if last[*rec.ID] != i {
			continue
		}
		for pos, a := range rec.Attributes {
			rows = append(rows, []any{
				*rec.ID, int32(pos), a.Name, toPgText(a.Value), string(a.Type.OrDefault()), a.Required,
				toPgText(a.ValidationPattern), toPgText(a.ValidationMessage), toPgText(a.Options),
			})
		}
	}
	return rows
}

var attributeColumnNames = []string{
	"record_id", "position", "name", "value", "column_type", "required",
	"validation_pattern", "validation_message", "options",
}

func insertAttributes(ctx context.Context, tx pgx.Tx, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	if len(rows) > copyThreshold {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"record_attributes"}, attributeColumnNames, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy attributes: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy attributes: wrote %d of %d rows", n, len(rows))
		}
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`INSERT INTO record_attributes (`+attributeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, row...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert attributes: %w", err)
	}
	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// scanner is satisfied by pgx.Row and pgx.CollectableRow.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (record.Record, error) {
	var (
		id   int64
		name string
		desc pgtype.Text
	)
	if err := row.Scan(&id, &name, &desc); err != nil {
		return record.Record{}, err
	}
	return record.Record{
		ID:          record.IDPtr(id),
		Name:        name,
		Description: fromPgText(desc),
	}, nil
}

func scanAttribute(rows scanner) (int64, record.CustomAttribute, error) {
	var (
		recordID int64
		position int32
		a        record.CustomAttribute
		typ      string
		value    pgtype.Text
		pattern  pgtype.Text
		message  pgtype.Text
		options  pgtype.Text
	)
	if err := rows.Scan(&recordID, &position, &a.Name, &value, &typ, &a.Required, &pattern, &message, &options); err != nil {
		return 0, a, fmt.Errorf("scan attribute: %w", err)
	}
	a.Value = fromPgText(value)
	a.Type = record.AttributeType(typ)
	a.ValidationPattern = fromPgText(pattern)
	a.ValidationMessage = fromPgText(message)
	a.Options = fromPgText(options)
	return recordID, a, nil
}
