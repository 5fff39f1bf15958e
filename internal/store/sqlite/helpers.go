package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/JonMunkholm/records/internal/record"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (record.Record, error) {
	var (
		id   int64
		name string
		desc sql.NullString
	)
	if err := s.Scan(&id, &name, &desc); err != nil {
		if err == sql.ErrNoRows {
			return record.Record{}, err
		}
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}
	return record.Record{
		ID:          record.IDPtr(id),
		Name:        name,
		Description: nullToString(desc),
	}, nil
}

func scanAttribute(s scanner) (int64, record.CustomAttribute, error) {
	var (
		recordID int64
		position int
		a        record.CustomAttribute
		typ      string
		value    sql.NullString
		pattern  sql.NullString
		message  sql.NullString
		options  sql.NullString
	)
	err := s.Scan(&recordID, &position, &a.Name, &value, &typ, &a.Required, &pattern, &message, &options)
	if err != nil {
		return 0, a, fmt.Errorf("scan attribute: %w", err)
	}
	a.Value = nullToString(value)
	a.Type = record.AttributeType(typ)
	a.ValidationPattern = nullToString(pattern)
	a.ValidationMessage = nullToString(message)
	a.Options = nullToString(options)
	return recordID, a, nil
}

func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
