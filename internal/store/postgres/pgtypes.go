package postgres

import "github.com/jackc/pgx/v5/pgtype"

// toPgText maps "" to NULL. Values are stored verbatim, whitespace included.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func fromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
