package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// derefString safely dereferences a string pointer, returning empty string if nil
func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// nullString stores "" as NULL.
func nullString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// escapeILIKEPattern escapes ILIKE wildcards so user input matches literally.
// Backslash is the default ESCAPE character in PostgreSQL.
func escapeILIKEPattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
