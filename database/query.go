package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/seatbook/seatbook/database/model"

	"gorm.io/gorm"
)

//go:embed sql/*.sql
var sqlFS embed.FS

var queries = loadQueries()

func loadQueries() map[string]string {
	entries, err := fs.ReadDir(sqlFS, "sql")
	if err != nil {
		panic(err)
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := sqlFS.ReadFile(path.Join("sql", e.Name()))
		if err != nil {
			panic(err)
		}
		m[strings.TrimSuffix(e.Name(), ".sql")] = strings.TrimSpace(string(data))
	}
	return m
}

// Query returns the statement stored in sql/<name>.sql. Unknown names panic: the
// set of statements is fixed at build time.
func Query(name string) string {
	q, ok := queries[name]
	if !ok {
		panic(fmt.Sprintf("database: unknown query %q", name))
	}
	return q
}

// QueryOne runs the named statement and decodes the first row. No row is
// ErrNotFound.
func QueryOne[T any](db *gorm.DB, name string, decode func(model.Scanner) (*T, error), args ...any) (*T, error) {
	rows, err := db.Raw(Query(name), args...).Rows()
	if err != nil {
		return nil, Translate(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, Translate(err)
		}
		return nil, ErrNotFound
	}
	v, err := decode(rows)
	if err != nil {
		return nil, Translate(err)
	}
	return v, nil
}

// QueryAll runs the named statement and decodes every row.
func QueryAll[T any](db *gorm.DB, name string, decode func(model.Scanner) (*T, error), args ...any) ([]T, error) {
	rows, err := db.Raw(Query(name), args...).Rows()
	if err != nil {
		return nil, Translate(err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := decode(rows)
		if err != nil {
			return nil, Translate(err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, Translate(err)
	}
	return out, nil
}
