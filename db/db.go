// Package db embeds the SQL schema scripts for the SQL-backed stores.
package db

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var postgres embed.FS

//go:embed sqlite/*.sql
var sqlite embed.FS

// Script is one named migration.
type Script struct {
	Name string
	SQL  string
}

// Postgres returns the Postgres migrations in apply order.
func Postgres() ([]Script, error) { return load(postgres, "migrations") }

// SQLite returns the SQLite migrations in apply order.
func SQLite() ([]Script, error) { return load(sqlite, "sqlite") }

func load(fsys embed.FS, dir string) ([]Script, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]Script, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(fsys, dir+"/"+n)
		if err != nil {
			return nil, err
		}
		out = append(out, Script{Name: n, SQL: string(b)})
	}
	return out, nil
}
