// Package storage persists analysis runs in PostgreSQL or SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect captures the SQL differences between the supported databases
type Dialect struct {
	Name string
}

// Postgres is the PostgreSQL dialect; centroids are pgvector columns
var Postgres = Dialect{Name: DriverPostgres}

// SQLite is the SQLite dialect; centroids are JSON arrays
var SQLite = Dialect{Name: DriverSQLite}

// DialectFor returns the dialect of a driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return Postgres, nil
	case DriverSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's form
func (d Dialect) Rebind(query string) string {
	if d.Name != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Vector encodes a centroid for the dialect's centroid column
func (d Dialect) Vector(v []float64) (any, error) {
	if d.Name == DriverPostgres {
		f := make([]float32, len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		return pgvector.NewVector(f), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode centroid: %w", err)
	}
	return string(b), nil
}

// Schema returns the statements creating the results tables
func (d Dialect) Schema() []string {
	if d.Name == DriverPostgres {
		return []string{
			`CREATE EXTENSION IF NOT EXISTS vector`,
			`CREATE TABLE IF NOT EXISTS runs (
				id UUID PRIMARY KEY,
				command TEXT NOT NULL,
				stemmer TEXT NOT NULL,
				k INTEGER NOT NULL,
				topics INTEGER NOT NULL,
				seed BIGINT NOT NULL,
				min_doc_fraction DOUBLE PRECISION NOT NULL,
				documents INTEGER NOT NULL,
				inertia DOUBLE PRECISION NOT NULL,
				converged BOOLEAN NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS documents (
				run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				doc_id INTEGER NOT NULL,
				text TEXT NOT NULL,
				PRIMARY KEY (run_id, doc_id)
			)`,
			`CREATE TABLE IF NOT EXISTS assignments (
				run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				doc_id INTEGER NOT NULL,
				cluster INTEGER,
				PRIMARY KEY (run_id, doc_id)
			)`,
			`CREATE TABLE IF NOT EXISTS topic_terms (
				run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				topic INTEGER NOT NULL,
				term TEXT NOT NULL,
				beta DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, topic, term)
			)`,
			`CREATE TABLE IF NOT EXISTS centroids (
				run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				cluster INTEGER NOT NULL,
				size INTEGER NOT NULL,
				centroid vector NOT NULL,
				PRIMARY KEY (run_id, cluster)
			)`,
		}
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			stemmer TEXT NOT NULL,
			k INTEGER NOT NULL,
			topics INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			min_doc_fraction REAL NOT NULL,
			documents INTEGER NOT NULL,
			inertia REAL NOT NULL,
			converged INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			run_id TEXT NOT NULL,
			doc_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (run_id, doc_id),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS assignments (
			run_id TEXT NOT NULL,
			doc_id INTEGER NOT NULL,
			cluster INTEGER,
			PRIMARY KEY (run_id, doc_id),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS topic_terms (
			run_id TEXT NOT NULL,
			topic INTEGER NOT NULL,
			term TEXT NOT NULL,
			beta REAL NOT NULL,
			PRIMARY KEY (run_id, topic, term),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS centroids (
			run_id TEXT NOT NULL,
			cluster INTEGER NOT NULL,
			size INTEGER NOT NULL,
			centroid TEXT NOT NULL,
			PRIMARY KEY (run_id, cluster),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
	}
}

// Open connects to the results database. SQLite connections get WAL
// journaling and foreign keys.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s: %w", driver, err)
	}

	if dialect.Name == DriverSQLite {
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, Dialect{}, fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, dialect, nil
}
