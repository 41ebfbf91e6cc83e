package tracing

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// A Reader reads transfer records back from a trace database.
type Reader struct {
	*sql.DB
}

// NewReader opens the trace database file.
func NewReader(filename string) (*Reader, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}

	return &Reader{DB: db}, nil
}

// NewReaderWithDB creates a reader on an open database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{DB: db}
}

// ListTables returns the names of all the tables in the database.
func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "listing tables")
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

// Transfers returns the records of a component in cycle order. An empty
// component returns the records of every component.
func (r *Reader) Transfers(
	ctx context.Context,
	component string,
) ([]TransferRecord, error) {
	query := "SELECT ID, Component, Cycle, Kind, Address, Lane, " +
		"ByteEnable, BurstCount, Data FROM " + TransferTable
	args := []any{}

	if component != "" {
		query += " WHERE Component = ?"
		args = append(args, component)
	}

	query += " ORDER BY Cycle, rowid"

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying transfers")
	}
	defer rows.Close()

	var records []TransferRecord
	for rows.Next() {
		var rec TransferRecord

		err := rows.Scan(&rec.ID, &rec.Component, &rec.Cycle, &rec.Kind,
			&rec.Address, &rec.Lane, &rec.ByteEnable, &rec.BurstCount,
			&rec.Data)
		if err != nil {
			return nil, errors.Wrap(err, "scanning transfer")
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
