package datarecording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
)

// ErrUnknownColumn is returned when a query names a column that the mapped
// struct does not have.
var ErrUnknownColumn = errors.New("unknown column")

// QueryParams selects, orders, and pages the rows of a query. Column names
// are the field names of the mapped struct.
type QueryParams struct {
	// Equal keeps the rows whose columns hold the given values.
	Equal map[string]any

	// OrderBy lists the sort columns. A leading "-" sorts descending.
	// Without it, rows come in insertion order.
	OrderBy []string

	// Limit is the maximum number of rows returned; 0 means no limit.
	Limit int

	// Offset is the number of rows skipped.
	Offset int
}

// BySession returns the parameters that select the rows of one session.
func BySession(session string) QueryParams {
	return QueryParams{Equal: map[string]any{"Session": session}}
}

// DataReader reads records back from a database.
type DataReader interface {
	// MapTable associates a table with the struct type of its rows. A table
	// must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of the mapped tables.
	ListTables() []string

	// Query returns the selected rows, each a pointer to a struct of the
	// mapped type, and the number of rows that match before paging.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader
	Close() error
}

type mapping struct {
	structType reflect.Type
	fields     map[string]int
}

type sqliteReader struct {
	db     *sql.DB
	tables map[string]mapping
}

// NewReader opens an existing SQLite database for reading.
func NewReader(dbFilename string) (DataReader, error) {
	if _, err := os.Stat(dbFilename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:     db,
		tables: make(map[string]mapping),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	fields := make(map[string]int, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		fields[t.Field(i).Name] = i
	}

	r.tables[tableName] = mapping{structType: t, fields: fields}
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.tables))
	for table := range r.tables {
		tables = append(tables, table)
	}

	sort.Strings(tables)

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	m, ok := r.tables[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("no mapping found for table: %s", tableName)
	}

	where, args, err := m.where(params.Equal)
	if err != nil {
		return nil, 0, err
	}

	order, err := m.orderBy(params.OrderBy)
	if err != nil {
		return nil, 0, err
	}

	var totalCount int

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+where, args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM " + tableName + where + order + page(params)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := m.scan(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, totalCount, nil
}

func (m mapping) column(name string) error {
	if _, ok := m.fields[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}

	return nil
}

func (m mapping) where(equal map[string]any) (string, []any, error) {
	if len(equal) == 0 {
		return "", nil, nil
	}

	columns := make([]string, 0, len(equal))
	for column := range equal {
		if err := m.column(column); err != nil {
			return "", nil, err
		}

		columns = append(columns, column)
	}

	sort.Strings(columns)

	conds := make([]string, len(columns))
	args := make([]any, len(columns))

	for i, column := range columns {
		conds[i] = column + " = ?"
		args[i] = equal[column]
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (m mapping) orderBy(columns []string) (string, error) {
	if len(columns) == 0 {
		return " ORDER BY rowid", nil
	}

	terms := make([]string, len(columns))

	for i, column := range columns {
		dir := " ASC"
		if name, found := strings.CutPrefix(column, "-"); found {
			column = name
			dir = " DESC"
		}

		if err := m.column(column); err != nil {
			return "", err
		}

		terms[i] = column + dir
	}

	return " ORDER BY " + strings.Join(terms, ", "), nil
}

func page(params QueryParams) string {
	switch {
	case params.Limit > 0 && params.Offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", params.Limit, params.Offset)
	case params.Limit > 0:
		return fmt.Sprintf(" LIMIT %d", params.Limit)
	case params.Offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", params.Offset)
	}

	return ""
}

func (m mapping) scan(rows *sql.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []any

	for rows.Next() {
		ptr := reflect.New(m.structType)
		targets := make([]any, len(columns))

		for i, column := range columns {
			idx, ok := m.fields[column]
			if !ok {
				var ignored any
				targets[i] = &ignored

				continue
			}

			targets[i] = ptr.Elem().Field(idx).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, ptr.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
