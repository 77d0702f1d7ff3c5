package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of the
	// sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables created.
	ListTables() []string

	// Flush writes all the buffered entries.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// Open creates a DataRecorder for a target. A clickhouse:// DSN selects
// ClickHouse, a mongodb:// URI selects MongoDB, and anything else names a
// SQLite file.
func Open(target string) (DataRecorder, error) {
	var (
		r   DataRecorder
		err error
	)

	switch {
	case strings.HasPrefix(target, clickHouseScheme):
		r, err = NewClickHouseRecorder(target)
	case strings.HasPrefix(target, mongoScheme):
		r, err = NewMongoRecorder(target)
	default:
		r, err = New(target)
	}

	if err != nil {
		return nil, err
	}

	return r, nil
}

// FileName returns the name of the SQLite file recorded for a path.
func FileName(path string) string {
	if strings.HasSuffix(path, sqliteSuffix) {
		return path
	}

	return path + sqliteSuffix
}

const sqliteSuffix = ".sqlite3"

// New creates a SQLite recorder. An empty path generates a unique name. The
// file must not exist.
func New(path string) (*SQLiteRecorder, error) {
	w := &SQLiteRecorder{
		dbName:    path,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	if err := w.Init(); err != nil {
		return nil, err
	}

	w.startExecRecorder()

	atexit.Register(func() { _ = w.Close() })

	return w, nil
}

// NewWithDB creates a recorder with a given database.
func NewWithDB(db *sql.DB) *SQLiteRecorder {
	w := &SQLiteRecorder{
		DB:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// SQLiteRecorder writes data into a SQLite database.
type SQLiteRecorder struct {
	*sql.DB

	lock       sync.Mutex
	dbName     string
	filename   string
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int

	exec      *execRecorder
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// Init creates the database file.
func (t *SQLiteRecorder) Init() error {
	if t.dbName == "" {
		t.dbName = "fracker_recording_" + xid.New().String()
	}

	t.filename = FileName(t.dbName)

	_, err := os.Stat(t.filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", t.filename)
	}

	db, err := sql.Open("sqlite3", t.filename)
	if err != nil {
		return err
	}

	t.DB = db

	return nil
}

// Filename returns the database file.
func (t *SQLiteRecorder) Filename() string {
	return t.filename
}

func (t *SQLiteRecorder) startExecRecorder() {
	t.exec = newExecRecorder(t)
	t.exec.Start()
}

func isAllowedType(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types == nil || types.Kind() != reflect.Struct {
		return errors.New("entry must be a struct")
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !field.IsExported() {
			return fmt.Errorf("field %s is not exported", field.Name)
		}

		if !isAllowedType(field.Type.Kind()) {
			return fmt.Errorf("field %s has unsupported type %s",
				field.Name, field.Type)
		}
	}

	return nil
}

func fieldValues(entry any) []any {
	v := reflect.ValueOf(entry)
	values := make([]any, 0, v.NumField())

	for i := 0; i < v.NumField(); i++ {
		values = append(values, v.Field(i).Interface())
	}

	return values
}

// CreateTable creates a table. It panics if the sample entry is not a flat
// struct.
func (t *SQLiteRecorder) CreateTable(tableName string, sampleEntry any) {
	t.lock.Lock()
	defer t.lock.Unlock()

	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	n := structs.Names(sampleEntry)
	fields := strings.Join(n, ", \n\t")

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`
	t.mustExecute(createTableSQL)

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
	t.tableNames = append(t.tableNames, tableName)
}

// InsertData buffers an entry. It panics if the table does not exist.
// Entries inserted after Close are dropped.
func (t *SQLiteRecorder) InsertData(tableName string, entry any) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return
	}

	table, exists := t.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)

	t.entryCount++
	if t.entryCount >= t.batchSize {
		t.flush()
	}
}

// ListTables returns the tables in creation order.
func (t *SQLiteRecorder) ListTables() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	tables := make([]string, len(t.tableNames))
	copy(tables, t.tableNames)

	return tables
}

// Flush writes the buffered entries in one transaction.
func (t *SQLiteRecorder) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.flush()
}

func (t *SQLiteRecorder) flush() {
	if t.closed || t.entryCount == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range t.tableNames {
		table := t.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		stmt := t.prepareStatement(tableName, table.entries[0])

		for _, entry := range table.entries {
			_, err := stmt.Exec(fieldValues(entry)...)
			if err != nil {
				panic(err)
			}
		}

		table.entries = nil

		stmt.Close()
	}

	t.entryCount = 0
}

// Close records the end of the execution, flushes, and closes the database.
func (t *SQLiteRecorder) Close() error {
	t.closeOnce.Do(func() {
		if t.exec != nil {
			t.exec.End()
		}

		t.lock.Lock()
		defer t.lock.Unlock()

		t.flush()
		t.closed = true
		t.closeErr = t.DB.Close()
	})

	return t.closeErr
}

func (t *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}

	return res
}

func (t *SQLiteRecorder) prepareStatement(table string, entry any) *sql.Stmt {
	n := structs.Names(entry)
	for i := 0; i < len(n); i++ {
		n[i] = "?"
	}

	entryToFill := "(" + strings.Join(n, ", ") + ")"
	sqlStr := "INSERT INTO " + table + " VALUES " + entryToFill

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}

var _ DataRecorder = (*SQLiteRecorder)(nil)
