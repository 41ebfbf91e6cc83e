package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/pkg/errors"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A Recorder stores rows of flat structs into tables.
type Recorder interface {
	// CreateTable creates a table whose columns are the fields of the
	// sample entry.
	CreateTable(tableName string, sampleEntry any) error

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any) error

	// ListTables returns the names of the tables created so far.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush() error
}

// NewRecorder creates a Recorder that writes to the SQLite file
// path.sqlite3. An empty path picks a unique name. The buffered entries are
// flushed when the program exits through atexit.
func NewRecorder(path string) (Recorder, error) {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	if err := w.init(); err != nil {
		return nil, err
	}

	atexit.Register(func() { w.flushAtExit() })

	return w, nil
}

// NewRecorderWithDB creates a Recorder on an open database.
func NewRecorderWithDB(db *sql.DB) Recorder {
	w := &sqliteWriter{
		DB:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.flushAtExit() })

	return w
}

// DefaultDBName returns a fresh database name.
func DefaultDBName() string {
	return "mmbridge_trace_" + xid.New().String()
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter buffers entries and writes them in batches.
type sqliteWriter struct {
	*sql.DB

	dbName     string
	tables     map[string]*table
	order      []string
	batchSize  int
	entryCount int
}

func (w *sqliteWriter) init() error {
	if w.dbName == "" {
		w.dbName = DefaultDBName()
	}

	filename := w.dbName + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return errors.Errorf("file %s already exists", filename)
	}

	fmt.Fprintf(os.Stderr, "Database created for tracing: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filename)
	}

	w.DB = db

	return nil
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return errors.Errorf("entry %T is not a struct", entry)
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || !isAllowedKind(f.Type.Kind()) {
			return errors.Errorf("field %s of %T cannot be stored",
				f.Name, entry)
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) error {
	if err := checkStructFields(sampleEntry); err != nil {
		return err
	}

	if _, exists := w.tables[tableName]; exists {
		return errors.Errorf("table %s already exists", tableName)
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	query := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`

	if _, err := w.Exec(query); err != nil {
		return errors.Wrapf(err, "creating table %s", tableName)
	}

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	w.order = append(w.order, tableName)

	return nil
}

func (w *sqliteWriter) InsertData(tableName string, entry any) error {
	t, exists := w.tables[tableName]
	if !exists {
		return errors.Errorf("table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != t.structType {
		return errors.Errorf("table %s stores %s, not %T",
			tableName, t.structType, entry)
	}

	t.entries = append(t.entries, entry)

	w.entryCount++
	if w.entryCount >= w.batchSize {
		return w.Flush()
	}

	return nil
}

func (w *sqliteWriter) ListTables() []string {
	return append([]string(nil), w.order...)
}

func (w *sqliteWriter) Flush() error {
	if w.entryCount == 0 {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	for _, name := range w.order {
		if err := w.flushTable(tx, name, w.tables[name]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	for _, t := range w.tables {
		t.entries = nil
	}

	w.entryCount = 0

	return nil
}

func (w *sqliteWriter) flushTable(tx *sql.Tx, name string, t *table) error {
	if len(t.entries) == 0 {
		return nil
	}

	placeholders := make([]string, t.structType.NumField())
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := "INSERT INTO " + name +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := tx.Prepare(query)
	if err != nil {
		return errors.Wrapf(err, "preparing insert into %s", name)
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		v := reflect.ValueOf(entry)

		args := make([]any, v.NumField())
		for i := range args {
			args[i] = v.Field(i).Interface()
		}

		if _, err := stmt.Exec(args...); err != nil {
			return errors.Wrapf(err, "inserting into %s", name)
		}
	}

	return nil
}

func (w *sqliteWriter) flushAtExit() {
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush trace: %v\n", err)
	}
}
