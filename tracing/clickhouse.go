package tracing

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions locates a ClickHouse server.
type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

// clickHouseSession is the part of a ClickHouse connection the recorder
// uses.
type clickHouseSession interface {
	exec(ctx context.Context, query string) error
	prepare(ctx context.Context, query string) (clickHouseBatch, error)
	close() error
}

type clickHouseBatch interface {
	Append(v ...any) error
	Send() error
}

type nativeSession struct {
	conn clickhouse.Conn
}

func (s nativeSession) exec(ctx context.Context, query string) error {
	return s.conn.Exec(ctx, query)
}

func (s nativeSession) prepare(
	ctx context.Context,
	query string,
) (clickHouseBatch, error) {
	return s.conn.PrepareBatch(ctx, query)
}

func (s nativeSession) close() error {
	return s.conn.Close()
}

// NewClickHouseRecorder creates a Recorder that writes to a ClickHouse
// server over the native protocol. The buffered entries are flushed when the
// program exits through atexit.
func NewClickHouseRecorder(opts ClickHouseOptions) (Recorder, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      5 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to ClickHouse at %s",
			opts.Addr)
	}

	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "pinging ClickHouse at %s", opts.Addr)
	}

	fmt.Fprintf(os.Stderr, "Tracing into ClickHouse at %s\n", opts.Addr)

	w := newClickHouseWriter(nativeSession{conn: conn})
	atexit.Register(func() { w.flushAtExit() })

	return w, nil
}

// clickHouseWriter buffers entries and sends them in one batch per table.
type clickHouseWriter struct {
	session    clickHouseSession
	tables     map[string]*table
	order      []string
	batchSize  int
	entryCount int
}

func newClickHouseWriter(s clickHouseSession) *clickHouseWriter {
	return &clickHouseWriter{
		session:   s,
		tables:    make(map[string]*table),
		batchSize: 100000,
	}
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}

// clickHouseSchema builds a MergeTree table ordered by the first field.
func clickHouseSchema(tableName string, sampleEntry any) (string, error) {
	if err := checkStructFields(sampleEntry); err != nil {
		return "", err
	}

	names := structs.Names(sampleEntry)
	t := reflect.TypeOf(sampleEntry)

	columns := make([]string, len(names))
	for i, name := range names {
		columns[i] = name + " " + clickHouseType(t.Field(i).Type.Kind())
	}

	return "CREATE TABLE IF NOT EXISTS " + tableName + " (\n\t" +
		strings.Join(columns, ",\n\t") +
		"\n) ENGINE = MergeTree()\nORDER BY " + names[0], nil
}

func (w *clickHouseWriter) CreateTable(tableName string, sampleEntry any) error {
	if _, exists := w.tables[tableName]; exists {
		return errors.Errorf("table %s already exists", tableName)
	}

	query, err := clickHouseSchema(tableName, sampleEntry)
	if err != nil {
		return err
	}

	if err := w.session.exec(context.Background(), query); err != nil {
		return errors.Wrapf(err, "creating table %s", tableName)
	}

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	w.order = append(w.order, tableName)

	return nil
}

func (w *clickHouseWriter) InsertData(tableName string, entry any) error {
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

func (w *clickHouseWriter) ListTables() []string {
	return append([]string(nil), w.order...)
}

func (w *clickHouseWriter) Flush() error {
	if w.entryCount == 0 {
		return nil
	}

	ctx := context.Background()

	for _, name := range w.order {
		t := w.tables[name]
		if len(t.entries) == 0 {
			continue
		}

		if err := w.sendTable(ctx, name, t); err != nil {
			return err
		}

		t.entries = nil
	}

	w.entryCount = 0

	return nil
}

func (w *clickHouseWriter) sendTable(
	ctx context.Context,
	name string,
	t *table,
) error {
	batch, err := w.session.prepare(ctx, "INSERT INTO "+name)
	if err != nil {
		return errors.Wrapf(err, "preparing batch for %s", name)
	}

	for _, entry := range t.entries {
		if err := batch.Append(structs.Values(entry)...); err != nil {
			return errors.Wrapf(err, "appending to %s", name)
		}
	}

	return errors.Wrapf(batch.Send(), "sending batch to %s", name)
}

// Close flushes the buffered entries and closes the connection.
func (w *clickHouseWriter) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}

	return w.session.close()
}

func (w *clickHouseWriter) flushAtExit() {
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush trace: %v\n", err)
	}
}
