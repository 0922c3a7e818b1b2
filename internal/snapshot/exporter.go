// Package snapshot copies one tenant's slice of the relational store into a
// standalone SQLite database for offline clients.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/xid"
)

var ErrPayloadTooLarge = errors.New("snapshot exceeds the maximum payload size")

// Page asks the source for one slice of a table, in a stable order.
type Page struct {
	Table   string
	Columns []string
	// Filter names the tenant column to match against Tenant; empty reads
	// the whole table.
	Filter  string
	Tenant  string
	OrderBy []string
	Offset  int
	Limit   int
}

// Source exposes the schema and rows of the relational store.
type Source interface {
	// Columns returns no columns when the table does not exist.
	Columns(ctx context.Context, table string) ([]Column, error)
	PrimaryKey(ctx context.Context, table string) ([]string, error)
	Rows(ctx context.Context, page Page) ([][]any, error)
}

type Manifest struct {
	TablesExported []string       `json:"tables_exported"`
	TableContents  map[string]int `json:"table_contents"`
	MissingTables  []string       `json:"missing_tables"`
	SizeBytes      int64          `json:"size_bytes"`
}

type Snapshot struct {
	Data []byte
	Manifest
}

type Exporter struct {
	source   Source
	tables   []string
	tempDir  string
	maxBytes int64
	logger   *zap.Logger
}

type Option func(*Exporter)

func WithMaxBytes(n int64) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

func WithTempDir(dir string) Option {
	return func(e *Exporter) { e.tempDir = dir }
}

func WithTables(tables []string) Option {
	return func(e *Exporter) { e.tables = tables }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExporter(source Source, opts ...Option) *Exporter {
	e := &Exporter{
		source:   source,
		tables:   KnownTables,
		tempDir:  os.TempDir(),
		maxBytes: DefaultMaxBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exporter) Export(ctx context.Context, tenant string) (Snapshot, error) {
	if tenant == "" {
		return Snapshot{}, fmt.Errorf("export requires a tenant")
	}
	startedAt := time.Now()

	path := filepath.Join(e.tempDir, xid.New("snapshot")+".db")
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove snapshot file", zap.String("path", path), zap.Error(err))
		}
	}()

	manifest, err := e.write(ctx, path, tenant)
	if err != nil {
		return Snapshot{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	manifest.SizeBytes = int64(len(data))
	if manifest.SizeBytes > e.maxBytes {
		return Snapshot{}, fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, manifest.SizeBytes, e.maxBytes)
	}

	e.logger.Info("snapshot exported",
		zap.String("tenant", tenant),
		zap.Int("tables", len(manifest.TablesExported)),
		zap.Strings("missing_tables", manifest.MissingTables),
		zap.Int64("size_bytes", manifest.SizeBytes),
		zap.Duration("took", time.Since(startedAt)),
	)
	return Snapshot{Data: data, Manifest: manifest}, nil
}

func (e *Exporter) write(ctx context.Context, path string, tenant string) (Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Manifest{}, fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	manifest := Manifest{
		TablesExported: []string{},
		TableContents:  map[string]int{},
		MissingTables:  []string{},
	}
	for _, name := range e.tables {
		table, exists, err := e.describe(ctx, name)
		if err != nil {
			return Manifest{}, err
		}
		if !exists {
			manifest.MissingTables = append(manifest.MissingTables, name)
			continue
		}

		filter := ""
		if table.hasTenantColumn {
			filter = TenantColumn
		} else if TenantScoped[name] {
			return Manifest{}, fmt.Errorf("table %s has no %s column", name, TenantColumn)
		}

		if _, err := db.ExecContext(ctx, CreateTableSQL(table.Table)); err != nil {
			return Manifest{}, fmt.Errorf("create table %s: %w", name, err)
		}
		copied, err := e.copyRows(ctx, db, table, filter, tenant)
		if err != nil {
			return Manifest{}, err
		}
		manifest.TablesExported = append(manifest.TablesExported, name)
		manifest.TableContents[name] = copied
	}

	if err := db.Close(); err != nil {
		return Manifest{}, fmt.Errorf("close snapshot database: %w", err)
	}
	return manifest, nil
}

type describedTable struct {
	Table
	hasTenantColumn bool
}

func (e *Exporter) describe(ctx context.Context, name string) (describedTable, bool, error) {
	cols, err := e.source.Columns(ctx, name)
	if err != nil {
		return describedTable{}, false, fmt.Errorf("columns of %s: %w", name, err)
	}
	if len(cols) == 0 {
		return describedTable{}, false, nil
	}
	pk, err := e.source.PrimaryKey(ctx, name)
	if err != nil {
		return describedTable{}, false, fmt.Errorf("primary key of %s: %w", name, err)
	}

	out := describedTable{Table: Table{Name: name}}
	for _, c := range cols {
		if c.Name == TenantColumn {
			out.hasTenantColumn = true
		}
		if DroppedColumns[c.Name] {
			continue
		}
		out.Columns = append(out.Columns, c)
	}
	for _, k := range pk {
		if !DroppedColumns[k] {
			out.PrimaryKey = append(out.PrimaryKey, k)
		}
	}
	return out, true, nil
}

func (e *Exporter) copyRows(ctx context.Context, db *sql.DB, table describedTable, filter string, tenant string) (int, error) {
	names := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		names = append(names, c.Name)
	}
	order := table.PrimaryKey
	if len(order) == 0 {
		order = names
	}

	stmt := insertSQL(table.Table)
	total := 0
	for offset := 0; ; offset += PageSize {
		rows, err := e.source.Rows(ctx, Page{
			Table:   table.Name,
			Columns: names,
			Filter:  filter,
			Tenant:  tenant,
			OrderBy: order,
			Offset:  offset,
			Limit:   PageSize,
		})
		if err != nil {
			return 0, fmt.Errorf("read %s at offset %d: %w", table.Name, offset, err)
		}
		if err := insertPage(ctx, db, stmt, table.Columns, rows); err != nil {
			return 0, fmt.Errorf("write %s: %w", table.Name, err)
		}
		total += len(rows)
		if len(rows) < PageSize {
			return total, nil
		}
	}
}

func insertPage(ctx context.Context, db *sql.DB, stmt string, cols []Column, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for _, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("row has %d values, expected %d", len(row), len(cols))
		}
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = Coerce(cols[i], v)
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Coerce converts a source value into something the target accepts:
// booleans become 0/1 and temporal values become text.
func Coerce(c Column, v any) any {
	switch x := v.(type) {
	case nil:
		if def, ok := booleanDefault(c); ok {
			return def
		}
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		if strings.EqualFold(c.DataType, "date") {
			return x.Format("2006-01-02")
		}
		if strings.HasPrefix(strings.ToLower(c.DataType), "time ") || strings.EqualFold(c.DataType, "time") {
			return x.Format("15:04:05")
		}
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		if MapType(c) == "BLOB" {
			return x
		}
		return string(x)
	}
	return v
}
