package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
)

type columnRow struct {
	Name      string         `db:"column_name"`
	DataType  string         `db:"data_type"`
	Nullable  string         `db:"is_nullable"`
	Default   sql.NullString `db:"column_default"`
	MaxLength sql.NullInt64  `db:"character_maximum_length"`
	Precision sql.NullInt64  `db:"numeric_precision"`
	Scale     sql.NullInt64  `db:"numeric_scale"`
	Identity  string         `db:"is_identity"`
}

func (s *Store) Columns(ctx context.Context, table string) ([]snapshot.Column, error) {
	var rows []columnRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT column_name, data_type, is_nullable, column_default,
			character_maximum_length, numeric_precision, numeric_scale, is_identity
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]snapshot.Column, 0, len(rows))
	for _, r := range rows {
		out = append(out, snapshot.Column{
			Name:      r.Name,
			DataType:  r.DataType,
			Nullable:  r.Nullable == "YES",
			Default:   r.Default.String,
			MaxLength: int(r.MaxLength.Int64),
			Precision: int(r.Precision.Int64),
			Scale:     int(r.Scale.Int64),
			Identity:  r.Identity == "YES",
		})
	}
	return out, nil
}

func (s *Store) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	var cols []string
	err := s.db.SelectContext(ctx, &cols, `
		SELECT k.column_name
		FROM information_schema.table_constraints c
		JOIN information_schema.key_column_usage k
			ON k.constraint_name = c.constraint_name
			AND k.table_schema = c.table_schema
			AND k.table_name = c.table_name
		WHERE c.constraint_type = 'PRIMARY KEY'
			AND c.table_schema = current_schema()
			AND c.table_name = $1
		ORDER BY k.ordinal_position
	`, table)
	if err != nil {
		return nil, mapError(err)
	}
	return cols, nil
}

func (s *Store) Rows(ctx context.Context, page snapshot.Page) ([][]any, error) {
	if len(page.Columns) == 0 {
		return nil, nil
	}

	quoted := make([]string, len(page.Columns))
	for i, c := range page.Columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(quoted, ", "), pgx.Identifier{page.Table}.Sanitize())
	args := []any{}
	if page.Filter != "" {
		args = append(args, page.Tenant)
		fmt.Fprintf(&b, " WHERE %s = $1", pgx.Identifier{page.Filter}.Sanitize())
	}
	if len(page.OrderBy) > 0 {
		order := make([]string, len(page.OrderBy))
		for i, c := range page.OrderBy {
			order[i] = pgx.Identifier{c}.Sanitize()
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(order, ", "))
	}
	args = append(args, page.Limit, page.Offset)
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryxContext(ctx, b.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

var _ snapshot.Source = (*Store)(nil)
