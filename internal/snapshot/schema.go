package snapshot

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	TenantColumn    = "user_id"
	PageSize        = 1000
	DefaultMaxBytes = 37 << 20
)

// KnownTables is the export order.
var KnownTables = []string{
	"categorie",
	"item",
	"codebar",
	"client",
	"fournisseur",
	"utilisateur",
	"comande",
	"attache",
	"mouvement",
	"mouvementc",
	"encaisse",
}

// TenantScoped tables are always filtered on the tenant column.
var TenantScoped = map[string]bool{
	"utilisateur": true,
	"comande":     true,
	"mouvement":   true,
	"mouvementc":  true,
}

// DroppedColumns never reach the snapshot; sellers are renumbered on import.
var DroppedColumns = map[string]bool{
	"numero_util": true,
}

var reservedWords = map[string]struct{}{
	"ABORT": {}, "ACTION": {}, "ADD": {}, "ALL": {}, "ALTER": {}, "AND": {}, "AS": {}, "ASC": {},
	"BETWEEN": {}, "BY": {}, "CASE": {}, "CHECK": {}, "COLUMN": {}, "COMMIT": {}, "CONSTRAINT": {},
	"CREATE": {}, "CROSS": {}, "CURRENT_DATE": {}, "CURRENT_TIME": {}, "CURRENT_TIMESTAMP": {},
	"DATE": {}, "DEFAULT": {}, "DELETE": {}, "DESC": {}, "DISTINCT": {}, "DROP": {}, "ELSE": {},
	"END": {}, "EXISTS": {}, "FOREIGN": {}, "FROM": {}, "FULL": {}, "GROUP": {}, "HAVING": {},
	"IN": {}, "INDEX": {}, "INNER": {}, "INSERT": {}, "INTO": {}, "IS": {}, "JOIN": {}, "KEY": {},
	"LEFT": {}, "LIKE": {}, "LIMIT": {}, "NOT": {}, "NULL": {}, "OFFSET": {}, "ON": {}, "OR": {},
	"ORDER": {}, "OUTER": {}, "PRIMARY": {}, "REFERENCES": {}, "RIGHT": {}, "ROLLBACK": {},
	"SELECT": {}, "SET": {}, "TABLE": {}, "TABLES": {}, "THEN": {}, "TIME": {}, "TO": {}, "TRANSACTION": {},
	"UNION": {}, "UNIQUE": {}, "UPDATE": {}, "USER": {}, "USING": {}, "VALUES": {}, "VIEW": {},
	"WHEN": {}, "WHERE": {}, "WITH": {},
}

// Column is one source column as reported by the schema introspection.
type Column struct {
	Name      string
	DataType  string
	Nullable  bool
	Default   string
	MaxLength int
	Precision int
	Scale     int
	Identity  bool
}

type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

type typeRule struct {
	sourceTypes []string
	render      func(Column) string
}

func fixed(target string) func(Column) string {
	return func(Column) string { return target }
}

var typeRules = []typeRule{
	{[]string{"integer", "int", "int4", "smallint", "int2", "bigint", "int8", "serial", "bigserial"}, fixed("INTEGER")},
	{[]string{"boolean", "bool"}, fixed("INTEGER")},
	{[]string{"numeric", "decimal", "real", "float4"}, fixed("REAL")},
	{[]string{"double precision", "float8"}, fixed("DOUBLE PRECISION")},
	{[]string{"character varying", "varchar"}, func(c Column) string {
		if c.MaxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.MaxLength)
		}
		return "VARCHAR(30)"
	}},
	{[]string{"character", "char", "bpchar"}, func(c Column) string {
		if c.MaxLength > 0 {
			return fmt.Sprintf("CHAR(%d)", c.MaxLength)
		}
		return "CHAR(1)"
	}},
	{[]string{"text"}, fixed("TEXT")},
	{[]string{
		"date", "time", "time without time zone", "time with time zone",
		"timestamp", "timestamp without time zone", "timestamp with time zone",
		"uuid", "json", "jsonb",
	}, fixed("TEXT")},
	{[]string{"bytea"}, fixed("BLOB")},
}

const fallbackType = "VARCHAR(30)"

// MapType renders the target column type for a source column.
func MapType(c Column) string {
	dt := strings.ToLower(strings.TrimSpace(c.DataType))
	for _, rule := range typeRules {
		for _, name := range rule.sourceTypes {
			if dt == name {
				return rule.render(c)
			}
		}
	}
	return fallbackType
}

func isBoolean(c Column) bool {
	dt := strings.ToLower(c.DataType)
	return dt == "boolean" || dt == "bool"
}

// IsIdentity reports whether the column is fed by a sequence.
func IsIdentity(c Column) bool {
	if c.Identity {
		return true
	}
	def := strings.ToLower(c.Default)
	return strings.Contains(def, "nextval(") && strings.Contains(def, "_seq")
}

// QuoteIdent uppercases a column or keeps a table name, quoting it when it is
// a reserved word.
func QuoteIdent(name string) string {
	if _, reserved := reservedWords[strings.ToUpper(name)]; reserved {
		return `"` + name + `"`
	}
	return name
}

func columnName(name string) string {
	return QuoteIdent(strings.ToUpper(name))
}

var (
	castSuffix     = regexp.MustCompile(`::[a-zA-Z ]+(\([0-9, ]*\))?$`)
	numericLiteral = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	quotedLiteral  = regexp.MustCompile(`^'([^']|'')*'$`)
)

// DefaultLiteral translates a source column default into a target literal.
// Sequence and expression defaults are dropped.
func DefaultLiteral(c Column) (string, bool) {
	def := strings.TrimSpace(c.Default)
	if def == "" || IsIdentity(c) {
		return "", false
	}
	for strings.HasPrefix(def, "(") && strings.HasSuffix(def, ")") {
		def = strings.TrimSpace(def[1 : len(def)-1])
	}
	def = castSuffix.ReplaceAllString(def, "")
	for strings.HasPrefix(def, "(") && strings.HasSuffix(def, ")") {
		def = strings.TrimSpace(def[1 : len(def)-1])
	}

	switch strings.ToLower(def) {
	case "true":
		return "1", true
	case "false":
		return "0", true
	case "now()", "current_timestamp", "localtimestamp":
		return "CURRENT_TIMESTAMP", true
	case "current_date":
		return "CURRENT_DATE", true
	}
	if numericLiteral.MatchString(def) || quotedLiteral.MatchString(def) {
		return def, true
	}
	return "", false
}

// booleanDefault returns the 0/1 value a null boolean inherits, if any.
func booleanDefault(c Column) (int64, bool) {
	if !isBoolean(c) {
		return 0, false
	}
	lit, ok := DefaultLiteral(c)
	if !ok {
		return 0, false
	}
	switch lit {
	case "1":
		return 1, true
	case "0":
		return 0, true
	}
	return 0, false
}

// CreateTableSQL renders the target DDL for one table.
func CreateTableSQL(t Table) string {
	identity := ""
	for _, c := range t.Columns {
		if IsIdentity(c) {
			identity = c.Name
			break
		}
	}

	inlinePK := ""
	if identity == "" && len(t.PrimaryKey) == 1 {
		inlinePK = t.PrimaryKey[0]
	}

	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		if c.Name == identity {
			defs = append(defs, columnName(c.Name)+" INTEGER PRIMARY KEY AUTOINCREMENT")
			continue
		}
		def := columnName(c.Name) + " " + MapType(c)
		if c.Name == inlinePK {
			def += " PRIMARY KEY"
		}
		if !c.Nullable {
			def += " NOT NULL"
		}
		if lit, ok := DefaultLiteral(c); ok {
			def += " DEFAULT " + lit
		}
		defs = append(defs, def)
	}

	if identity == "" && len(t.PrimaryKey) > 1 {
		keys := make([]string, 0, len(t.PrimaryKey))
		for _, k := range t.PrimaryKey {
			keys = append(keys, columnName(k))
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QuoteIdent(t.Name), strings.Join(defs, ",\n  "))
}

func insertSQL(t Table) string {
	names := make([]string, 0, len(t.Columns))
	marks := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, columnName(c.Name))
		marks = append(marks, "?")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", QuoteIdent(t.Name), strings.Join(names, ", "), strings.Join(marks, ", "))
}
