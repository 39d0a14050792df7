package dialect

import (
	"fmt"
	"strings"

	"github.com/ormforge/ormforge/schema"
)

type sqliteDialect struct{}

func init() { Register(sqliteDialect{}) }

func (sqliteDialect) Name() string { return SQLite }

func (sqliteDialect) QuoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ColumnTypeSQL follows SQLite's type-affinity rules rather than a fixed
// catalog: size, precision and scale are not rendered, but an enum column
// still gets its CHECK constraint, as on the other dialects.
func (sqliteDialect) ColumnTypeSQL(t schema.Type, size, precision, scale int, enumValues []string) string {
	switch t {
	case schema.TypeString:
		return "varchar"
	case schema.TypeText:
		return "text"
	case schema.TypeInteger, schema.TypeBigInt:
		return "integer"
	case schema.TypeFloat, schema.TypeDouble:
		return "real"
	case schema.TypeDecimal:
		return "numeric"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeDate:
		return "date"
	case schema.TypeDateTime:
		return "datetime"
	case schema.TypeJSON:
		return "json"
	case schema.TypeUUID:
		return "varchar(36)"
	case schema.TypeEnum:
		if len(enumValues) > 0 {
			return fmt.Sprintf("varchar CHECK (%%s IN ('%s'))", strings.Join(enumValues, "','"))
		}
		return "varchar"
	case schema.TypeBytes:
		return "blob"
	default:
		return "text"
	}
}

func (sqliteDialect) AutoIncrementClause() string { return "AUTOINCREMENT" }

func (sqliteDialect) CreateMigrationsTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id integer PRIMARY KEY AUTOINCREMENT,
	migration varchar NOT NULL,
	batch integer NOT NULL,
	applied_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, table)
}

func (sqliteDialect) RandomFunction() string  { return "RANDOM()" }
func (sqliteDialect) SharedLockSyntax() string { return "" } // SQLite has no row-level shared lock

func (sqliteDialect) JSONContainsExpr(column, jsonPath string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.path = %s)", column, jsonPath)
}

func (sqliteDialect) SupportsReturning() bool        { return true }
func (sqliteDialect) SupportsCheckConstraints() bool { return true }
func (sqliteDialect) AdvisoryLockSupported() bool    { return false }
