package dialect

import (
	"fmt"
	"strings"

	"github.com/ormforge/ormforge/schema"
)

type postgresDialect struct{}

func init() { Register(postgresDialect{}) }

func (postgresDialect) Name() string { return Postgres }

func (postgresDialect) QuoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresDialect) ColumnTypeSQL(t schema.Type, size, precision, scale int, enumValues []string) string {
	switch t {
	case schema.TypeString:
		if size > 0 {
			return fmt.Sprintf("varchar(%d)", size)
		}
		return "varchar(255)"
	case schema.TypeText:
		return "text"
	case schema.TypeInteger:
		return "integer"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeFloat:
		return "real"
	case schema.TypeDouble:
		return "double precision"
	case schema.TypeDecimal:
		if precision > 0 {
			return fmt.Sprintf("numeric(%d,%d)", precision, scale)
		}
		return "numeric"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeDate:
		return "date"
	case schema.TypeDateTime:
		return "timestamptz"
	case schema.TypeJSON:
		return "jsonb"
	case schema.TypeUUID:
		return "uuid"
	case schema.TypeEnum:
		if len(enumValues) > 0 {
			return fmt.Sprintf("varchar(255) CHECK (%%s IN ('%s'))", strings.Join(enumValues, "','"))
		}
		return "varchar(255)"
	case schema.TypeBytes:
		return "bytea"
	default:
		return "text"
	}
}

func (postgresDialect) AutoIncrementClause() string { return "GENERATED BY DEFAULT AS IDENTITY" }

func (postgresDialect) CreateMigrationsTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	id bigint GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	migration varchar(255) NOT NULL,
	batch integer NOT NULL,
	applied_at timestamptz NOT NULL DEFAULT now()
)`, table)
}

func (postgresDialect) RandomFunction() string  { return "RANDOM()" }
func (postgresDialect) SharedLockSyntax() string { return "FOR SHARE" }

func (postgresDialect) JSONContainsExpr(column, jsonPath string) string {
	return fmt.Sprintf("%s @> %s", column, jsonPath)
}

func (postgresDialect) SupportsReturning() bool        { return true }
func (postgresDialect) SupportsCheckConstraints() bool { return true }
func (postgresDialect) AdvisoryLockSupported() bool    { return true }
