package dialect

import (
	"fmt"
	"strings"

	"github.com/ormforge/ormforge/schema"
)

type mysqlDialect struct{}

func init() { Register(mysqlDialect{}) }

func (mysqlDialect) Name() string { return MySQL }

func (mysqlDialect) QuoteIdentifier(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) ColumnTypeSQL(t schema.Type, size, precision, scale int, enumValues []string) string {
	switch t {
	case schema.TypeString:
		if size > 0 {
			return fmt.Sprintf("varchar(%d)", size)
		}
		return "varchar(255)"
	case schema.TypeText:
		return "text"
	case schema.TypeInteger:
		return "int"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeFloat:
		return "float"
	case schema.TypeDouble:
		return "double"
	case schema.TypeDecimal:
		if precision > 0 {
			return fmt.Sprintf("decimal(%d,%d)", precision, scale)
		}
		return "decimal"
	case schema.TypeBoolean:
		return "tinyint(1)"
	case schema.TypeDate:
		return "date"
	case schema.TypeDateTime:
		return "datetime(3)"
	case schema.TypeJSON:
		return "json"
	case schema.TypeUUID:
		return "char(36)"
	case schema.TypeEnum:
		if len(enumValues) > 0 {
			return fmt.Sprintf("enum('%s')", strings.Join(enumValues, "','"))
		}
		return "varchar(255)"
	case schema.TypeBytes:
		return "blob"
	default:
		return "text"
	}
}

func (mysqlDialect) AutoIncrementClause() string { return "AUTO_INCREMENT" }

func (mysqlDialect) CreateMigrationsTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
		"\tid bigint AUTO_INCREMENT PRIMARY KEY,\n"+
		"\tmigration varchar(255) NOT NULL,\n"+
		"\tbatch int NOT NULL,\n"+
		"\tapplied_at datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)\n"+
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4", table)
}

func (mysqlDialect) RandomFunction() string  { return "RAND()" }
func (mysqlDialect) SharedLockSyntax() string { return "LOCK IN SHARE MODE" }

func (mysqlDialect) JSONContainsExpr(column, jsonPath string) string {
	return fmt.Sprintf("JSON_CONTAINS(%s, %s)", column, jsonPath)
}

func (mysqlDialect) SupportsReturning() bool        { return false }
func (mysqlDialect) SupportsCheckConstraints() bool { return true }
func (mysqlDialect) AdvisoryLockSupported() bool    { return false }
