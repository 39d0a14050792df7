package schema

// Type is the canonical column type a model attribute resolves to, the
// common currency between attribute type inference (schema/attribute), the
// migration planner's DDL emission, and each dialect's type mapping table.
type Type string

// The supported canonical column types. Dialect drivers map each of these
// onto their own native type name (e.g. Integer maps to "integer" on
// Postgres, "int" on MySQL, "integer" on SQLite).
const (
	TypeString   Type = "string"
	TypeText     Type = "text"
	TypeInteger  Type = "integer"
	TypeBigInt   Type = "bigint"
	TypeFloat    Type = "float"
	TypeDouble   Type = "double"
	TypeDecimal  Type = "decimal"
	TypeBoolean  Type = "boolean"
	TypeDate     Type = "date"
	TypeDateTime Type = "datetime"
	TypeJSON     Type = "json"
	TypeUUID     Type = "uuid"
	TypeEnum     Type = "enum"
	TypeBytes    Type = "bytes"
)

// Valid reports whether t is one of the canonical types above.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeText, TypeInteger, TypeBigInt, TypeFloat, TypeDouble,
		TypeDecimal, TypeBoolean, TypeDate, TypeDateTime, TypeJSON, TypeUUID,
		TypeEnum, TypeBytes:
		return true
	default:
		return false
	}
}

func (t Type) String() string { return string(t) }
