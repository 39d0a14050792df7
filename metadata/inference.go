package metadata

import (
	"math"
	"strings"
	"time"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/schema"
	"github.com/ormforge/ormforge/schema/attribute"
)

// InferColumnType resolves attr's column type by the priority spec.md §3
// defines: (1) validation-rule type tag — the attribute's ExplicitType, set
// by a typed constructor (attribute.String, attribute.Int, ...); (2)
// default-value runtime type; (3) column-name heuristic; (4) fallback
// string. table and column name the attribute for the PlanningError this
// returns in the one case no fallback applies (an attribute with no type,
// no default, and an empty column name — unreachable through the attribute
// builder, which always has a non-empty Name, but checked for safety).
func InferColumnType(table string, attr *attribute.Descriptor) (schema.Type, error) {
	if attr.ExplicitType != "" {
		return attr.ExplicitType, nil
	}

	if t, ok := inferFromDefault(attr); ok {
		return t, nil
	}

	if attr.Name == "" {
		return "", ormforge.NewPlanningError(table, attr.Name, "no validation-rule type, default value, or column name to infer from")
	}

	return inferFromColumnName(attr.Name), nil
}

// inferFromDefault implements priority (2): a literal Default value's
// runtime type, or — for attributes declared with only a DefaultFunc
// factory (e.g. time.Now, uuid.New) — the runtime type of one sample
// invocation, since factories registered this way are side-effect-free.
func inferFromDefault(attr *attribute.Descriptor) (schema.Type, bool) {
	v := attr.Default
	if v == nil && attr.DefaultFunc != nil {
		v = attr.DefaultFunc()
	}
	if v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		if len(val) > 255 {
			return schema.TypeText, true
		}
		return schema.TypeString, true
	case bool:
		return schema.TypeBoolean, true
	case int:
		return integerType(int64(val)), true
	case int32:
		return integerType(int64(val)), true
	case int64:
		return integerType(val), true
	case float32:
		return schema.TypeFloat, true
	case float64:
		if val == math.Trunc(val) {
			return integerType(int64(val)), true
		}
		return schema.TypeFloat, true
	case time.Time:
		return schema.TypeDateTime, true
	default:
		return "", false
	}
}

func integerType(v int64) schema.Type {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return schema.TypeBigInt
	}
	return schema.TypeInteger
}

// inferFromColumnName implements priority (3): *_id→bigint, *_at→datetime,
// is_*/has_*→boolean, falling back to (4) string.
func inferFromColumnName(name string) schema.Type {
	switch {
	case strings.HasSuffix(name, "_id"):
		return schema.TypeBigInt
	case strings.HasSuffix(name, "_at"):
		return schema.TypeDateTime
	case strings.HasPrefix(name, "is_"), strings.HasPrefix(name, "has_"):
		return schema.TypeBoolean
	default:
		return schema.TypeString
	}
}
