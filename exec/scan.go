package exec

import (
	dsql "github.com/ormforge/ormforge/dialect/sql"
)

// scanRows decodes every row of rs into a map keyed by column name. Byte
// slices (the common driver representation for TEXT/VARCHAR/JSON columns
// without native Go type info) are converted to string so callers get the
// same map[string]any shape regardless of dialect.
func scanRows(rs *dsql.Rows) ([]map[string]any, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rs.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(raw[i])
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
