package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ormforge/ormforge/dialect"
)

// Build diffs current against desired and renders every change into
// dialect-specific DDL, returning the ordered Plan plus its content hash.
func Build(dialectName string, current, desired []*Table) (*Plan, error) {
	d := dialect.Get(dialectName)
	if d == nil {
		return nil, fmt.Errorf("dialect/sql/schema: unknown dialect %q", dialectName)
	}
	changes := Diff(current, desired)
	for i := range changes {
		sql, err := emit(d, changes[i])
		if err != nil {
			return nil, err
		}
		changes[i].SQL = sql
	}
	return &Plan{Changes: changes, Hash: Hash(changes)}, nil
}

// Hash returns a stable content hash over an ordered change list's rendered
// SQL, used to detect when an already-applied migration's definition has
// drifted from what originally ran.
func Hash(changes []Change) string {
	h := sha256.New()
	for _, c := range changes {
		h.Write([]byte(c.SQL))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func emit(d dialect.SchemaDialect, c Change) (string, error) {
	switch c.Kind {
	case ChangeCreateTable:
		return emitCreateTable(d, c.NewTable), nil
	case ChangeDropTable:
		return fmt.Sprintf("DROP TABLE %s", d.QuoteIdentifier(c.Table)), nil
	case ChangeAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdentifier(c.Table), columnDDL(d, c.Column)), nil
	case ChangeDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdentifier(c.Table), d.QuoteIdentifier(c.Column.Name)), nil
	case ChangeAlterColumn:
		return emitAlterColumn(d, c), nil
	case ChangeAddIndex:
		return emitCreateIndex(d, c.Table, c.Index), nil
	case ChangeDropIndex:
		return fmt.Sprintf("DROP INDEX %s", d.QuoteIdentifier(c.Index.Name)), nil
	case ChangeAddForeignKey:
		return fmt.Sprintf("ALTER TABLE %s ADD %s", d.QuoteIdentifier(c.Table), foreignKeyDDL(d, c.ForeignKey)), nil
	case ChangeDropForeignKey:
		return emitDropForeignKey(d, c.Table, c.ForeignKey), nil
	default:
		return "", fmt.Errorf("dialect/sql/schema: unsupported change kind %q", c.Kind)
	}
}

func emitCreateTable(d dialect.SchemaDialect, t *Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", d.QuoteIdentifier(t.Name))
	lines := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		lines = append(lines, "\t"+columnDDL(d, c))
	}
	if len(t.PrimaryKey) > 0 {
		names := make([]string, len(t.PrimaryKey))
		for i, c := range t.PrimaryKey {
			names[i] = d.QuoteIdentifier(c.Name)
		}
		lines = append(lines, fmt.Sprintf("\tPRIMARY KEY (%s)", strings.Join(names, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		lines = append(lines, "\t"+foreignKeyDDL(d, fk))
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

func columnDDL(d dialect.SchemaDialect, c *Column) string {
	typeSQL := d.ColumnTypeSQL(c.Type, c.Size, c.Precision, c.Scale, c.EnumValues)
	if strings.Contains(typeSQL, "%s") {
		typeSQL = fmt.Sprintf(typeSQL, d.QuoteIdentifier(c.Name))
	}
	parts := []string{d.QuoteIdentifier(c.Name), typeSQL}
	// SQLite's auto-increment form is the single-column inline
	// "INTEGER PRIMARY KEY AUTOINCREMENT" constraint, which this
	// generic column-then-table-level-PRIMARY-KEY emitter does not
	// special-case; SQLite's rowid already auto-increments an
	// INTEGER PRIMARY KEY without the keyword, so it is skipped here.
	if c.AutoIncrement && d.Name() != dialect.SQLite {
		if clause := d.AutoIncrementClause(); clause != "" {
			parts = append(parts, clause)
		}
	}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %v", formatDefault(c.Default)))
	}
	if c.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " ")
}

func formatDefault(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

func emitAlterColumn(d dialect.SchemaDialect, c Change) string {
	col, old := c.Column, c.OldColumn
	alter := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
		d.QuoteIdentifier(c.Table), d.QuoteIdentifier(col.Name), d.ColumnTypeSQL(col.Type, col.Size, col.Precision, col.Scale, col.EnumValues))
	if old.Nullable != col.Nullable {
		if col.Nullable {
			alter += fmt.Sprintf("; ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", d.QuoteIdentifier(c.Table), d.QuoteIdentifier(col.Name))
		} else {
			alter += fmt.Sprintf("; ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", d.QuoteIdentifier(c.Table), d.QuoteIdentifier(col.Name))
		}
	}
	return alter
}

func emitCreateIndex(d dialect.SchemaDialect, table string, idx *Index) string {
	names := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		names[i] = d.QuoteIdentifier(c.Name)
	}
	kw := "INDEX"
	if idx.Unique {
		kw = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kw, d.QuoteIdentifier(idx.Name), d.QuoteIdentifier(table), strings.Join(names, ", "))
}

func foreignKeyDDL(d dialect.SchemaDialect, fk *ForeignKey) string {
	cols := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		cols[i] = d.QuoteIdentifier(c.Name)
	}
	refCols := make([]string, len(fk.RefColumns))
	for i, c := range fk.RefColumns {
		refCols[i] = d.QuoteIdentifier(c.Name)
	}
	s := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdentifier(fk.Symbol), strings.Join(cols, ", "), d.QuoteIdentifier(fk.RefTable.Name), strings.Join(refCols, ", "))
	if fk.OnDelete != "" {
		s += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		s += " ON UPDATE " + fk.OnUpdate
	}
	return s
}

func emitDropForeignKey(d dialect.SchemaDialect, table string, fk *ForeignKey) string {
	if d.Name() == dialect.MySQL {
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", d.QuoteIdentifier(table), d.QuoteIdentifier(fk.Symbol))
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.QuoteIdentifier(table), d.QuoteIdentifier(fk.Symbol))
}
