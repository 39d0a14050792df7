package schema

import (
	"fmt"
	"sort"
)

// ChangeKind classifies one migration step.
type ChangeKind string

// The change kinds, listed in the canonical execution order Diff sorts by:
// drops before creates, and within a table, constraints before the table
// itself, so a re-created table never collides with a constraint still
// referencing the old definition.
const (
	ChangeDropForeignKey ChangeKind = "drop_foreign_key"
	ChangeDropIndex      ChangeKind = "drop_index"
	ChangeDropColumn     ChangeKind = "drop_column"
	ChangeDropTable      ChangeKind = "drop_table"
	ChangeCreateTable    ChangeKind = "create_table"
	ChangeAddColumn      ChangeKind = "add_column"
	ChangeAlterColumn    ChangeKind = "alter_column"
	ChangeAddIndex       ChangeKind = "add_index"
	ChangeAddForeignKey  ChangeKind = "add_foreign_key"
)

var changeKindOrder = map[ChangeKind]int{
	ChangeDropForeignKey: 0,
	ChangeDropIndex:      1,
	ChangeDropColumn:     2,
	ChangeDropTable:      3,
	ChangeCreateTable:    4,
	ChangeAddColumn:      5,
	ChangeAlterColumn:    6,
	ChangeAddIndex:       7,
	ChangeAddForeignKey:  8,
}

// Change is one migration step, before (Diff) or after (Build) SQL
// rendering.
type Change struct {
	Kind       ChangeKind
	Table      string
	Column     *Column
	OldColumn  *Column // populated for ChangeAlterColumn
	Index      *Index
	ForeignKey *ForeignKey
	NewTable   *Table // populated for ChangeCreateTable
	SQL        string
}

func (c Change) sortKey() string {
	target := c.Table
	switch {
	case c.Column != nil:
		target += "." + c.Column.Name
	case c.Index != nil:
		target += "." + c.Index.Name
	case c.ForeignKey != nil:
		target += "." + c.ForeignKey.Symbol
	}
	return target
}

// Plan is the fully-rendered, ordered migration script plus its content
// hash, the unit the migration planner persists and replays.
type Plan struct {
	Changes []Change
	Hash    string
}

// Statements returns the plan's SQL statements in execution order.
func (p *Plan) Statements() []string {
	out := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		if c.SQL != "" {
			out = append(out, c.SQL)
		}
	}
	return out
}

// Diff compares current against desired and returns the changes needed to
// bring current up to desired, in canonical (dependency-safe, then
// lexicographic) order.
func Diff(current, desired []*Table) []Change {
	currentMap := tableMap(current)
	desiredMap := tableMap(desired)

	var changes []Change
	for name, cur := range currentMap {
		if _, ok := desiredMap[name]; !ok {
			changes = append(changes, Change{Kind: ChangeDropTable, Table: name})
			for _, fk := range cur.ForeignKeys {
				changes = append(changes, Change{Kind: ChangeDropForeignKey, Table: name, ForeignKey: fk})
			}
			continue
		}
	}

	for name, des := range desiredMap {
		cur, exists := currentMap[name]
		if !exists {
			changes = append(changes, Change{Kind: ChangeCreateTable, Table: name, NewTable: des})
			continue
		}
		changes = append(changes, diffTable(cur, des)...)
	}

	sort.SliceStable(changes, func(i, j int) bool {
		oi, oj := changeKindOrder[changes[i].Kind], changeKindOrder[changes[j].Kind]
		if oi != oj {
			return oi < oj
		}
		if changes[i].Table != changes[j].Table {
			return changes[i].Table < changes[j].Table
		}
		return changes[i].sortKey() < changes[j].sortKey()
	})
	return changes
}

func diffTable(cur, des *Table) []Change {
	var changes []Change

	curCols := columnMap(cur.Columns)
	desCols := columnMap(des.Columns)
	for name, col := range curCols {
		if _, ok := desCols[name]; !ok {
			changes = append(changes, Change{Kind: ChangeDropColumn, Table: cur.Name, Column: col})
		}
	}
	for name, col := range desCols {
		if old, ok := curCols[name]; !ok {
			changes = append(changes, Change{Kind: ChangeAddColumn, Table: des.Name, Column: col})
		} else if !columnsEqual(old, col) {
			changes = append(changes, Change{Kind: ChangeAlterColumn, Table: des.Name, Column: col, OldColumn: old})
		}
	}

	curIdx := indexMap(cur.Indexes)
	desIdx := indexMap(des.Indexes)
	for name, idx := range curIdx {
		if _, ok := desIdx[name]; !ok {
			changes = append(changes, Change{Kind: ChangeDropIndex, Table: cur.Name, Index: idx})
		}
	}
	for name, idx := range desIdx {
		if _, ok := curIdx[name]; !ok {
			changes = append(changes, Change{Kind: ChangeAddIndex, Table: des.Name, Index: idx})
		}
	}

	curFK := fkMap(cur.ForeignKeys)
	desFK := fkMap(des.ForeignKeys)
	for sym, fk := range curFK {
		if _, ok := desFK[sym]; !ok {
			changes = append(changes, Change{Kind: ChangeDropForeignKey, Table: cur.Name, ForeignKey: fk})
		}
	}
	for sym, fk := range desFK {
		if _, ok := curFK[sym]; !ok {
			changes = append(changes, Change{Kind: ChangeAddForeignKey, Table: des.Name, ForeignKey: fk})
		}
	}
	return changes
}

func columnsEqual(a, b *Column) bool {
	return a.Type == b.Type && a.Nullable == b.Nullable && a.Size == b.Size &&
		a.Precision == b.Precision && a.Scale == b.Scale && a.Unique == b.Unique &&
		fmt.Sprint(a.Default) == fmt.Sprint(b.Default) &&
		enumValuesEqual(a.EnumValues, b.EnumValues)
}

// enumValuesEqual compares two enum value lists as sets: order never
// matters (spec.md's diff testable property treats enum value lists as
// set-equal, unlike every other column property which is list-equal).
func enumValuesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

func tableMap(ts []*Table) map[string]*Table {
	m := make(map[string]*Table, len(ts))
	for _, t := range ts {
		m[t.Name] = t
	}
	return m
}

func columnMap(cs []*Column) map[string]*Column {
	m := make(map[string]*Column, len(cs))
	for _, c := range cs {
		m[c.Name] = c
	}
	return m
}

func indexMap(is []*Index) map[string]*Index {
	m := make(map[string]*Index, len(is))
	for _, i := range is {
		m[i.Name] = i
	}
	return m
}

func fkMap(fks []*ForeignKey) map[string]*ForeignKey {
	m := make(map[string]*ForeignKey, len(fks))
	for _, fk := range fks {
		m[fk.Symbol] = fk
	}
	return m
}
