package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	dschema "github.com/ormforge/ormforge/dialect/sql/schema"
)

// Hash returns a stable hash over tables' canonical serialised form,
// letting callers detect schema drift without diffing (spec.md §4.3 "Plan
// hash"). Tables, columns, and indexes are sorted by name before hashing —
// and each column's enum value list is sorted too — so that two schemas
// differing only in declaration order, or in enum-value order, hash equal
// (spec.md §8 "Plan canonicality": column/index order ignored, enum values
// compared as a set, every other property compared as an ordered list).
func Hash(tables []*dschema.Table) string {
	sorted := append([]*dschema.Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, t := range sorted {
		fmt.Fprintf(h, "table:%s\n", t.Name)

		cols := append([]*dschema.Column(nil), t.Columns...)
		sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
		for _, c := range cols {
			enum := append([]string(nil), c.EnumValues...)
			sort.Strings(enum)
			fmt.Fprintf(h, "col:%s:%s:%t:%d:%d:%d:%t:%v:%v\n",
				c.Name, c.Type, c.Nullable, c.Size, c.Precision, c.Scale, c.Unique, c.Default, enum)
		}

		idxs := append([]*dschema.Index(nil), t.Indexes...)
		sort.Slice(idxs, func(i, j int) bool { return idxs[i].Name < idxs[j].Name })
		for _, idx := range idxs {
			names := make([]string, len(idx.Columns))
			for i, c := range idx.Columns {
				names[i] = c.Name
			}
			fmt.Fprintf(h, "idx:%s:%t:%v\n", idx.Name, idx.Unique, names)
		}

		fks := append([]*dschema.ForeignKey(nil), t.ForeignKeys...)
		sort.Slice(fks, func(i, j int) bool { return fks[i].Symbol < fks[j].Symbol })
		for _, fk := range fks {
			fmt.Fprintf(h, "fk:%s:%s\n", fk.Symbol, fk.RefTable.Name)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
