package dml

import (
	"context"

	ormforge "github.com/ormforge/ormforge"
	dsql "github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/dialect/sql/sqlgraph"
	"github.com/ormforge/ormforge/exec"
	"github.com/ormforge/ormforge/metadata"
	"github.com/ormforge/ormforge/query"
)

func mergeRows(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// predicateFromMap ANDs an equality predicate per key of m, in sorted
// column order so the composed SQL text (and its cache key) is stable
// across calls.
func predicateFromMap(m map[string]any) *dsql.Predicate {
	cols := columnsOf(m)
	preds := make([]*dsql.Predicate, 0, len(cols))
	for _, c := range cols {
		preds = append(preds, dsql.EQ(c, m[c]))
	}
	return dsql.And(preds...)
}

func isZero(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case int:
		return n == 0
	case int64:
		return n == 0
	case int32:
		return n == 0
	case string:
		return n == ""
	default:
		return false
	}
}

// FirstOrCreate finds the first row of model matching attrs, or inserts one
// merging attrs and extra when absent, returning the row and whether it was
// created (spec.md §4.5 "firstOrCreate(attrs, values)").
func FirstOrCreate(ctx context.Context, r *exec.Runner, cfg ormforge.Config, graph *metadata.Graph, model string, attrs, extra map[string]any) (map[string]any, bool, error) {
	cfg = cfg.WithDefaults()
	lookup := func() *query.Builder {
		b := query.New(r.Driver().Dialect(), graph, model, cfg)
		b.Where(attrs)
		return b
	}

	if row, ok, err := r.First(ctx, lookup()); err != nil {
		return nil, false, err
	} else if ok {
		return row, false, nil
	}

	table := graph.TableForModel(model)
	full := mergeRows(attrs, extra)
	created := true
	if _, err := NewInsert(cfg, table, full).Create(ctx, r); err != nil {
		// A concurrent caller may have won the race and inserted a matching
		// row between our lookup and this insert; fall through to the
		// re-lookup below instead of surfacing the conflict.
		if !sqlgraph.IsUniqueConstraintError(err) {
			return nil, false, err
		}
		created = false
	}

	row, ok, err := r.First(ctx, lookup())
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ormforge.NewNotFoundError(model)
	}
	return row, created, nil
}

// UpdateOrCreate finds the first row of model matching attrs and applies
// values to it, or inserts attrs merged with values when absent (spec.md
// §4.5 "updateOrCreate(attrs, values)").
func UpdateOrCreate(ctx context.Context, r *exec.Runner, cfg ormforge.Config, graph *metadata.Graph, model string, attrs, values map[string]any) (map[string]any, error) {
	cfg = cfg.WithDefaults()
	table := graph.TableForModel(model)
	lookup := func() *query.Builder {
		b := query.New(r.Driver().Dialect(), graph, model, cfg)
		b.Where(attrs)
		return b
	}

	row, ok, err := r.First(ctx, lookup())
	if err != nil {
		return nil, err
	}
	if ok {
		u := NewUpdate(cfg, table).Where(predicateFromMap(attrs))
		for col, val := range values {
			u.Set(col, val)
		}
		if _, err := u.Exec(ctx, r); err != nil {
			return nil, err
		}
	} else {
		full := mergeRows(attrs, values)
		if _, err := NewInsert(cfg, table, full).Create(ctx, r); err != nil {
			return nil, err
		}
	}

	row, ok, err = r.First(ctx, lookup())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ormforge.NewNotFoundError(model)
	}
	return row, nil
}

// Save updates row by its primary key when one is already set, otherwise
// inserts it and fills in the generated id (spec.md §4.5 "save(row): update
// when the primary key is present, insert otherwise").
func Save(ctx context.Context, r *exec.Runner, cfg ormforge.Config, graph *metadata.Graph, model string, row map[string]any) (map[string]any, error) {
	cfg = cfg.WithDefaults()
	table := graph.TableForModel(model)
	pk := graph.PrimaryKeyOf(table)
	pkVal, hasPK := row[pk]

	if hasPK && !isZero(pkVal) {
		u := NewUpdate(cfg, table).Where(dsql.EQ(pk, pkVal))
		for col, val := range row {
			if col == pk {
				continue
			}
			u.Set(col, val)
		}
		if _, err := u.Exec(ctx, r); err != nil {
			return nil, err
		}
	} else {
		id, err := NewInsert(cfg, table, row).CreateGetID(ctx, r, pk)
		if err != nil {
			return nil, err
		}
		pkVal = id
		row[pk] = id
	}

	b := query.New(r.Driver().Dialect(), graph, model, cfg)
	b.WhereOp(pk, "=", pkVal)
	out, ok, err := r.First(ctx, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ormforge.NewNotFoundError(model)
	}
	return out, nil
}
