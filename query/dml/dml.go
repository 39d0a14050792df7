// Package dml is the DML Compilers (spec.md §4.5): fluent builders over
// dialect/sql's Insert/Update/Delete statements, wired through the
// execution layer to provide the composed create/update/upsert helpers
// (upsert, insertOrIgnore, updateOrCreate, firstOrCreate, save).
package dml

import (
	"context"
	"sort"
	"time"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect"
	dsql "github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/exec"
)

// noCancel is the Cancellable exec expects, for DML statements that don't
// carry their own timeout/abort (those are query.Builder's concern; DML
// builders here compose in terms of the execution layer directly).
type noCancel struct{}

func (noCancel) Timeout() (time.Duration, bool) { return 0, false }
func (noCancel) AbortChan() <-chan struct{}     { return nil }

func columnsOf(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Insert is the INSERT compiler (spec.md §4.5 "Insert compiler: accepts a
// single row or an array of rows ... columns are inferred from the row's
// keys").
type Insert struct {
	cfg       ormforge.Config
	table     string
	rows      []map[string]any
	returning []string
	conflict  []string
	merge     map[string]any
	ignore    bool
}

// NewInsert starts an insert of rows into table.
func NewInsert(cfg ormforge.Config, table string, rows ...map[string]any) *Insert {
	return &Insert{cfg: cfg.WithDefaults(), table: table, rows: rows}
}

// Returning requests the given columns back after insert (ignored on
// MySQL, which has no RETURNING; use CreateGetID's LAST_INSERT_ID() fallback).
func (i *Insert) Returning(cols ...string) *Insert {
	i.returning = cols
	return i
}

// OnConflictIgnore implements insertOrIgnore: conflicting rows are
// silently skipped (spec.md §4.5 "insertOrIgnore").
func (i *Insert) OnConflictIgnore() *Insert {
	i.ignore = true
	return i
}

// Upsert implements upsert: on a conflict over conflictCols, merge columns
// are updated from the attempted row instead of erroring (spec.md §4.5
// "upsert(rows, conflictColumns, mergeColumns)").
func (i *Insert) Upsert(conflictCols []string, mergeCols ...string) *Insert {
	i.conflict = conflictCols
	i.merge = map[string]any{}
	for _, c := range mergeCols {
		i.merge[c] = dsql.RawValue(excludedRef(i.cfg.Dialect, c))
	}
	return i
}

// excludedRef names the proposed-row reference for column c in an upsert's
// merge assignment: EXCLUDED.c on Postgres/SQLite, VALUES(c) on MySQL.
func excludedRef(dialectName, c string) string {
	if dialectName == dialect.MySQL {
		return "VALUES(" + c + ")"
	}
	return "EXCLUDED." + c
}

func (i *Insert) stampTimestamps(now time.Time) {
	created := i.cfg.Timestamps.CreatedAt
	updated := i.cfg.Timestamps.UpdatedAt
	for _, row := range i.rows {
		if created != "" {
			if _, ok := row[created]; !ok {
				row[created] = now
			}
		}
		if updated != "" {
			if _, ok := row[updated]; !ok {
				row[updated] = now
			}
		}
	}
}

func (i *Insert) compile(dialectName string) (string, []any, error) {
	if len(i.rows) == 0 {
		return "", nil, ormforge.NewPlanningError(i.table, "", "insert has no rows")
	}
	columns := columnsOf(i.rows[0])
	b := dsql.Dialect(dialectName).Insert(i.table).Columns(columns...)
	for _, row := range i.rows {
		values := make([]any, len(columns))
		for idx, c := range columns {
			values[idx] = row[c]
		}
		b.Values(values...)
	}
	switch {
	case i.conflict != nil:
		b.OnConflict(i.conflict, i.merge)
	case i.ignore:
		b.OnConflictIgnore()
	}
	if len(i.returning) > 0 {
		b.Returning(i.returning...)
	}
	sqlText, args := b.Query()
	return sqlText, args, nil
}

// Create runs the insert, firing BeforeCreate/AfterCreate hooks around it
// (spec.md §4.6 "lifecycle hooks fire around create/update/delete") and
// decoding RETURNING rows on dialects that support it.
func (i *Insert) Create(ctx context.Context, r *exec.Runner) ([]map[string]any, error) {
	i.stampTimestamps(time.Now())
	for _, row := range i.rows {
		if h := i.cfg.Hooks.BeforeCreate; h != nil {
			if err := h(i.table, row); err != nil {
				return nil, err
			}
		}
	}

	dialectName := r.Driver().Dialect()
	wantReturning := len(i.returning) > 0 && dialectName != dialect.MySQL
	sqlText, args, err := i.compile(dialectName)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if wantReturning {
		rows, err = r.FetchReturning(ctx, sqlText, args, exec.KindInsert, noCancel{})
	} else {
		_, err = r.Exec(ctx, sqlText, args, exec.KindInsert, noCancel{})
	}
	if err != nil {
		return nil, err
	}
	for _, row := range i.rows {
		if h := i.cfg.Hooks.AfterCreate; h != nil {
			h(i.table, row)
		}
	}
	return rows, nil
}

// CreateGetID runs the insert and returns the single row's auto-increment
// id via RETURNING (Postgres/SQLite) or LAST_INSERT_ID() (MySQL) — the
// insertGetId compiler of spec.md §4.5.
func (i *Insert) CreateGetID(ctx context.Context, r *exec.Runner, idColumn string) (int64, error) {
	if r.Driver().Dialect() == dialect.MySQL {
		i.stampTimestamps(time.Now())
		for _, row := range i.rows {
			if h := i.cfg.Hooks.BeforeCreate; h != nil {
				if err := h(i.table, row); err != nil {
					return 0, err
				}
			}
		}
		sqlText, args, err := i.compile(r.Driver().Dialect())
		if err != nil {
			return 0, err
		}
		id, err := r.ExecInsertID(ctx, sqlText, args, noCancel{})
		if err != nil {
			return 0, err
		}
		for _, row := range i.rows {
			if h := i.cfg.Hooks.AfterCreate; h != nil {
				h(i.table, row)
			}
		}
		return id, nil
	}
	i.Returning(idColumn)
	rows, err := i.Create(ctx, r)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ormforge.NewPlanningError(i.table, idColumn, "insert returned no rows")
	}
	return toInt64(rows[0][idColumn]), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Update is the UPDATE compiler (spec.md §4.5 "Update compiler").
type Update struct {
	cfg   ormforge.Config
	table string
	set   map[string]any
	order []string
	where *dsql.Predicate
}

// NewUpdate starts an update of table.
func NewUpdate(cfg ormforge.Config, table string) *Update {
	return &Update{cfg: cfg.WithDefaults(), table: table, set: map[string]any{}}
}

// Set assigns column = value.
func (u *Update) Set(column string, value any) *Update {
	if _, ok := u.set[column]; !ok {
		u.order = append(u.order, column)
	}
	u.set[column] = value
	return u
}

// Where ANDs p onto the WHERE clause.
func (u *Update) Where(p *dsql.Predicate) *Update {
	if u.where == nil {
		u.where = p
		return u
	}
	u.where = dsql.And(u.where, p)
	return u
}

func (u *Update) compile(dialectName string) (string, []any) {
	if u.cfg.Timestamps.UpdatedAt != "" {
		if _, ok := u.set[u.cfg.Timestamps.UpdatedAt]; !ok {
			u.Set(u.cfg.Timestamps.UpdatedAt, time.Now())
		}
	}
	b := dsql.Dialect(dialectName).Update(u.table)
	for _, col := range u.order {
		b.Set(col, u.set[col])
	}
	if u.where != nil {
		b.Where(u.where)
	}
	return b.Query()
}

// Exec runs the update, firing BeforeUpdate/AfterUpdate-equivalent timing
// through the execution layer, and returns the affected row count.
func (u *Update) Exec(ctx context.Context, r *exec.Runner) (int64, error) {
	sqlText, args := u.compile(r.Driver().Dialect())
	return r.Exec(ctx, sqlText, args, exec.KindUpdate, noCancel{})
}

// Delete is the DELETE compiler (spec.md §4.5 "Delete compiler"). When
// cfg.SoftDeletes is enabled for the target table, callers should use
// SoftDelete instead; Delete always issues a hard DELETE.
type Delete struct {
	table string
	where *dsql.Predicate
	hooks ormforge.HooksConfig
}

// NewDelete starts a delete from table.
func NewDelete(cfg ormforge.Config, table string) *Delete {
	return &Delete{table: table, hooks: cfg.WithDefaults().Hooks}
}

// Where ANDs p onto the WHERE clause.
func (d *Delete) Where(p *dsql.Predicate) *Delete {
	if d.where == nil {
		d.where = p
		return d
	}
	d.where = dsql.And(d.where, p)
	return d
}

// Exec runs the delete, firing BeforeDelete/AfterDelete hooks around it.
// pk identifies the row for the hooks' sake; it is not used to build the
// WHERE clause (callers supply that via Where).
func (d *Delete) Exec(ctx context.Context, r *exec.Runner, pk any) (int64, error) {
	if h := d.hooks.BeforeDelete; h != nil {
		if err := h(d.table, pk); err != nil {
			return 0, err
		}
	}
	b := dsql.Dialect(r.Driver().Dialect()).Delete(d.table)
	if d.where != nil {
		b.Where(d.where)
	}
	sqlText, args := b.Query()
	n, err := r.Exec(ctx, sqlText, args, exec.KindDelete, noCancel{})
	if err != nil {
		return 0, err
	}
	if h := d.hooks.AfterDelete; h != nil {
		h(d.table, pk)
	}
	return n, nil
}

// SoftDelete sets cfg.SoftDeletes.Column to now instead of issuing a hard
// DELETE (spec.md §4.5 "soft-delete ... issues an UPDATE setting the
// configured column instead of a DELETE").
func SoftDelete(ctx context.Context, r *exec.Runner, cfg ormforge.Config, table string, where *dsql.Predicate) (int64, error) {
	cfg = cfg.WithDefaults()
	u := NewUpdate(cfg, table).Set(cfg.SoftDeletes.Column, time.Now())
	if where != nil {
		u.Where(where)
	}
	return u.Exec(ctx, r)
}
