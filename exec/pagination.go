package exec

import (
	"context"
	"fmt"

	ormforge "github.com/ormforge/ormforge"
	dsql "github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/query"
)

// Page is the offset-pagination result (spec.md §4.4 "offset pagination
// (data + total + page count via a COUNT(*) over the composed query)").
type Page struct {
	Data        []map[string]any
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
}

// SimplePage is the simple-pagination result: no total count, just a
// hasMore flag (spec.md §4.4 "simple pagination").
type SimplePage struct {
	Data    []map[string]any
	PerPage int
	HasMore bool
}

// CursorPage is the cursor-pagination result (spec.md §4.4 "cursor
// pagination").
type CursorPage struct {
	Data       []map[string]any
	NextCursor any
}

// Get runs b and returns every matching row.
func (r *Runner) Get(ctx context.Context, b *query.Builder) ([]map[string]any, error) {
	sqlText, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}
	return r.Fetch(ctx, sqlText, args, b)
}

// First runs b with LIMIT 1, returning the sole row and true, or (nil,
// false) when there isn't one.
func (r *Runner) First(ctx context.Context, b *query.Builder) (map[string]any, bool, error) {
	b.Limit(1)
	rows, err := r.Get(ctx, b)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// FirstOrFail is First, failing with ormforge.NotFoundError when b's result
// is empty (spec.md §4.5 "findOrFail fails with not found when absent").
func (r *Runner) FirstOrFail(ctx context.Context, b *query.Builder, label string) (map[string]any, error) {
	row, ok, err := r.First(ctx, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ormforge.NewNotFoundError(label)
	}
	return row, nil
}

// Count runs a COUNT(*) over b's composed query, without LIMIT/OFFSET
// (spec.md §4.4 "offset pagination ... via a COUNT(*) over the composed
// query").
func (r *Runner) Count(ctx context.Context, b *query.Builder) (int64, error) {
	sqlText, args, err := b.ToSQL()
	if err != nil {
		return 0, err
	}
	countSQL := fmt.Sprintf("SELECT COUNT(*) AS count FROM (%s) AS ormforge_count", sqlText)
	rows, err := r.fetchUncached(ctx, countSQL, args, b)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
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
	case string:
		var i int64
		fmt.Sscanf(n, "%d", &i)
		return i
	default:
		return 0
	}
}

// Paginate runs b's Count before applying LIMIT/OFFSET for page (1-based),
// implementing spec.md §4.4's offset-pagination variant.
func (r *Runner) Paginate(ctx context.Context, b *query.Builder, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	total, err := r.Count(ctx, b)
	if err != nil {
		return nil, err
	}
	b.Limit(perPage).Offset((page - 1) * perPage)
	rows, err := r.Get(ctx, b)
	if err != nil {
		return nil, err
	}
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return &Page{Data: rows, Total: total, PerPage: perPage, CurrentPage: page, LastPage: lastPage}, nil
}

// SimplePaginate fetches perPage+1 rows to report HasMore without the cost
// of a COUNT(*) (spec.md §4.4 "simple pagination (fetch perPage+1 rows ...
// without counting)").
func (r *Runner) SimplePaginate(ctx context.Context, b *query.Builder, page, perPage int) (*SimplePage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	b.Limit(perPage + 1).Offset((page - 1) * perPage)
	rows, err := r.Get(ctx, b)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}
	return &SimplePage{Data: rows, PerPage: perPage, HasMore: hasMore}, nil
}

// CursorPaginate orders b by cursorColumn (the builder's primary key when
// empty) and restricts to rows after cursor, implementing spec.md §4.4's
// stable cursor-pagination variant (spec.md §8 scenario 5 "cursor pagination
// stability").
func (r *Runner) CursorPaginate(ctx context.Context, b *query.Builder, cursor any, perPage int, cursorColumn string) (*CursorPage, error) {
	if perPage < 1 {
		perPage = 15
	}
	if cursorColumn == "" {
		cursorColumn = b.PrimaryKey()
	}
	if cursor != nil {
		b.WhereOp(cursorColumn, ">", cursor)
	}
	b.OrderBy(cursorColumn, dsql.OrderAsc).Limit(perPage + 1)
	rows, err := r.Get(ctx, b)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}
	var next any
	if hasMore && len(rows) > 0 {
		next = rows[len(rows)-1][cursorColumn]
	}
	return &CursorPage{Data: rows, NextCursor: next}, nil
}

// Chunk invokes handler with each successive page of up to perPage rows
// (offset pagination), stopping when a page returns fewer than perPage rows
// or handler returns false (spec.md §4.4 "chunk ... terminate when a page
// returns fewer than perPage rows or no cursor advances"). b is reused
// across pages; only Limit/Offset are mutated between calls.
func (r *Runner) Chunk(ctx context.Context, b *query.Builder, perPage int, handler func([]map[string]any) (bool, error)) error {
	if perPage < 1 {
		perPage = 15
	}
	for page := 1; ; page++ {
		b.Limit(perPage).Offset((page - 1) * perPage)
		rows, err := r.Get(ctx, b)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		cont, err := handler(rows)
		if err != nil {
			return err
		}
		if !cont || len(rows) < perPage {
			return nil
		}
	}
}

// ChunkByID iterates pages ordered by b's primary key, restricting each
// successive page to rows after the prior page's last id instead of using
// OFFSET — stable under concurrent inserts/deletes, per spec.md §4.4
// "chunkById". The WHERE predicate tightens monotonically across
// iterations (pk > lastID), so reusing b's accumulated clause is harmless.
func (r *Runner) ChunkByID(ctx context.Context, b *query.Builder, perPage int, handler func([]map[string]any) (bool, error)) error {
	if perPage < 1 {
		perPage = 15
	}
	pk := b.PrimaryKey()
	b.OrderBy(pk, dsql.OrderAsc)
	for {
		b.Limit(perPage)
		rows, err := r.Get(ctx, b)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		cont, err := handler(rows)
		if err != nil {
			return err
		}
		if !cont || len(rows) < perPage {
			return nil
		}
		lastID := rows[len(rows)-1][pk]
		b.WhereOp(pk, ">", lastID)
	}
}

// EachByID is ChunkByID with a per-row handler instead of a per-page one.
func (r *Runner) EachByID(ctx context.Context, b *query.Builder, perPage int, handler func(map[string]any) (bool, error)) error {
	return r.ChunkByID(ctx, b, perPage, func(rows []map[string]any) (bool, error) {
		for _, row := range rows {
			cont, err := handler(row)
			if err != nil {
				return false, err
			}
			if !cont {
				return false, nil
			}
		}
		return true, nil
	})
}
