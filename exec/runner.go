// Package exec is the Execution Layer (spec.md §4.6): runs a finalised
// select or DML builder against a dialect.Driver, dispatching hooks, racing
// timeout/abort cancellation, and serving reads from the query cache.
package exec

import (
	"context"
	"errors"
	"fmt"
	"time"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/cache"
	"github.com/ormforge/ormforge/dialect"
	dsql "github.com/ormforge/ormforge/dialect/sql"
)

// Kind labels the statement being executed, threaded through hooks
// (spec.md §4.6 "onQueryStart({ sql, kind })").
type Kind string

// Kind values.
const (
	KindSelect Kind = "select"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Cancellable is implemented by a finalised builder that carries an
// optional timeout and abort signal (query.Builder already does).
type Cancellable interface {
	Timeout() (time.Duration, bool)
	AbortChan() <-chan struct{}
}

// Cacheable is implemented by a finalised select builder that may opt into
// selective caching.
type Cacheable interface {
	CacheTTL() (time.Duration, bool)
}

// Runner is the execution layer's public type: one instance is typically
// shared across an application's queries, bound to a single live driver.
type Runner struct {
	driver dialect.Driver
	cfg    ormforge.Config
	cache  *cache.Cache
}

// New returns a Runner executing against driver under cfg's hooks and
// caching configuration, using the process-wide cache.Default() cache.
func New(driver dialect.Driver, cfg ormforge.Config) *Runner {
	return &Runner{driver: driver, cfg: cfg.WithDefaults(), cache: cache.Default()}
}

// WithCache returns a copy of r that reads/writes c instead of the default
// process-wide cache, for callers that want cache isolation (e.g. tests).
func (r *Runner) WithCache(c *cache.Cache) *Runner {
	r2 := *r
	r2.cache = c
	return &r2
}

// Driver returns the underlying driver.
func (r *Runner) Driver() dialect.Driver { return r.driver }

// cancellation layers a timeout and an external abort signal onto ctx,
// implementing spec.md §4.6 step 3 ("Race the driver promise against a
// timeout timer ... and an external abort signal ... On timeout or abort,
// invoke the driver's cancellation primitive") the idiomatic Go way: the
// database/sql driver already treats context cancellation as its
// cancellation primitive, so no separate goroutine race against the driver
// call is needed — only a context that reports *why* it was cancelled.
type cancellation struct {
	ctx     context.Context
	release context.CancelFunc
	aborted bool
}

func newCancellation(parent context.Context, c Cancellable) *cancellation {
	ctx := parent
	var timeoutCancel context.CancelFunc
	if d, ok := c.Timeout(); ok && d > 0 {
		ctx, timeoutCancel = context.WithTimeout(ctx, d)
	}
	ctx, cancel := context.WithCancel(ctx)
	cn := &cancellation{ctx: ctx}
	if ch := c.AbortChan(); ch != nil {
		done := make(chan struct{})
		go func() {
			select {
			case <-ch:
				cn.aborted = true
				cancel()
			case <-done:
			}
		}()
		cn.release = func() {
			close(done)
			cancel()
			if timeoutCancel != nil {
				timeoutCancel()
			}
		}
	} else {
		cn.release = func() {
			cancel()
			if timeoutCancel != nil {
				timeoutCancel()
			}
		}
	}
	return cn
}

// classify turns a driver error produced under cn.ctx into the §4.6 timeout
// or abort ExecutionError when the context's own cancellation caused it.
func (cn *cancellation) classify(sqlText string, err error) error {
	if err == nil || cn.ctx.Err() == nil {
		return err
	}
	if cn.aborted {
		return ormforge.NewAbortError(sqlText)
	}
	if errors.Is(cn.ctx.Err(), context.DeadlineExceeded) {
		return ormforge.NewTimeoutError(sqlText)
	}
	return err
}

// hookTiming runs the §4.6 observable pipeline around body: onQueryStart,
// an optional span, then onQueryEnd/onQueryError depending on the outcome.
func (r *Runner) hookTiming(ctx context.Context, sqlText string, kind Kind, body func() (rowCount int64, err error)) error {
	h := r.cfg.Hooks
	safeCall(func() {
		if h.OnQueryStart != nil {
			h.OnQueryStart(sqlText, string(kind))
		}
	})
	var endSpan func()
	if h.StartSpan != nil {
		safeCall(func() { endSpan = h.StartSpan(string(kind)) })
	}
	start := time.Now()
	rowCount, err := body()
	duration := time.Since(start)
	if err != nil {
		safeCall(func() {
			if h.OnQueryError != nil {
				h.OnQueryError(sqlText, err, duration, string(kind))
			}
		})
	} else {
		safeCall(func() {
			if h.OnQueryEnd != nil {
				h.OnQueryEnd(sqlText, duration, rowCount, string(kind))
			}
		})
	}
	if endSpan != nil {
		safeCall(endSpan)
	}
	return err
}

// safeCall runs fn, discarding any panic — hooks are best-effort per
// spec.md §4.6 step 1 ("best-effort, swallow hook errors").
func safeCall(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// Fetch runs sqlText/args as a SELECT and returns the decoded rows, honoring
// c's timeout/abort and, when present, selective caching.
func (r *Runner) Fetch(ctx context.Context, sqlText string, args []any, c Cancellable) ([]map[string]any, error) {
	if cc, ok := c.(Cacheable); ok {
		if ttl, enabled := cc.CacheTTL(); enabled {
			key := cacheKey(sqlText, args)
			if v, hit := r.cache.Get(key); hit {
				if rows, ok := v.([]map[string]any); ok {
					return rows, nil
				}
			}
			rows, err := r.fetchUncached(ctx, sqlText, args, c)
			if err != nil {
				return nil, err
			}
			r.cache.Set(key, rows, ttl)
			return rows, nil
		}
	}
	return r.fetchUncached(ctx, sqlText, args, c)
}

func (r *Runner) fetchUncached(ctx context.Context, sqlText string, args []any, c Cancellable) ([]map[string]any, error) {
	cn := newCancellation(ctx, c)
	defer cn.release()

	var rows []map[string]any
	err := r.hookTiming(ctx, sqlText, KindSelect, func() (int64, error) {
		var rs dsql.Rows
		if err := r.driver.Query(cn.ctx, sqlText, args, &rs); err != nil {
			return 0, cn.classify(sqlText, err)
		}
		defer rs.Close()
		decoded, err := scanRows(&rs)
		if err != nil {
			return 0, err
		}
		rows = decoded
		return int64(len(rows)), nil
	})
	if err != nil {
		return nil, ormforge.NewQueryError("", "select", err)
	}
	return rows, nil
}

// cacheKey derives the cache key from the finalised SQL text and bound
// parameters (spec.md §4.6 "the finalised textual SQL (including all
// parameters) is used as a cache key").
func cacheKey(sqlText string, args []any) string {
	return fmt.Sprintf("%s|%v", sqlText, args)
}

// Exec runs sqlText/args as an INSERT/UPDATE/DELETE, returning the affected
// row count.
func (r *Runner) Exec(ctx context.Context, sqlText string, args []any, kind Kind, c Cancellable) (int64, error) {
	cn := newCancellation(ctx, c)
	defer cn.release()

	var affected int64
	err := r.hookTiming(ctx, sqlText, kind, func() (int64, error) {
		var res dsql.Result
		if err := r.driver.Exec(cn.ctx, sqlText, args, &res); err != nil {
			return 0, cn.classify(sqlText, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		affected = n
		return n, nil
	})
	if err != nil {
		return 0, ormforge.NewMutationError("", string(kind), err)
	}
	return affected, nil
}

// ExecInsertID runs sqlText/args as an INSERT and returns the driver's
// auto-increment id (MySQL's LAST_INSERT_ID(), exposed the same way by
// SQLite), for dialects that don't support RETURNING (spec.md §4.5
// "insertGetId ... on dialects without RETURNING, read back the
// auto-increment id").
func (r *Runner) ExecInsertID(ctx context.Context, sqlText string, args []any, c Cancellable) (int64, error) {
	cn := newCancellation(ctx, c)
	defer cn.release()

	var id int64
	err := r.hookTiming(ctx, sqlText, KindInsert, func() (int64, error) {
		var res dsql.Result
		if err := r.driver.Exec(cn.ctx, sqlText, args, &res); err != nil {
			return 0, cn.classify(sqlText, err)
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		id = lastID
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		return n, nil
	})
	if err != nil {
		return 0, ormforge.NewMutationError("", "insert", err)
	}
	return id, nil
}

// FetchReturning runs sqlText/args as a DML statement with a RETURNING
// clause and decodes the returned rows the same way a SELECT would.
func (r *Runner) FetchReturning(ctx context.Context, sqlText string, args []any, kind Kind, c Cancellable) ([]map[string]any, error) {
	cn := newCancellation(ctx, c)
	defer cn.release()

	var rows []map[string]any
	err := r.hookTiming(ctx, sqlText, kind, func() (int64, error) {
		var rs dsql.Rows
		if err := r.driver.Query(cn.ctx, sqlText, args, &rs); err != nil {
			return 0, cn.classify(sqlText, err)
		}
		defer rs.Close()
		decoded, err := scanRows(&rs)
		if err != nil {
			return 0, err
		}
		rows = decoded
		return int64(len(rows)), nil
	})
	if err != nil {
		return nil, ormforge.NewMutationError("", string(kind), err)
	}
	return rows, nil
}

// FreshConnection wraps fn, catching a single "connection closed" failure
// by re-creating the driver handle via reopen and retrying fn exactly once
// (spec.md §5 "A fresh-connection wrapper catches a connection closed error
// once, re-creates the handle, and retries the block exactly once").
func FreshConnection(fn func(dialect.Driver) error, driver dialect.Driver, reopen func() (dialect.Driver, error)) error {
	err := fn(driver)
	if err == nil || !ormforge.IsConnectionClosed(err) {
		return err
	}
	fresh, reopenErr := reopen()
	if reopenErr != nil {
		return errors.Join(err, reopenErr)
	}
	return fn(fresh)
}
