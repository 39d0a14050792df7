// Package txn is the Transaction Core (spec.md §4.7): runs a caller-supplied
// function inside a database transaction with retries, savepoints,
// configurable isolation, distributed-transaction pass-through, and
// PostgreSQL advisory locks.
package txn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect"
	dsql "github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/dialect/sql/sqlgraph"
)

// Backoff configures the delay between retry attempts (spec.md §4.7
// "backoff: {baseMs, factor, maxMs, jitter}"). Delay before attempt k is
// min(maxMs, baseMs*factor^(k-1)), reduced by up to Jitter (a fraction of
// [0,1)) at random.
type Backoff struct {
	BaseMs float64
	Factor float64
	MaxMs  float64
	Jitter float64
}

func (b Backoff) withDefaults() Backoff {
	if b.BaseMs <= 0 {
		b.BaseMs = 10
	}
	if b.Factor <= 0 {
		b.Factor = 2
	}
	if b.MaxMs <= 0 {
		b.MaxMs = 1000
	}
	if b.Jitter <= 0 {
		b.Jitter = 0.1
	}
	return b
}

// delay returns the wait before retry attempt k (1-based).
func (b Backoff) delay(k int) time.Duration {
	ms := b.BaseMs * math.Pow(b.Factor, float64(k-1))
	if ms > b.MaxMs {
		ms = b.MaxMs
	}
	if b.Jitter > 0 {
		ms -= ms * b.Jitter * rand.Float64()
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// Options configures Run (spec.md §4.7 "Contract of transaction(fn,
// options)").
type Options struct {
	Retries   int
	Isolation string // "read committed" | "repeatable read" | "serializable"
	ReadOnly  bool
	SQLStates []string
	Backoff   Backoff

	OnRetry       func(attempt int, err error)
	AfterCommit   func()
	OnRollback    func(err error)
	AfterRollback func()
	Logger        ormforge.Logger
}

func (o Options) withDefaults() Options {
	o.Backoff = o.Backoff.withDefaults()
	if o.Logger == nil {
		o.Logger = ormforge.NopLogger
	}
	return o
}

// txBeginner is implemented by drivers (dialect/sql.Driver in practice)
// that support isolation-level/read-only transaction options.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *dsql.TxOptions) (dialect.Tx, error)
}

func isolationLevel(name string) sql.IsolationLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "read committed":
		return sql.LevelReadCommitted
	case "repeatable read":
		return sql.LevelRepeatableRead
	case "serializable":
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

func begin(ctx context.Context, driver dialect.Driver, opts Options) (dialect.Tx, error) {
	if b, ok := driver.(txBeginner); ok && (opts.Isolation != "" || opts.ReadOnly) {
		return b.BeginTx(ctx, &dsql.TxOptions{Isolation: isolationLevel(opts.Isolation), ReadOnly: opts.ReadOnly})
	}
	return driver.Tx(ctx)
}

// Run implements spec.md §4.7's `transaction(fn, options)`: fn runs to
// completion before commit or rollback (§5 "Scheduling: single coroutine
// per attempt"); a retriable failure — either a message matched by
// ormforge.IsRetriable or a SQL-state in opts.SQLStates (§4.7 "Retry
// triggers") — is retried up to opts.Retries times with backoff before the
// final error surfaces (§8 "Retry bound").
func Run(ctx context.Context, driver dialect.Driver, fn func(dialect.Tx) error, opts Options) error {
	opts = opts.withDefaults()
	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			d := opts.Backoff.delay(attempt)
			if d > 0 {
				time.Sleep(d)
			}
			opts.Logger.Logf("txn: retrying attempt %d after %v", attempt, lastErr)
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, lastErr)
			}
		}

		tx, err := begin(ctx, driver, opts)
		if err != nil {
			lastErr = err
			if isRetriable(err, opts.SQLStates) {
				continue
			}
			return err
		}

		if err := fn(tx); err != nil {
			rbErr := tx.Rollback()
			if opts.OnRollback != nil {
				opts.OnRollback(err)
			}
			if rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			if opts.AfterRollback != nil {
				opts.AfterRollback()
			}
			lastErr = err
			if isRetriable(err, opts.SQLStates) {
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			lastErr = err
			if isRetriable(err, opts.SQLStates) {
				continue
			}
			return err
		}
		if opts.AfterCommit != nil {
			opts.AfterCommit()
		}
		return nil
	}
	return lastErr
}

// sqlStater is implemented by driver errors that carry a SQLSTATE code
// (pq.Error, pgx, some MySQL drivers) — the same contract
// dialect/sql/sqlgraph's constraint classification consults.
type sqlStater interface {
	SQLState() string
}

func sqlStateOf(err error) (string, bool) {
	for err != nil {
		if e, ok := err.(sqlStater); ok {
			return e.SQLState(), true
		}
		err = errors.Unwrap(err)
	}
	return "", false
}

// isRetriable implements spec.md §4.7 "Retry triggers": either a
// retriable-message match or a SQL-state in the options' explicit list. A
// constraint violation (unique/foreign-key/check) is never retriable: retrying
// re-runs the same statement against the same conflicting data and fails
// identically, so those are classified and rejected before anything else.
func isRetriable(err error, allowedStates []string) bool {
	if err == nil {
		return false
	}
	if sqlgraph.IsConstraintError(err) {
		return false
	}
	if ormforge.IsRetriable(err) {
		return true
	}
	if len(allowedStates) == 0 {
		return false
	}
	state, ok := sqlStateOf(err)
	if !ok {
		return false
	}
	for _, s := range allowedStates {
		if strings.EqualFold(s, state) {
			return true
		}
	}
	return false
}

// spCounter names successive savepoints uniquely within the process.
var spCounter atomic.Int64

// Savepoint runs fn inside a nested, partially-rollbackable point within an
// already-active transaction (spec.md §4.7 "savepoint(fn) must run inside
// an active transaction; failures roll back the savepoint only").
func Savepoint(ctx context.Context, tx dialect.Tx, fn func() error) error {
	name := fmt.Sprintf("ormforge_sp_%d", spCounter.Add(1))
	if err := tx.Exec(ctx, "SAVEPOINT "+name, []any{}, nil); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name, []any{}, nil); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Exec(ctx, "RELEASE SAVEPOINT "+name, []any{}, nil)
}

// DistributedDriver is implemented by drivers supporting two-phase commit
// (spec.md §4.7 "Distributed transactions"); most drivers do not, so
// BeginDistributed/CommitDistributed/RollbackDistributed return a
// ConfigError when the underlying driver lacks the capability.
type DistributedDriver interface {
	BeginDistributed(ctx context.Context, name string) (dialect.Tx, error)
	CommitDistributed(ctx context.Context, name string) error
	RollbackDistributed(ctx context.Context, name string) error
}

func asDistributed(driver dialect.Driver) (DistributedDriver, error) {
	dd, ok := driver.(DistributedDriver)
	if !ok {
		return nil, ormforge.NewConfigError("driver", driver.Dialect(), "does not support distributed transactions")
	}
	return dd, nil
}

// BeginDistributed starts a named distributed transaction and runs fn
// against it, passing through to the driver (spec.md §6 "External
// interfaces"). The transaction is left open for the caller to Commit- or
// RollbackDistributed explicitly.
func BeginDistributed(ctx context.Context, driver dialect.Driver, name string, fn func(dialect.Tx) error) (dialect.Tx, error) {
	dd, err := asDistributed(driver)
	if err != nil {
		return nil, err
	}
	tx, err := dd.BeginDistributed(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := fn(tx); err != nil {
		return tx, err
	}
	return tx, nil
}

// CommitDistributed commits the named distributed transaction.
func CommitDistributed(ctx context.Context, driver dialect.Driver, name string) error {
	dd, err := asDistributed(driver)
	if err != nil {
		return err
	}
	return dd.CommitDistributed(ctx, name)
}

// RollbackDistributed rolls back the named distributed transaction.
func RollbackDistributed(ctx context.Context, driver dialect.Driver, name string) error {
	dd, err := asDistributed(driver)
	if err != nil {
		return err
	}
	return dd.RollbackDistributed(ctx, name)
}

// dbProvider exposes the underlying *sql.DB, implemented by dialect/sql's
// Driver (spec.md §4.7 "Advisory locks (PostgreSQL only)").
type dbProvider interface {
	DB() *sql.DB
}

// advisoryKey converts key to the 32-bit integer pg_advisory_lock expects,
// hashing string keys with FNV-1a (spec.md §4.7 "String keys are hashed to
// a 32-bit integer").
func advisoryKey(key any) int32 {
	switch v := key.(type) {
	case int32:
		return v
	case int:
		return int32(v)
	case int64:
		return int32(v)
	case string:
		h := fnv.New32a()
		_, _ = h.Write([]byte(v))
		return int32(h.Sum32())
	default:
		h := fnv.New32a()
		fmt.Fprintf(h, "%v", v)
		return int32(h.Sum32())
	}
}

// AdvisoryLock blocks until the named advisory lock is acquired, returning
// a release function. PostgreSQL only.
func AdvisoryLock(ctx context.Context, driver dialect.Driver, key any) (release func() error, err error) {
	if driver.Dialect() != dialect.Postgres {
		return nil, ormforge.NewConfigError("advisory lock", driver.Dialect(), "only supported on postgres")
	}
	p, ok := driver.(dbProvider)
	if !ok {
		return nil, ormforge.NewConfigError("driver", driver.Dialect(), "does not expose *sql.DB for advisory locking")
	}
	k := advisoryKey(key)
	if _, err := p.DB().ExecContext(ctx, "SELECT pg_advisory_lock($1)", k); err != nil {
		return nil, err
	}
	return func() error {
		_, err := p.DB().ExecContext(ctx, "SELECT pg_advisory_unlock($1)", k)
		return err
	}, nil
}

// TryAdvisoryLock attempts to acquire the named advisory lock without
// blocking, returning whether it was acquired. PostgreSQL only.
func TryAdvisoryLock(ctx context.Context, driver dialect.Driver, key any) (bool, error) {
	if driver.Dialect() != dialect.Postgres {
		return false, ormforge.NewConfigError("advisory lock", driver.Dialect(), "only supported on postgres")
	}
	p, ok := driver.(dbProvider)
	if !ok {
		return false, ormforge.NewConfigError("driver", driver.Dialect(), "does not expose *sql.DB for advisory locking")
	}
	k := advisoryKey(key)
	var locked bool
	if err := p.DB().QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", k).Scan(&locked); err != nil {
		return false, err
	}
	return locked, nil
}
