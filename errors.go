// Package ormforge is a programmatic SQL query builder and schema-migration
// engine for PostgreSQL, MySQL, and SQLite, driven by in-memory model
// definitions rather than generated code.
package ormforge

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("ormforge: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns zero or multiple results.
	ErrNotSingular = errors.New("ormforge: entity not singular")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction outside of a savepoint.
	ErrTxStarted = errors.New("ormforge: cannot start a transaction within a transaction")

	// ErrCancelled is returned when a builder that was cancelled by a timeout
	// or an abort signal is reused.
	ErrCancelled = errors.New("ormforge: builder was cancelled and cannot be reused")
)

// Error codes surfaced by the execution layer (§4.6).
const (
	CodeTimeout = "EBQBTIMEOUT"
	CodeAbort   = "EBQBABORT"
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any
}

func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("ormforge: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("ormforge: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string { return e.label }

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any { return e.id }

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular result
// but receives zero or multiple results.
type NotSingularError struct {
	label string
	count int
}

func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("ormforge: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("ormforge: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string { return e.label }

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int { return e.count }

// NewNotSingularError returns a new NotSingularError for the given entity type.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// ConfigError represents an invalid configuration: an unsupported dialect or
// an identifier that failed the safety check of §4.9.
type ConfigError struct {
	Subject string // e.g. "dialect", "identifier"
	Value   string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ormforge: invalid %s %q: %s", e.Subject, e.Value, e.Reason)
}

// NewConfigError returns a new ConfigError.
func NewConfigError(subject, value, reason string) *ConfigError {
	return &ConfigError{Subject: subject, Value: value, Reason: reason}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// SchemaError represents an error in the schema metadata graph: a duplicate
// table, an unknown relation, a circular relationship, or a depth/eager-load
// overflow (§7 "Schema").
type SchemaError struct {
	Kind        string // "duplicate_table" | "unknown_relation" | "circular_relationship" | "max_depth" | "max_eager_load"
	Table       string
	Name        string
	Suggestions []string
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case "duplicate_table":
		return fmt.Sprintf("ormforge: duplicate table %q", e.Table)
	case "unknown_relation":
		msg := fmt.Sprintf("ormforge: unknown relation %q on %q", e.Name, e.Table)
		if len(e.Suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
		}
		return msg
	case "circular_relationship":
		return fmt.Sprintf("ormforge: circular relationship detected at %q.%q", e.Table, e.Name)
	case "max_depth":
		return fmt.Sprintf("ormforge: maximum depth exceeded while eager-loading %q", e.Name)
	case "max_eager_load":
		return fmt.Sprintf("ormforge: maximum eager-load count exceeded while eager-loading %q", e.Name)
	default:
		return fmt.Sprintf("ormforge: schema error: %s", e.Kind)
	}
}

// NewUnknownRelationError returns a SchemaError for a relation name that
// could not be resolved, carrying candidate suggestions for the caller.
func NewUnknownRelationError(table, name string, suggestions []string) *SchemaError {
	return &SchemaError{Kind: "unknown_relation", Table: table, Name: name, Suggestions: suggestions}
}

// NewDuplicateTableError returns a SchemaError for two models declaring the
// same table name.
func NewDuplicateTableError(table string) *SchemaError {
	return &SchemaError{Kind: "duplicate_table", Table: table}
}

// NewCircularRelationshipError returns a SchemaError for a relation join that
// revisits a from→to pair already on the path.
func NewCircularRelationshipError(table, name string) *SchemaError {
	return &SchemaError{Kind: "circular_relationship", Table: table, Name: name}
}

// NewMaxDepthError returns a SchemaError for an eager-load chain deeper than
// the configured maximum.
func NewMaxDepthError(name string) *SchemaError {
	return &SchemaError{Kind: "max_depth", Name: name}
}

// NewMaxEagerLoadError returns a SchemaError for an eager-load call count
// above the configured maximum.
func NewMaxEagerLoadError(name string) *SchemaError {
	return &SchemaError{Kind: "max_eager_load", Name: name}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e)
}

// PlanningError represents a migration-planning failure: a column whose type
// could not be inferred by any fallback in §3's priority list.
type PlanningError struct {
	Table  string
	Column string
	Reason string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("ormforge: cannot plan %s.%s: %s", e.Table, e.Column, e.Reason)
}

// NewPlanningError returns a new PlanningError.
func NewPlanningError(table, column, reason string) *PlanningError {
	return &PlanningError{Table: table, Column: column, Reason: reason}
}

// IsPlanningError returns true if the error is a PlanningError.
func IsPlanningError(err error) bool {
	if err == nil {
		return false
	}
	var e *PlanningError
	return errors.As(err, &e)
}

// ExecutionError wraps a driver error with the SQL and duration of the
// execution that produced it (§4.6, §7 "Propagation").
type ExecutionError struct {
	Code     string // CodeTimeout, CodeAbort, or "" for a plain driver error
	SQL      string
	Duration string
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ormforge: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("ormforge: execution failed after %s: %v", e.Duration, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// NewTimeoutError returns an ExecutionError with CodeTimeout.
func NewTimeoutError(sql string) *ExecutionError {
	return &ExecutionError{Code: CodeTimeout, SQL: sql, Err: fmt.Errorf("query exceeded its timeout")}
}

// NewAbortError returns an ExecutionError with CodeAbort.
func NewAbortError(sql string) *ExecutionError {
	return &ExecutionError{Code: CodeAbort, SQL: sql, Err: fmt.Errorf("query was aborted")}
}

// IsTimeout returns true if the error is an ExecutionError carrying CodeTimeout.
func IsTimeout(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e) && e.Code == CodeTimeout
}

// IsAbort returns true if the error is an ExecutionError carrying CodeAbort.
func IsAbort(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e) && e.Code == CodeAbort
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

func (e ConstraintError) Error() string {
	return fmt.Sprintf("ormforge: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error { return e.wrap }

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents a validation error for an attribute value.
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ormforge: validator failed for attribute %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError returns a new ValidationError for the given attribute.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "ormforge: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("ormforge: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a query-builder error with additional context.
type QueryError struct {
	Table string
	Op    string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ormforge: querying %s (%s): %v", e.Table, e.Op, e.Err)
	}
	return fmt.Sprintf("ormforge: querying %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError returns a new QueryError.
func NewQueryError(table, op string, err error) *QueryError {
	return &QueryError{Table: table, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a DML builder error with additional context.
type MutationError struct {
	Table string
	Op    string
	Err   error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("ormforge: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error { return e.Err }

// NewMutationError returns a new MutationError.
func NewMutationError(table, op string, err error) *MutationError {
	return &MutationError{Table: table, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

// Substrings that identify a retriable driver failure (§4.7 "Retry triggers").
var retriableSubstrings = []string{
	"deadlock detected",
	"deadlock found",
	"could not serialize access",
	"serialization failure",
	"lock wait timeout",
	"database is locked",
	"sqlite_busy",
	"database table is locked",
}

// IsRetriable reports whether err matches one of the known retriable
// failure signatures (deadlock, serialization failure, lock-wait timeout,
// SQLite BUSY/locked) by substring match. The transaction core also
// consults the caller's configured SQL-state allow list; txn.Run makes that
// combined check.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range retriableSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsConnectionClosed reports whether err indicates the underlying connection
// was closed, the trigger for the execution layer's fresh-connection retry
// (§5 "Shared resource policy").
func IsConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection is already closed") ||
		strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "sql: database is closed") ||
		strings.Contains(msg, "driver: bad connection")
}

// DumpAndDieError carries a composed SQL statement and its args for a
// dump-and-die debug stop (§7 "User-visible behaviour"). No builder in
// this module returns it; callers construct it with NewDumpAndDieError.
type DumpAndDieError struct {
	SQL  string
	Args []any
}

func (e *DumpAndDieError) Error() string {
	return fmt.Sprintf("ormforge: dump and die: %s %v", e.SQL, e.Args)
}

// NewDumpAndDieError returns a new DumpAndDieError for the given composed SQL.
func NewDumpAndDieError(sql string, args []any) *DumpAndDieError {
	return &DumpAndDieError{SQL: sql, Args: args}
}

// IsDumpAndDie returns true if the error is a DumpAndDieError.
func IsDumpAndDie(err error) bool {
	if err == nil {
		return false
	}
	var e *DumpAndDieError
	return errors.As(err, &e)
}
