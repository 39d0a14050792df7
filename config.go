package ormforge

import "time"

// Dialect names recognized by Config.Dialect.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

// DatabaseConfig describes how to reach the target database. Either URL is
// set, or the discrete fields are; the driver construction (out of scope for
// this module, per spec.md §1) decides which to honor.
type DatabaseConfig struct {
	URL      string
	Database string
	Username string
	Password string
	Host     string
	Port     int
}

// TimestampsConfig configures the timestamps trait and default ordering.
type TimestampsConfig struct {
	CreatedAt          string // default "created_at"
	UpdatedAt          string // default "updated_at"
	DefaultOrderColumn string // column used for implicit ordering when none is specified
}

// PaginationConfig configures default pagination behavior.
type PaginationConfig struct {
	DefaultPerPage int    // default 15
	CursorColumn   string // default "id"
}

// AliasFormat controls how joined-relation columns are aliased in the
// select list (§6 "aliasing").
type AliasFormat string

const (
	AliasTableColumn  AliasFormat = "table_column"
	AliasTableDotPath  AliasFormat = "table.dot.column"
	AliasCamelCase    AliasFormat = "camelCase"
)

// AliasingConfig configures relation-column aliasing.
type AliasingConfig struct {
	RelationColumnAliasFormat AliasFormat
}

// RelationsConfig configures the schema metadata graph and relation joiner.
type RelationsConfig struct {
	ForeignKeyFormat    string // e.g. "{model}_id"; not read by the metadata graph
	MaxDepth            int    // default 10
	MaxEagerLoad        int    // default 50
	DetectCycles        bool   // off unless set; WithDefaults leaves it unchanged
	SingularizeStrategy string // "inflect" (default) | "none"
}

// BackoffConfig configures the transaction core's retry backoff.
type BackoffConfig struct {
	BaseMs float64
	Factor float64
	MaxMs  float64
	Jitter float64 // fraction in [0,1), default 0.1 (up to 10%)
}

// TransactionDefaultsConfig configures the transaction core.
type TransactionDefaultsConfig struct {
	Retries   int
	Isolation string // "read committed" | "repeatable read" | "serializable"
	SQLStates []string
	Backoff   BackoffConfig
}

// SQLConfig configures per-dialect SQL feature toggles consumed by the
// select compiler.
type SQLConfig struct {
	RandomFunction    string
	SharedLockSyntax  string
	JSONContainsMode  string
}

// SoftDeletesConfig configures the soft-delete trait and scoping default.
type SoftDeletesConfig struct {
	Enabled       bool
	Column        string // default "deleted_at"
	DefaultFilter bool   // true: get() filters deleted rows by default
}

// HooksConfig wires the observable pipeline of §4.6 and lifecycle hooks.
type HooksConfig struct {
	OnQueryStart  func(sql string, kind string)
	OnQueryEnd    func(sql string, duration time.Duration, rowCount int64, kind string)
	OnQueryError  func(sql string, err error, duration time.Duration, kind string)
	StartSpan     func(name string) func()
	BeforeCreate  func(table string, row map[string]any) error
	AfterCreate   func(table string, row map[string]any)
	BeforeDelete  func(table string, pk any) error
	AfterDelete   func(table string, pk any)
}

// DebugConfig configures debug facilities.
type DebugConfig struct {
	CaptureText bool
}

// Config is the top-level configuration surface (spec.md §6).
type Config struct {
	Dialect             string
	Database            DatabaseConfig
	Timestamps          TimestampsConfig
	Pagination          PaginationConfig
	Aliasing            AliasingConfig
	Relations           RelationsConfig
	TransactionDefaults TransactionDefaultsConfig
	SQL                 SQLConfig
	SoftDeletes         SoftDeletesConfig
	Hooks               HooksConfig
	Debug               DebugConfig
	Logger              Logger
}

// WithDefaults returns a copy of c with the documented defaults applied to
// any zero-valued field.
func (c Config) WithDefaults() Config {
	if c.Timestamps.CreatedAt == "" {
		c.Timestamps.CreatedAt = "created_at"
	}
	if c.Timestamps.UpdatedAt == "" {
		c.Timestamps.UpdatedAt = "updated_at"
	}
	if c.Pagination.DefaultPerPage == 0 {
		c.Pagination.DefaultPerPage = 15
	}
	if c.Pagination.CursorColumn == "" {
		c.Pagination.CursorColumn = "id"
	}
	if c.Aliasing.RelationColumnAliasFormat == "" {
		c.Aliasing.RelationColumnAliasFormat = AliasTableColumn
	}
	if c.Relations.MaxDepth == 0 {
		c.Relations.MaxDepth = 10
	}
	if c.Relations.MaxEagerLoad == 0 {
		c.Relations.MaxEagerLoad = 50
	}
	if c.Relations.SingularizeStrategy == "" {
		c.Relations.SingularizeStrategy = "inflect"
	}
	if c.TransactionDefaults.Backoff.Factor == 0 {
		c.TransactionDefaults.Backoff.Factor = 2
	}
	if c.TransactionDefaults.Backoff.Jitter == 0 {
		c.TransactionDefaults.Backoff.Jitter = 0.1
	}
	if c.SoftDeletes.Column == "" {
		c.SoftDeletes.Column = "deleted_at"
	}
	if c.Logger == nil {
		c.Logger = NopLogger
	}
	return c
}

// Validate reports a ConfigError if the dialect is not one of the three
// supported dialects.
func (c Config) Validate() error {
	switch c.Dialect {
	case DialectPostgres, DialectMySQL, DialectSQLite:
		return nil
	default:
		return NewConfigError("dialect", c.Dialect, "must be one of postgres, mysql, sqlite")
	}
}
