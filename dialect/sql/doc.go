// Package sql provides SQL query building primitives and database dialect
// abstraction: the substrate the Select Compiler (query), DML Compilers
// (query/dml), and Migration Planner (dialect/sql/schema, migration) are
// built on. It provides a fluent API for constructing parameterised SQL
// statements without sending a single raw string concatenation to the
// driver.
//
// # Builder Types
//
// The package provides specialized builders for different SQL operations:
//
//   - Builder: Low-level SQL string builder with identifier quoting
//   - Selector: SELECT query builder with joins, predicates, and pagination
//   - InsertBuilder/UpdateBuilder/DeleteBuilder: DML builders returned by
//     Dialect(name).Insert/Update/Delete
//
// # Dialect Support
//
// SQL generation adapts to different database dialects:
//
//	import "github.com/ormforge/ormforge/dialect"
//
//	// PostgreSQL
//	ins := sql.Dialect(dialect.Postgres).Insert("users").Columns("name").Values("ada")
//
//	// MySQL
//	ins := sql.Dialect(dialect.MySQL).Insert("users").Columns("name").Values("ada")
//
// # Predicates
//
// The package provides predicate-building functions consumed by both the
// low-level Selector and the higher-level query.Builder:
//
//	// Equality
//	sql.EQ("name", "john")           // name = 'john'
//	sql.NEQ("status", "deleted")     // status <> 'deleted'
//
//	// Comparison
//	sql.GT("age", 18)                // age > 18
//	sql.LTE("price", 100.0)          // price <= 100.0
//
//	// String matching
//	sql.Contains("name", "john")     // name LIKE '%john%'
//	sql.HasPrefix("email", "admin")  // email LIKE 'admin%'
//
//	// NULL checks
//	sql.IsNull("deleted_at")         // deleted_at IS NULL
//	sql.NotNull("email")             // email IS NOT NULL
//
//	// IN clauses
//	sql.In("status", "active", "pending")  // status IN ('active', 'pending')
//
// # Joins
//
// Join operations are supported through the selector, keyed on a predicate
// rather than a separate On call:
//
//	sql.Select("u.id", "u.name", "p.title").
//	    From(sql.Table("users").As("u")).
//	    Join(sql.Table("posts").As("p"), sql.Raw("u.id = p.user_id"))
//
// # Pagination
//
// Both offset-based and cursor-based pagination are supported — the latter
// built one predicate at a time by the execution layer's ChunkByID/
// EachByID, not by a single method on Selector:
//
//	// Offset pagination
//	sql.Select("*").From(sql.Table("users")).Offset(20).Limit(10)
//
// # Row-Level Locking
//
// Pessimistic locking for transactions:
//
//	sql.Select("*").From(sql.Table("users")).
//	    Where(sql.EQ("id", 1)).
//	    ForUpdate()  // SELECT ... FOR UPDATE
//
// # Usage
//
// Application code almost never imports this package directly — it is the
// compilation target for query.Builder, query/dml's Insert/Update/Delete,
// and migration.Diff's rendered DDL. Reach for it directly only when
// composing a CTE body or a correlated subquery token to hand to
// query.Builder.WithCTE/WhereInSubquery.
package sql
