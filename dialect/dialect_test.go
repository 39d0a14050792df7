package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormforge/ormforge/dialect"
	"github.com/ormforge/ormforge/schema"
)

func TestValid(t *testing.T) {
	assert.True(t, dialect.Valid(dialect.Postgres))
	assert.True(t, dialect.Valid(dialect.MySQL))
	assert.True(t, dialect.Valid(dialect.SQLite))
	assert.False(t, dialect.Valid("oracle"))
}

func TestRegistryHasAllThreeDialects(t *testing.T) {
	for _, name := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		d := dialect.Get(name)
		if assert.NotNil(t, d, name) {
			assert.Equal(t, name, d.Name())
		}
	}
	assert.Nil(t, dialect.Get("oracle"))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"users"`, dialect.Get(dialect.Postgres).QuoteIdentifier("users"))
	assert.Equal(t, "`users`", dialect.Get(dialect.MySQL).QuoteIdentifier("users"))
	assert.Equal(t, `"users"`, dialect.Get(dialect.SQLite).QuoteIdentifier("users"))
}

func TestColumnTypeSQLVariesByDialect(t *testing.T) {
	pg := dialect.Get(dialect.Postgres).ColumnTypeSQL(schema.TypeInteger, 0, 0, 0, nil)
	my := dialect.Get(dialect.MySQL).ColumnTypeSQL(schema.TypeInteger, 0, 0, 0, nil)
	assert.Equal(t, "integer", pg)
	assert.Equal(t, "int", my)
}

func TestAdvisoryLockOnlyOnPostgres(t *testing.T) {
	assert.True(t, dialect.Get(dialect.Postgres).AdvisoryLockSupported())
	assert.False(t, dialect.Get(dialect.MySQL).AdvisoryLockSupported())
	assert.False(t, dialect.Get(dialect.SQLite).AdvisoryLockSupported())
}

func TestReturningSupport(t *testing.T) {
	assert.True(t, dialect.Get(dialect.Postgres).SupportsReturning())
	assert.False(t, dialect.Get(dialect.MySQL).SupportsReturning())
	assert.True(t, dialect.Get(dialect.SQLite).SupportsReturning())
}
