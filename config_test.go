package ormforge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormforge/ormforge"
)

func TestConfigWithDefaults(t *testing.T) {
	c := ormforge.Config{Dialect: ormforge.DialectPostgres}.WithDefaults()

	assert.Equal(t, "created_at", c.Timestamps.CreatedAt)
	assert.Equal(t, "updated_at", c.Timestamps.UpdatedAt)
	assert.Equal(t, 15, c.Pagination.DefaultPerPage)
	assert.Equal(t, "id", c.Pagination.CursorColumn)
	assert.Equal(t, ormforge.AliasTableColumn, c.Aliasing.RelationColumnAliasFormat)
	assert.Equal(t, 10, c.Relations.MaxDepth)
	assert.Equal(t, 50, c.Relations.MaxEagerLoad)
	assert.Equal(t, "inflect", c.Relations.SingularizeStrategy)
	assert.Equal(t, "deleted_at", c.SoftDeletes.Column)
	assert.NotNil(t, c.Logger)
}

func TestConfigWithDefaultsPreservesOverrides(t *testing.T) {
	c := ormforge.Config{
		Dialect:    ormforge.DialectMySQL,
		Pagination: ormforge.PaginationConfig{DefaultPerPage: 50},
	}.WithDefaults()

	assert.Equal(t, 50, c.Pagination.DefaultPerPage)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, ormforge.Config{Dialect: ormforge.DialectSQLite}.Validate())
	assert.NoError(t, ormforge.Config{Dialect: ormforge.DialectMySQL}.Validate())
	assert.NoError(t, ormforge.Config{Dialect: ormforge.DialectPostgres}.Validate())

	err := ormforge.Config{Dialect: "oracle"}.Validate()
	assert.Error(t, err)
	assert.True(t, ormforge.IsConfigError(err))
}
