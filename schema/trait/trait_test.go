package trait_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormforge/ormforge/schema/trait"
)

func TestTimestampsDefaultColumns(t *testing.T) {
	attrs := trait.Timestamps{}.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "created_at", attrs[0].Name)
	assert.False(t, attrs[0].Nullable)
	assert.NotNil(t, attrs[0].DefaultFunc)
	assert.Equal(t, "updated_at", attrs[1].Name)
	assert.True(t, attrs[1].Nullable)
}

func TestTimestampsCustomColumns(t *testing.T) {
	attrs := trait.Timestamps{CreatedAtColumn: "inserted_at", UpdatedAtColumn: "modified_at"}.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "inserted_at", attrs[0].Name)
	assert.Equal(t, "modified_at", attrs[1].Name)
}

func TestSoftDeleteDefaultColumn(t *testing.T) {
	attrs := trait.SoftDelete{}.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, "deleted_at", attrs[0].Name)
	assert.True(t, attrs[0].Nullable)
}

func TestSoftDeleteCustomColumn(t *testing.T) {
	attrs := trait.SoftDelete{Column: "archived_at"}.Attributes()
	assert.Equal(t, "archived_at", attrs[0].Name)
}

func TestTimestampsSoftDeleteCombines(t *testing.T) {
	attrs := trait.TimestampsSoftDelete{}.Attributes()
	require.Len(t, attrs, 3)
	names := []string{attrs[0].Name, attrs[1].Name, attrs[2].Name}
	assert.Equal(t, []string{"created_at", "updated_at", "deleted_at"}, names)
}

func TestUUIDDefaultColumn(t *testing.T) {
	attrs := trait.UUID{}.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, "id", attrs[0].Name)
	assert.True(t, attrs[0].Unique)
}

func TestSearchIndex(t *testing.T) {
	idxs := trait.Search{Columns: []string{"title", "body"}, Name: "posts_search"}.Indexes()
	require.Len(t, idxs, 1)
	assert.Equal(t, []string{"title", "body"}, idxs[0].Fields)
	assert.Equal(t, "posts_search", idxs[0].StorageKey)
}

func TestBaseTraitContributesNothing(t *testing.T) {
	var b trait.Base
	assert.Nil(t, b.Attributes())
	assert.Nil(t, b.Relations())
	assert.Nil(t, b.Indexes())
	assert.Nil(t, b.Annotations())
}
