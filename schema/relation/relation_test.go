package relation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormforge/ormforge/schema"
	"github.com/ormforge/ormforge/schema/relation"
)

func TestHasOneRel(t *testing.T) {
	d := relation.HasOneRel("profile", "Profile").Descriptor()
	assert.Equal(t, relation.HasOne, d.Kind)
	assert.Equal(t, "Profile", d.Target)
	assert.False(t, d.Kind.IsMorph())
	assert.False(t, d.Kind.IsPivoted())
}

func TestBelongsToManyDefaultsToDerivedPivot(t *testing.T) {
	d := relation.BelongsToManyRel("roles", "Role").Descriptor()
	assert.True(t, d.Kind.IsPivoted())
	assert.Empty(t, d.Pivot)
}

func TestBelongsToManyExplicitPivot(t *testing.T) {
	d := relation.BelongsToManyRel("roles", "Role").
		Pivot("user_roles").
		PivotKeys("user_id", "role_id").
		Descriptor()
	assert.Equal(t, "user_roles", d.Pivot)
	assert.Equal(t, "user_id", d.PivotFirst)
	assert.Equal(t, "role_id", d.PivotSecond)
}

func TestThroughRelationsCarryIntermediate(t *testing.T) {
	d := relation.HasManyThroughRel("comments", "Comment", "Post").
		FirstKey("user_id").
		SecondKey("post_id").
		Descriptor()
	require.Equal(t, relation.HasManyThrough, d.Kind)
	assert.True(t, d.Kind.IsThrough())
	assert.Equal(t, "Post", d.Through)
	assert.Equal(t, "user_id", d.FirstKey)
	assert.Equal(t, "post_id", d.SecondKey)
}

func TestMorphRelationsCarryMorphName(t *testing.T) {
	d := relation.MorphManyRel("comments", "Comment", "commentable").Descriptor()
	assert.True(t, d.Kind.IsMorph())
	assert.Equal(t, "commentable", d.MorphName)

	inverse := relation.MorphToManyRel("tags", "Tag", "taggable").MorphType("Post").Descriptor()
	assert.Equal(t, "Post", inverse.MorphType)
	assert.True(t, inverse.Kind.IsPivoted())

	byMany := relation.MorphedByManyRel("posts", "Post", "taggable").Descriptor()
	assert.Equal(t, relation.MorphedByMany, byMany.Kind)
}

func TestForeignKeyAndOwnerKeyOverrides(t *testing.T) {
	d := relation.BelongsToRel("author", "User").
		ForeignKey("author_id").
		OwnerKey("uuid").
		Descriptor()
	assert.Equal(t, "author_id", d.ForeignKey)
	assert.Equal(t, "uuid", d.OwnerKey)
}

func TestAnnotations(t *testing.T) {
	d := relation.HasManyRel("posts", "Post").Annotations(schema.Comment("user's posts")).Descriptor()
	require.Len(t, d.Annotations, 1)
}
