package attribute_test

import (
	"testing"

	"github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormforge/ormforge/schema"
	"github.com/ormforge/ormforge/schema/attribute"
)

func TestTypedConstructors(t *testing.T) {
	d := attribute.String("name").Descriptor()
	assert.Equal(t, schema.TypeString, d.ExplicitType)
	assert.Equal(t, 255, d.Size)

	d = attribute.Decimal("price", 10, 2).Descriptor()
	assert.Equal(t, schema.TypeDecimal, d.ExplicitType)
	assert.Equal(t, 10, d.Precision)
	assert.Equal(t, 2, d.Scale)
}

func TestEnumPreservesValueList(t *testing.T) {
	d := attribute.Enum("status", "pending", "completed").Descriptor()
	assert.Equal(t, schema.TypeEnum, d.ExplicitType)
	assert.Equal(t, []string{"pending", "completed"}, d.EnumValues)
}

func TestNewHasNoExplicitType(t *testing.T) {
	d := attribute.New("whatever").Descriptor()
	assert.Empty(t, d.ExplicitType)
}

func TestFlags(t *testing.T) {
	d := attribute.String("password").Hidden().Guarded().Descriptor()
	assert.True(t, d.Hidden)
	assert.True(t, d.Guarded)
	assert.True(t, d.Fillable) // typed constructors default fillable=true
}

func TestOptionalMarksNullable(t *testing.T) {
	d := attribute.Time("deleted_at").Optional().Descriptor()
	assert.True(t, d.Nullable)
}

func TestDefaultAndDefaultFunc(t *testing.T) {
	d := attribute.Bool("is_admin").Default(false).Descriptor()
	require.NotNil(t, d.Default)
	assert.Equal(t, false, d.Default)

	called := false
	d = attribute.Time("created_at").DefaultFunc(func() any { called = true; return "now" }).Descriptor()
	require.NotNil(t, d.DefaultFunc)
	d.DefaultFunc()
	assert.True(t, called)
}

func TestValidateAttachesRuleChain(t *testing.T) {
	d := attribute.String("email").Validate(validation.Required, validation.Length(1, 255)).Descriptor()
	assert.Len(t, d.Rules, 2)
}

func TestAnnotations(t *testing.T) {
	d := attribute.String("bio").Annotations(schema.Comment("short bio")).Descriptor()
	require.Len(t, d.Annotations, 1)
	assert.Equal(t, "Comment", d.Annotations[0].Name())
}
