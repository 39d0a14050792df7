package ormforge_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ormforge/ormforge"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := ormforge.NewNotFoundError("User")
		assert.Equal(t, "ormforge: User not found", err.Error())
	})

	t.Run("ErrorWithID", func(t *testing.T) {
		err := ormforge.NewNotFoundErrorWithID("User", 42)
		assert.Equal(t, "ormforge: User not found (id=42)", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := ormforge.NewNotFoundError("Post")
		assert.True(t, errors.Is(err, ormforge.ErrNotFound))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := ormforge.NewNotFoundError("Comment")
		assert.True(t, ormforge.IsNotFound(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, ormforge.IsNotFound(wrapped))

		assert.True(t, ormforge.IsNotFound(ormforge.ErrNotFound))
		assert.False(t, ormforge.IsNotFound(errors.New("other error")))
		assert.False(t, ormforge.IsNotFound(nil))
	})
}

func TestNotSingularError(t *testing.T) {
	t.Run("WithoutCount", func(t *testing.T) {
		err := ormforge.NewNotSingularError("User")
		assert.Equal(t, "ormforge: User not singular", err.Error())
	})

	t.Run("WithCount", func(t *testing.T) {
		err := ormforge.NewNotSingularErrorWithCount("User", 3)
		assert.Equal(t, "ormforge: User not singular (got 3 results, expected 1)", err.Error())
		assert.Equal(t, 3, err.Count())
	})

	t.Run("IsNotSingular", func(t *testing.T) {
		err := ormforge.NewNotSingularError("User")
		assert.True(t, ormforge.IsNotSingular(err))
		assert.True(t, errors.Is(err, ormforge.ErrNotSingular))
	})
}

func TestConfigError(t *testing.T) {
	err := ormforge.NewConfigError("dialect", "oracle", "unsupported dialect")
	assert.Equal(t, `ormforge: invalid dialect "oracle": unsupported dialect`, err.Error())
	assert.True(t, ormforge.IsConfigError(err))
}

func TestSchemaError(t *testing.T) {
	t.Run("UnknownRelation", func(t *testing.T) {
		err := ormforge.NewUnknownRelationError("users", "psots", []string{"posts"})
		assert.Contains(t, err.Error(), `unknown relation "psots"`)
		assert.Contains(t, err.Error(), "posts")
		assert.True(t, ormforge.IsSchemaError(err))
	})

	t.Run("DuplicateTable", func(t *testing.T) {
		err := ormforge.NewDuplicateTableError("users")
		assert.Contains(t, err.Error(), "duplicate table")
	})

	t.Run("CircularRelationship", func(t *testing.T) {
		err := ormforge.NewCircularRelationshipError("users", "friends")
		assert.Contains(t, err.Error(), "circular relationship")
	})

	t.Run("MaxDepth", func(t *testing.T) {
		err := ormforge.NewMaxDepthError("posts.comments.replies")
		assert.Contains(t, err.Error(), "maximum depth exceeded")
	})

	t.Run("MaxEagerLoad", func(t *testing.T) {
		err := ormforge.NewMaxEagerLoadError("posts")
		assert.Contains(t, err.Error(), "maximum eager-load count exceeded")
	})
}

func TestPlanningError(t *testing.T) {
	err := ormforge.NewPlanningError("users", "preferences", "no inference rule matched")
	assert.Equal(t, `ormforge: cannot plan users.preferences: no inference rule matched`, err.Error())
	assert.True(t, ormforge.IsPlanningError(err))
}

func TestExecutionError(t *testing.T) {
	t.Run("Timeout", func(t *testing.T) {
		err := ormforge.NewTimeoutError("SELECT * FROM users")
		assert.Equal(t, ormforge.CodeTimeout, err.Code)
		assert.True(t, ormforge.IsTimeout(err))
		assert.False(t, ormforge.IsAbort(err))
	})

	t.Run("Abort", func(t *testing.T) {
		err := ormforge.NewAbortError("SELECT * FROM users")
		assert.Equal(t, ormforge.CodeAbort, err.Code)
		assert.True(t, ormforge.IsAbort(err))
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := ormforge.NewTimeoutError("SELECT 1")
		assert.NotNil(t, errors.Unwrap(err))
	})
}

func TestConstraintError(t *testing.T) {
	wrapped := errors.New("duplicate key")
	err := ormforge.NewConstraintError("unique violation", wrapped)
	assert.True(t, ormforge.IsConstraintError(err))
	assert.ErrorIs(t, err, wrapped)
}

func TestValidationError(t *testing.T) {
	err := ormforge.NewValidationError("email", errors.New("must be a valid email"))
	assert.Equal(t, `ormforge: validator failed for attribute "email": must be a valid email`, err.Error())
	assert.True(t, ormforge.IsValidationError(err))
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.Nil(t, ormforge.NewAggregateError(nil, nil))
	})

	t.Run("SingleError", func(t *testing.T) {
		e := errors.New("boom")
		assert.Equal(t, e, ormforge.NewAggregateError(e))
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		err := ormforge.NewAggregateError(errors.New("a"), errors.New("b"))
		assert.Contains(t, err.Error(), "multiple errors")
		assert.Contains(t, err.Error(), "[1] a")
		assert.Contains(t, err.Error(), "[2] b")
	})
}

func TestQueryAndMutationErrors(t *testing.T) {
	qerr := ormforge.NewQueryError("users", "select", errors.New("syntax error"))
	assert.True(t, ormforge.IsQueryError(qerr))
	assert.Contains(t, qerr.Error(), "querying users (select)")

	merr := ormforge.NewMutationError("users", "create", errors.New("duplicate"))
	assert.True(t, ormforge.IsMutationError(merr))
	assert.Contains(t, merr.Error(), "create users")
}

func TestIsRetriable(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"ERROR: deadlock detected", true},
		{"Error 1213: Deadlock found when trying to get lock", true},
		{"pq: could not serialize access due to concurrent update", true},
		{"Error 1205: Lock wait timeout exceeded", true},
		{"database is locked", true},
		{"SQLITE_BUSY: database is locked", true},
		{"syntax error near SELECT", false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, ormforge.IsRetriable(errors.New(c.msg)), "msg=%s", c.msg)
	}
	assert.False(t, ormforge.IsRetriable(nil))
}

func TestIsConnectionClosed(t *testing.T) {
	assert.True(t, ormforge.IsConnectionClosed(errors.New("sql: connection is already closed")))
	assert.True(t, ormforge.IsConnectionClosed(errors.New("sql: database is closed")))
	assert.False(t, ormforge.IsConnectionClosed(errors.New("syntax error")))
	assert.False(t, ormforge.IsConnectionClosed(nil))
}

func TestDumpAndDieError(t *testing.T) {
	err := ormforge.NewDumpAndDieError("SELECT 1", []any{1})
	assert.True(t, ormforge.IsDumpAndDie(err))
	assert.Contains(t, err.Error(), "dump and die")
}
