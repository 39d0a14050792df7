package dml_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ormforge "github.com/ormforge/ormforge"
	"github.com/ormforge/ormforge/dialect"
	dsql "github.com/ormforge/ormforge/dialect/sql"
	"github.com/ormforge/ormforge/exec"
	"github.com/ormforge/ormforge/query/dml"
)

func newRunner(t *testing.T, dialectName string) (*exec.Runner, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := dsql.OpenDB(dialectName, db)
	r := exec.New(drv, ormforge.Config{Dialect: dialectName})
	return r, mock, func() { db.Close() }
}

func TestInsertCreateStampsTimestamps(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.Postgres)
	defer closeDB()

	var beforeCalled, afterCalled bool
	cfg := ormforge.Config{
		Dialect: dialect.Postgres,
		Hooks: ormforge.HooksConfig{
			BeforeCreate: func(table string, row map[string]any) error { beforeCalled = true; return nil },
			AfterCreate:  func(table string, row map[string]any) { afterCalled = true },
		},
	}

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(1, 1))

	row := map[string]any{"name": "ada"}
	rows, err := dml.NewInsert(cfg, "users", row).Create(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.True(t, beforeCalled)
	assert.True(t, afterCalled)
	assert.Contains(t, row, "created_at")
	assert.Contains(t, row, "updated_at")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCreateWithReturningDecodesRow(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.Postgres)
	defer closeDB()

	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	rows, err := dml.NewInsert(ormforge.Config{Dialect: dialect.Postgres}, "users", map[string]any{"name": "ada"}).
		Returning("id").
		Create(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 7, rows[0]["id"])
}

func TestInsertCreateGetIDUsesLastInsertIDOnMySQL(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.MySQL)
	defer closeDB()

	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := dml.NewInsert(ormforge.Config{Dialect: dialect.MySQL}, "users", map[string]any{"name": "ada"}).
		CreateGetID(context.Background(), r, "id")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestInsertUpsertMergesOnConflict(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.Postgres)
	defer closeDB()

	mock.ExpectExec(`ON CONFLICT\("email"\) DO UPDATE SET "name" = EXCLUDED.name`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := func() error {
		_, err := dml.NewInsert(ormforge.Config{Dialect: dialect.Postgres}, "users", map[string]any{"email": "a@x.com", "name": "ada"}).
			Upsert([]string{"email"}, "name").
			Create(context.Background(), r)
		return err
	}()
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSetsUpdatedAtAndAffectedRows(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.Postgres)
	defer closeDB()

	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := dml.NewUpdate(ormforge.Config{Dialect: dialect.Postgres}, "users").
		Set("name", "grace").
		Where(dsql.EQ("active", true)).
		Exec(context.Background(), r)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFiresHooks(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.Postgres)
	defer closeDB()

	var before, after any
	cfg := ormforge.Config{Dialect: dialect.Postgres, Hooks: ormforge.HooksConfig{
		BeforeDelete: func(table string, pk any) error { before = pk; return nil },
		AfterDelete:  func(table string, pk any) { after = pk },
	}}

	mock.ExpectExec(`DELETE FROM "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := dml.NewDelete(cfg, "users").Where(dsql.EQ("id", 5)).Exec(context.Background(), r, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 5, before)
	assert.EqualValues(t, 5, after)
}

func TestSoftDeleteIssuesUpdate(t *testing.T) {
	r, mock, closeDB := newRunner(t, dialect.Postgres)
	defer closeDB()

	cfg := ormforge.Config{Dialect: dialect.Postgres, SoftDeletes: ormforge.SoftDeletesConfig{Enabled: true}}
	mock.ExpectExec(`UPDATE "users" SET "deleted_at"`).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := dml.SoftDelete(context.Background(), r, cfg, "users", dsql.EQ("id", 1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
