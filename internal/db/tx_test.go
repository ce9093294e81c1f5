package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/trackboard/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openProjects(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

func insertProject(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, workspace, identifier, name, created_at) VALUES (?, 'acme', ?, ?, '2024-03-01T00:00:00Z')`,
		id, id, "Project "+id)
	return err
}

func projectExists(t *testing.T, database *sql.DB, id string) bool {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&n))
	return n == 1
}

func TestWithinTx_Commits(t *testing.T) {
	database, uow := openProjects(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertProject(ctx, tx, "WEB")
	})
	require.NoError(t, err)
	assert.True(t, projectExists(t, database, "WEB"))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	database, uow := openProjects(t)
	boom := errors.New("boom")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertProject(ctx, tx, "WEB"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, projectExists(t, database, "WEB"))
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	database, uow := openProjects(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertProject(ctx, tx, "WEB")
			panic("boom")
		})
	})
	assert.False(t, projectExists(t, database, "WEB"))
}
