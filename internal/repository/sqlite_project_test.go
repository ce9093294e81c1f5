package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/trackboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Website", testutil.WithIdentifier("WEB"))
	require.NoError(t, repo.Create(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "Website", fetched.Name)
	assert.Equal(t, "acme", fetched.Workspace)
	assert.Equal(t, "WEB", fetched.Identifier)
}

func TestProjectRepo_GetByIdentifier(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Backend", testutil.WithIdentifier("API2"))
	require.NoError(t, repo.Create(ctx, proj))

	// Case-insensitive lookup.
	fetched, err := repo.GetByIdentifier(ctx, "acme", "api2")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)

	_, err = repo.GetByIdentifier(ctx, "other", "API2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestProjectRepo_ListByWorkspace(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("Web", testutil.WithIdentifier("WEB"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("Api", testutil.WithIdentifier("API"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("Ops",
		testutil.WithIdentifier("OPS"), testutil.WithWorkspace("globex"))))

	list, err := repo.List(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "API", list[0].Identifier)
	assert.Equal(t, "WEB", list[1].Identifier)
}

func TestProjectRepo_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("DelTest")
	require.NoError(t, repo.Create(ctx, proj))

	require.NoError(t, repo.Delete(ctx, proj.ID))
	_, err := repo.GetByID(ctx, proj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_UniqueIdentifierPerWorkspace(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	p1 := testutil.NewTestProject("Proj1", testutil.WithIdentifier("DUP"))
	p2 := testutil.NewTestProject("Proj2", testutil.WithIdentifier("DUP"))
	p3 := testutil.NewTestProject("Proj3", testutil.WithIdentifier("DUP"), testutil.WithWorkspace("globex"))
	require.NoError(t, repo.Create(ctx, p1))

	assert.Error(t, repo.Create(ctx, p2), "duplicate identifier should violate unique index")
	assert.NoError(t, repo.Create(ctx, p3))
}

func TestProjectRepo_RejectsInvalidIdentifier(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	for _, id := range []string{"", "web", "1WEB", "TOOLONGIDENTIFIER"} {
		err := repo.Create(ctx, testutil.NewTestProject("Bad", testutil.WithIdentifier(id)))
		assert.Error(t, err, "identifier %q", id)
	}
}
