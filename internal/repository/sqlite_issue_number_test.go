package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/trackboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueNumberRepo_Next(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	projects := NewSQLiteProjectRepo(database)
	numbers := NewSQLiteIssueNumberRepo(database)

	web := testutil.NewTestProject("Website", testutil.WithIdentifier("WEB"))
	api := testutil.NewTestProject("API", testutil.WithIdentifier("API"))
	require.NoError(t, projects.Create(ctx, web))
	require.NoError(t, projects.Create(ctx, api))

	for want := 1; want <= 3; want++ {
		n, err := numbers.Next(ctx, web.ID)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// Counters are per project.
	n, err := numbers.Next(ctx, api.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIssueNumberRepo_StartsAfterImportedIssues(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	projects := NewSQLiteProjectRepo(database)
	issues := NewSQLiteIssueRepo(database)

	web := testutil.NewTestProject("Website", testutil.WithIdentifier("WEB"))
	require.NoError(t, projects.Create(ctx, web))
	require.NoError(t, issues.Create(ctx, testutil.NewTestIssue(web.ID, "Old", testutil.WithSequence(4))))
	require.NoError(t, issues.Create(ctx, testutil.NewTestIssue(web.ID, "Older", testutil.WithSequence(9))))

	n, err := NewSQLiteIssueNumberRepo(database).Next(ctx, web.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestIssueNumberRepo_NotReusedAfterDelete(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	projects := NewSQLiteProjectRepo(database)
	issues := NewSQLiteIssueRepo(database)
	numbers := NewSQLiteIssueNumberRepo(database)

	web := testutil.NewTestProject("Website", testutil.WithIdentifier("WEB"))
	require.NoError(t, projects.Create(ctx, web))

	n, err := numbers.Next(ctx, web.ID)
	require.NoError(t, err)
	is := testutil.NewTestIssue(web.ID, "Short lived", testutil.WithSequence(n))
	require.NoError(t, issues.Create(ctx, is))
	require.NoError(t, issues.Delete(ctx, is.ID))

	n, err = numbers.Next(ctx, web.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
