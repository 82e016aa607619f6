//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/candlelight-labs/sift/internal/service"
	"github.com/candlelight-labs/sift/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLogEntry(userID string, at time.Time) service.SearchLogEntry {
	return service.SearchLogEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		QueryText:    "what is raft?",
		QueryHash:    "abc123",
		SubQueries:   []string{"raft consensus algorithm", "raft leader election"},
		TotalResults: 7,
		Confidence:   0.85,
		AIGenerated:  true,
		DurationMS:   1200,
		CreatedAt:    at,
	}
}

func TestSearchLogRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	user := seedUser(ctx, t, NewUserRepository(pool))
	repo := NewSearchLogRepository(pool)

	entry := sampleLogEntry(user.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, entry))

	entries, err := repo.ListByUser(ctx, user.ID, 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.QueryText, entries[0].QueryText)
	assert.Equal(t, entry.SubQueries, entries[0].SubQueries)
	assert.Equal(t, entry.TotalResults, entries[0].TotalResults)
	assert.True(t, entries[0].AIGenerated)
}

func TestSearchLogRepository_ListByUser_NewestFirst(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	user := seedUser(ctx, t, NewUserRepository(pool))
	repo := NewSearchLogRepository(pool)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		e := sampleLogEntry(user.ID, base.Add(time.Duration(i)*time.Minute))
		e.QueryText = e.QueryText + uuid.NewString()[:4]
		require.NoError(t, repo.Create(ctx, e))
	}

	entries, err := repo.ListByUser(ctx, user.ID, 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
	assert.True(t, entries[1].CreatedAt.After(entries[2].CreatedAt))
}

func TestSearchLogRepository_ListByUser_BeforeCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	user := seedUser(ctx, t, NewUserRepository(pool))
	repo := NewSearchLogRepository(pool)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	var times []time.Time
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		times = append(times, at)
		require.NoError(t, repo.Create(ctx, sampleLogEntry(user.ID, at)))
	}

	entries, err := repo.ListByUser(ctx, user.ID, 10, times[2])
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].CreatedAt.Before(times[2]))
}

func TestSearchLogRepository_ListByUser_ScopedToUser(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	alice := seedUser(ctx, t, userRepo)
	bob := seedUser(ctx, t, userRepo)
	repo := NewSearchLogRepository(pool)

	require.NoError(t, repo.Create(ctx, sampleLogEntry(alice.ID, time.Now().UTC())))

	entries, err := repo.ListByUser(ctx, bob.ID, 10, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
