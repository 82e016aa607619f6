//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/candlelight-labs/sift/internal/domain"
	"github.com/candlelight-labs/sift/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewUserRepository(pool)

	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      "Test User",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	err := repo.Create(ctx, user)
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Name, retrieved.Name)
}

func TestUserRepository_Create_DuplicateName(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewUserRepository(pool)

	user := &domain.User{ID: uuid.NewString(), Name: "dup", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, user))

	twin := &domain.User{ID: uuid.NewString(), Name: "dup", CreatedAt: time.Now().UTC()}
	err := repo.Create(ctx, twin)
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewUserRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_GetByName(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewUserRepository(pool)

	user := &domain.User{ID: uuid.NewString(), Name: "alice", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, user))

	retrieved, err := repo.GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)

	_, err = repo.GetByName(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewUserRepository(pool)

	u1 := &domain.User{ID: uuid.NewString(), Name: "User 1", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	u2 := &domain.User{ID: uuid.NewString(), Name: "User 2", CreatedAt: time.Now().UTC().Add(time.Second).Truncate(time.Microsecond)}

	require.NoError(t, repo.Create(ctx, u1))
	require.NoError(t, repo.Create(ctx, u2))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, u2.Name, users[0].Name)
	assert.Equal(t, u1.Name, users[1].Name)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewUserRepository(pool)

	user := &domain.User{ID: uuid.NewString(), Name: "gone", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.Delete(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
