//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-manager/internal/database"
	"go-task-manager/internal/model"
	"go-task-manager/pkg/apierror"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, database.Migrate(url, database.SchemaAuth))
	require.NoError(t, database.Migrate(url, database.SchemaTask))

	db, err := database.New(context.Background(), url, 4, 0)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db.Pool
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	name := uniqueName("alice")
	created, err := repo.Create(ctx, model.User{Username: name, Email: name + "@x.com", PasswordHash: "digest"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := repo.FindByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "digest", found.PasswordHash)

	_, err = repo.Create(ctx, model.User{Username: name, Email: "other-" + name + "@x.com", PasswordHash: "d"})
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "username", apiErr.Details)

	_, err = repo.FindByUsername(ctx, "' OR '1'='1")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestTaskRepository_OwnerScoping(t *testing.T) {
	pool := newTestPool(t)
	repo := NewTaskRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := time.Now().UnixNano() % 1_000_000_000
	other := owner + 1

	task, err := repo.Create(ctx, model.Task{
		Title: "write report", Status: model.TaskStatusPending, Priority: model.TaskPriorityHigh,
		UserID: owner, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	mine, err := repo.List(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	injected := model.TaskStatus("pending' OR 1=1 --")
	leaked, err := repo.List(ctx, owner, &injected)
	require.NoError(t, err)
	assert.Empty(t, leaked)

	theirs, err := repo.List(ctx, other, nil)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	task.UserID = other
	_, err = repo.Update(ctx, task)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, task.ID, other), model.ErrTaskNotFound)
	require.NoError(t, repo.Delete(ctx, task.ID, owner))

	_, err = repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}

func TestAuditRepository_Log(t *testing.T) {
	pool := newTestPool(t)
	repo := NewAuditRepository(pool)

	err := repo.Log(context.Background(), model.AuditEntry{
		Action: "login", OccurredAt: time.Now().UTC(), Username: "ghost", Status: "failure",
	})
	require.NoError(t, err)
}
