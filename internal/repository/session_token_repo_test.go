package repository

import (
	"context"
	"testing"

	"dealbase/internal/entity"
	"dealbase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRepository_ReplaceRotates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "rotate@example.com")

	require.NoError(t, sessions.Replace(ctx, &entity.SessionToken{UserID: user.ID, Key: "old-key"}))
	require.NoError(t, sessions.Replace(ctx, &entity.SessionToken{UserID: user.ID, Key: "new-key"}))

	// Old key is gone entirely, not merely inactive.
	old, err := sessions.FindByKey(ctx, "old-key")
	require.NoError(t, err)
	assert.Nil(t, old)

	current, err := sessions.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "new-key", current.Key)

	var count int64
	require.NoError(t, db.Model(&entity.SessionToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSessionTokenRepository_ReplaceCreatesWhenMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "fresh@example.com")

	require.NoError(t, sessions.Replace(ctx, &entity.SessionToken{UserID: user.ID, Key: "key"}))

	current, err := sessions.FindByKey(ctx, "key")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.UserID)
}

func TestSessionTokenRepository_FindMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, users, "none@example.com")

	byUser, err := sessions.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, byUser)

	byKey, err := sessions.FindByKey(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, byKey)
}
