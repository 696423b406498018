package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/model"
	"github.com/samcwaters/recipe-app-api/internal/repository"
)

// createTestUser inserts an active user with a placeholder hash.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	u := &model.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderpla",
		IsActive:     true,
	}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	u := createTestUser(t, db, "test@example.com")

	assert.Positive(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserCreate_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.Users().Create(context.Background(), &model.User{
		Email: "dup@example.com", PasswordHash: "x", IsActive: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "getbyid@example.com")

	found, err := db.Users().GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "getbyid@example.com", found.Email)
	assert.Equal(t, "Test User", found.Name)
	assert.Equal(t, created.PasswordHash, found.PasswordHash)
	assert.True(t, found.IsActive)
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), 404)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "byemail@example.com")

	found, err := db.Users().GetByEmail(context.Background(), "byemail@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = db.Users().GetByEmail(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "update@example.com")

	u.Name = "Renamed"
	u.IsActive = false
	require.NoError(t, db.Users().Update(context.Background(), u))

	found, err := db.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Name)
	assert.False(t, found.IsActive)
}

func TestUserUpdate_EmailTakenIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken@example.com")
	u := createTestUser(t, db, "mine@example.com")

	u.Email = "taken@example.com"
	err := db.Users().Update(context.Background(), u)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestUserDelete_CascadesToRecipes(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	survivor := createTestUser(t, db, "survivor@example.com")
	createTestRecipe(t, db, owner.ID, "owned")
	kept := createTestRecipe(t, db, survivor.ID, "kept")

	require.NoError(t, db.Users().Delete(context.Background(), owner.ID))

	list, err := db.Recipes().ListByOwner(context.Background(), owner.ID, repository.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list, "recipes of a deleted user must be gone")

	_, err = db.Recipes().GetForOwner(context.Background(), kept.ID, survivor.ID)
	assert.NoError(t, err)
}

func TestUserDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Delete(context.Background(), 77)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}
