// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/samcwaters/recipe-app-api/internal/model"
)

// ListOptions paginates a list query. A zero Limit means "no limit".
type ListOptions struct {
	Limit  int
	Offset int
}

// RecipeRepository stores recipes. Every method that reads or mutates an
// existing recipe is scoped by owner: a recipe belonging to someone else is
// indistinguishable from one that doesn't exist (apperror.ErrNotFound).
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetForOwner(ctx context.Context, id, ownerID int64) (*model.Recipe, error)
	// ListByOwner returns the owner's recipes, newest (highest id) first.
	ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) ([]model.Recipe, error)
	Update(ctx context.Context, recipe *model.Recipe) error
	Delete(ctx context.Context, id, ownerID int64) error
}

type UserRepository interface {
	// Create returns apperror.ErrConflict if the email is already taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user and, through the foreign key, their recipes.
	Delete(ctx context.Context, id int64) error
}
