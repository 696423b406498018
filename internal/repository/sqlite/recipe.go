package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/model"
	"github.com/samcwaters/recipe-app-api/internal/repository"
)

// compile-time check that *RecipeDB implements repository.RecipeRepository
var _ repository.RecipeRepository = (*RecipeDB)(nil)

// RecipeDB is the recipe store. Every query that touches an existing row
// carries "AND user_id = ?" so ownership is enforced in SQL, not in Go.
type RecipeDB struct {
	conn *sql.DB
}

const recipeColumns = `id, user_id, title, time_minutes, price, link, description, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner, r *model.Recipe) error {
	return s.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&r.Price, // decimal.Decimal implements sql.Scanner
		&r.Link,
		&r.Description,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
}

// Create inserts a new recipe and fills in its generated ID and timestamps.
func (db *RecipeDB) Create(ctx context.Context, recipe *model.Recipe) error {
	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO recipes (user_id, title, time_minutes, price, link, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.UserID,
		recipe.Title,
		recipe.TimeMinutes,
		recipe.Price.StringFixed(2),
		recipe.Link,
		recipe.Description,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating recipe: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading recipe id: %w", err)
	}
	recipe.ID = id

	return nil
}

// GetForOwner retrieves a recipe by ID, but only if ownerID owns it.
func (db *RecipeDB) GetForOwner(ctx context.Context, id, ownerID int64) (*model.Recipe, error) {
	var r model.Recipe

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+recipeColumns+`
		 FROM recipes
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err := scanRecipe(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("recipe", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}

	return &r, nil
}

// ListByOwner returns ownerID's recipes ordered by descending ID.
// A zero opts.Limit returns every row; SQLite treats LIMIT -1 as unbounded.
func (db *RecipeDB) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) ([]model.Recipe, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recipeColumns+`
		 FROM recipes
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]model.Recipe, 0)
	for rows.Next() {
		var r model.Recipe
		if err := scanRecipe(rows, &r); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}

	return recipes, nil
}

// Update writes every mutable column of recipe. user_id and created_at are
// never rewritten; recipe.UserID only selects the row.
func (db *RecipeDB) Update(ctx context.Context, recipe *model.Recipe) error {
	recipe.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE recipes
		 SET title = ?, time_minutes = ?, price = ?, link = ?, description = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		recipe.Title,
		recipe.TimeMinutes,
		recipe.Price.StringFixed(2),
		recipe.Link,
		recipe.Description,
		recipe.UpdatedAt,
		recipe.ID,
		recipe.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating recipe %d: %w", recipe.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", strconv.FormatInt(recipe.ID, 10))
	}

	return nil
}

// Delete removes ownerID's recipe id.
func (db *RecipeDB) Delete(ctx context.Context, id, ownerID int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", strconv.FormatInt(id, 10))
	}

	return nil
}
