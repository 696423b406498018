// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, binds ownership, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never *sqlite.DB, so tests can hand
// them in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/model"
	"github.com/samcwaters/recipe-app-api/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength = 255
	MaxLinkLength  = 255

	// Price is stored with at most PriceMaxDigits digits in total, of
	// which PriceDecimalPlaces come after the point (so < 1000.00).
	PriceMaxDigits     = 5
	PriceDecimalPlaces = 2
)

// Validation messages shared with the user service.
const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// RecipeInput carries a create or update payload. A nil field means the
// client didn't send it: required on create and full update, left
// untouched on partial update.
type RecipeInput struct {
	Title       *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Description *string
}

// RecipeService handles business logic for recipes. Every method takes the
// authenticated owner's ID and passes it down, so one user can never see or
// touch another user's rows.
type RecipeService struct {
	repo   repository.RecipeRepository
	logger *slog.Logger
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(repo repository.RecipeRepository, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the owner's recipes, newest first. limit 0 returns all of them.
func (s *RecipeService) List(ctx context.Context, ownerID int64, limit, offset int) ([]model.Recipe, error) {
	if limit < 0 {
		return nil, apperror.ValidationFailed("limit", "Ensure this value is greater than or equal to 0.")
	}
	if offset < 0 {
		return nil, apperror.ValidationFailed("offset", "Ensure this value is greater than or equal to 0.")
	}

	recipes, err := s.repo.ListByOwner(ctx, ownerID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list recipes",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing recipes: %w", err)
	}

	return recipes, nil
}

// Get returns a single recipe. Returns apperror.ErrNotFound if it doesn't
// exist or belongs to someone else.
func (s *RecipeService) Get(ctx context.Context, ownerID, id int64) (*model.Recipe, error) {
	return s.repo.GetForOwner(ctx, id, ownerID)
}

// Create validates in and stores a new recipe owned by ownerID. Owner comes
// from the caller only; nothing in the payload can set it.
func (s *RecipeService) Create(ctx context.Context, ownerID int64, in RecipeInput) (*model.Recipe, error) {
	recipe := &model.Recipe{UserID: ownerID}
	if err := applyRecipeInput(recipe, in, false); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, recipe); err != nil {
		s.logger.Error("failed to create recipe",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating recipe: %w", err)
	}
	recipesCreated.Inc()

	s.logger.Info("recipe created",
		slog.Int64("id", recipe.ID),
		slog.Int64("ownerID", ownerID),
	)

	return recipe, nil
}

// Update changes an existing recipe. With partial=false (PUT) the required
// fields must all be present; with partial=true (PATCH) only the supplied
// fields change. Omitted optional fields keep their values either way.
func (s *RecipeService) Update(ctx context.Context, ownerID, id int64, in RecipeInput, partial bool) (*model.Recipe, error) {
	recipe, err := s.repo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if err := applyRecipeInput(recipe, in, partial); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, recipe); err != nil {
		s.logger.Error("failed to update recipe",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating recipe: %w", err)
	}
	recipesUpdated.Inc()

	s.logger.Info("recipe updated",
		slog.Int64("id", recipe.ID),
		slog.Bool("partial", partial),
	)

	return recipe, nil
}

// Delete removes the owner's recipe.
func (s *RecipeService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	recipesDeleted.Inc()

	s.logger.Info("recipe deleted", slog.Int64("id", id), slog.Int64("ownerID", ownerID))
	return nil
}

// applyRecipeInput validates in and copies the present fields onto recipe.
// Nothing is written unless every field is valid.
func applyRecipeInput(recipe *model.Recipe, in RecipeInput, partial bool) error {
	var fe apperror.FieldErrors

	if !partial {
		if in.Title == nil {
			fe.Add("title", msgRequired)
		}
		if in.TimeMinutes == nil {
			fe.Add("time_minutes", msgRequired)
		}
		if in.Price == nil {
			fe.Add("price", msgRequired)
		}
	}

	var title string
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			fe.Add("title", msgBlank)
		case utf8.RuneCountInString(title) > MaxTitleLength:
			fe.Add("title", msgMaxLength(MaxTitleLength))
		}
	}

	if in.TimeMinutes != nil && *in.TimeMinutes < 0 {
		fe.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
	}

	if in.Price != nil {
		for _, msg := range validatePrice(*in.Price) {
			fe.Add("price", msg)
		}
	}

	var link string
	if in.Link != nil {
		link = strings.TrimSpace(*in.Link)
		if utf8.RuneCountInString(link) > MaxLinkLength {
			fe.Add("link", msgMaxLength(MaxLinkLength))
		}
	}

	if err := fe.Err(); err != nil {
		return err
	}

	if in.Title != nil {
		recipe.Title = title
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = in.Price.Round(PriceDecimalPlaces)
	}
	if in.Link != nil {
		recipe.Link = link
	}
	if in.Description != nil {
		recipe.Description = strings.TrimSpace(*in.Description)
	}

	return nil
}

// validatePrice enforces the column's precision. Trailing zeros don't
// count against the decimal places ("5.990" is fine, "5.999" is not).
//
// The bounds are decided from the coefficient's digit count and the
// exponent alone. Truncate and Cmp rescale to 10^|exponent|, and a price
// like 1e-2000000000 parses fine, so no rescaling happens until the
// exponent is known to be within a few digits of the coefficient.
func validatePrice(p decimal.Decimal) []string {
	var msgs []string

	coef := p.Coefficient()
	if coef.Sign() == 0 {
		return nil
	}
	if p.IsNegative() {
		msgs = append(msgs, "Ensure this value is greater than or equal to 0.")
	}

	digits := len(coef.Abs(coef).String())
	exp := int(p.Exponent())

	// Digits left of the point must fit PriceMaxDigits-PriceDecimalPlaces (< 1000.00).
	if digits+exp > PriceMaxDigits-PriceDecimalPlaces {
		msgs = append(msgs, fmt.Sprintf("Ensure that there are no more than %d digits in total.", PriceMaxDigits))
	}

	// A non-zero coefficient of n digits can't be a multiple of 10^n, so past
	// that point there are necessarily too many decimal places.
	switch {
	case exp >= -PriceDecimalPlaces:
	case -exp-PriceDecimalPlaces >= digits, !p.Equal(p.Truncate(PriceDecimalPlaces)):
		msgs = append(msgs, fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceDecimalPlaces))
	}

	return msgs
}
