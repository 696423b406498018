package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/samcwaters/recipe-app-api/internal/apperror"
	"github.com/samcwaters/recipe-app-api/internal/auth"
	"github.com/samcwaters/recipe-app-api/internal/model"
	"github.com/samcwaters/recipe-app-api/internal/service"
)

// RecipeSummary is the list representation of a recipe.
//
// Price is a string with exactly two decimal places ("5.00", never "5"),
// so clients never see float rounding.
type RecipeSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
}

// RecipeDetail is the single-recipe representation: the summary fields
// plus the description. Embedding flattens the summary into the same
// JSON object.
type RecipeDetail struct {
	RecipeSummary
	Description string `json:"description"`
}

func newRecipeSummary(r *model.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(service.PriceDecimalPlaces),
		Link:        r.Link,
	}
}

func newRecipeDetail(r *model.Recipe) RecipeDetail {
	return RecipeDetail{
		RecipeSummary: newRecipeSummary(r),
		Description:   r.Description,
	}
}

// maxNumberBytes bounds a raw price or time_minutes value. Anything
// longer can't be a valid one and isn't worth parsing.
const maxNumberBytes = 64

// recipeRequest is the create/update payload. Pointer fields tell "absent"
// apart from zero values. Price and time_minutes stay raw so they can be
// given as numbers (5.99, 30) or numeric strings ("5.99", "30") and still
// report errors against their own field.
// There is deliberately no owner field.
type recipeRequest struct {
	Title       *string         `json:"title"`
	TimeMinutes json.RawMessage `json:"time_minutes"`
	Price       json.RawMessage `json:"price"`
	Link        *string         `json:"link"`
	Description *string         `json:"description"`
}

func (req recipeRequest) toInput() (service.RecipeInput, error) {
	in := service.RecipeInput{
		Title:       req.Title,
		Link:        req.Link,
		Description: req.Description,
	}

	var fe apperror.FieldErrors
	if raw, ok := rawValue(req.TimeMinutes); ok {
		n, err := parseInt(raw)
		if err != nil {
			fe.Add("time_minutes", "A valid integer is required.")
		} else {
			in.TimeMinutes = &n
		}
	}
	if raw, ok := rawValue(req.Price); ok {
		p, err := parseDecimal(raw)
		if err != nil {
			fe.Add("price", "A valid number is required.")
		} else {
			in.Price = &p
		}
	}

	return in, fe.Err()
}

// rawValue trims raw and reports whether it holds a value at all;
// absent and null both mean "not sent".
func rawValue(raw json.RawMessage) ([]byte, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

// unquoteNumber accepts a JSON number or a string holding one.
func unquoteNumber(raw []byte) (string, error) {
	if len(raw) > maxNumberBytes {
		return "", errors.New("number too long")
	}
	if raw[0] != '"' {
		return string(raw), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func parseInt(raw []byte) (int, error) {
	s, err := unquoteNumber(raw)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func parseDecimal(raw []byte) (decimal.Decimal, error) {
	s, err := unquoteNumber(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

// RecipeHandler serves the /api/recipes/ resource. Every action works on
// the authenticated caller's recipes only; RequireAuth must run first.
//
// List uses the summary representation; retrieve, create and update
// answer with the detail representation.
type RecipeHandler struct {
	recipes *service.RecipeService
	logger  *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipes *service.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, logger: logger}
}

// HandleList returns the caller's recipes, newest first.
//
// HTTP: GET /api/recipes/?limit=10&offset=0
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	recipes, err := h.recipes.List(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]RecipeSummary, 0, len(recipes))
	for i := range recipes {
		out = append(out, newRecipeSummary(&recipes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreate stores a new recipe owned by the caller.
//
// HTTP: POST /api/recipes/
// REQUEST BODY: {"title": "Sample recipe", "time_minutes": 30, "price": 5.99}
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	in, err := h.decodeInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), ownerID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newRecipeDetail(recipe))
}

// HandleGet returns one of the caller's recipes.
//
// HTTP: GET /api/recipes/{id}/
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := recipeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Get(r.Context(), ownerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecipeDetail(recipe))
}

// HandleUpdate replaces a recipe's fields.
//
// HTTP: PUT /api/recipes/{id}/
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// HandlePartialUpdate changes only the fields present in the body.
//
// HTTP: PATCH /api/recipes/{id}/
func (h *RecipeHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := recipeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := h.decodeInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), ownerID, id, in, partial)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRecipeDetail(recipe))
}

// HandleDelete removes one of the caller's recipes.
//
// HTTP: DELETE /api/recipes/{id}/
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := recipeID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), ownerID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) decodeInput(w http.ResponseWriter, r *http.Request) (service.RecipeInput, error) {
	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Debug("invalid recipe payload", slog.String("error", err.Error()))
		return service.RecipeInput{}, err
	}
	return req.toInput()
}

// recipeID parses the {id} URL parameter. Anything that isn't a positive
// integer can't name a recipe, so it is reported as not found.
func recipeID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("recipe", raw)
	}
	return id, nil
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, "A valid integer is required.")
	}
	return n, nil
}

// requireUser pulls the caller's ID out of the context. RequireAuth has
// already run on these routes, so a miss means the route was wired wrong.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication credentials were not provided."))
		return 0, false
	}
	return userID, true
}
