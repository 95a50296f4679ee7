// Package http exposes the aggregated expense dataset over a read-only API.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "anscli/internal/errors"
	"anscli/internal/services"
)

// ExpenseHandler handles expense-dataset HTTP requests.
type ExpenseHandler struct {
	service  *services.ExpenseService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewExpenseHandler creates an expense handler over the given service.
func NewExpenseHandler(service *services.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "expense_handler")),
		validate: validator.New(),
	}
}

// Routes returns the expense API routes.
func (h *ExpenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/operadoras", h.ListOperators)
	r.Get("/estatisticas", h.GetStatistics)

	return r
}

// listQuery carries the validated pagination/search parameters.
type listQuery struct {
	Page   int    `validate:"min=1"`
	Limit  int    `validate:"min=1,max=100"`
	Search string `validate:"max=200"`
}

// ListOperators handles GET /api/operadoras with pagination and an optional
// case-insensitive search on Razao_Social.
func (h *ExpenseHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	query := listQuery{Page: 1, Limit: 10, Search: r.URL.Query().Get("search")}

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			h.renderError(w, r, apierrors.ErrValidation("page", "page must be an integer"))
			return
		}
		query.Page = page
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.renderError(w, r, apierrors.ErrValidation("limit", "limit must be an integer"))
			return
		}
		query.Limit = limit
	}

	if err := h.validate.Struct(query); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error()))
		return
	}

	page, err := h.service.List(r.Context(), query.Page, query.Limit, query.Search)
	if err != nil {
		h.logger.Error("failed to list operators", slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	render.JSON(w, r, page)
}

// GetStatistics handles GET /api/estatisticas.
func (h *ExpenseHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	statistics, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute statistics", slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	render.JSON(w, r, statistics)
}

func (h *ExpenseHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
