package articles

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quillforge/quillforge/internal/api"
	"github.com/quillforge/quillforge/internal/auth"
	"github.com/quillforge/quillforge/internal/usage"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// Generate handles POST /articles/generate. The success body shape
// {"article": {...}} and the 429 quota message are published contracts.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	article, err := h.svc.Generate(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, usage.ErrDailyLimitExceeded):
			api.HandleError(w, api.ErrDailyLimitReached)
		case errors.Is(err, usage.ErrBurstLimitExceeded):
			api.JSONErrorMessage(w, http.StatusTooManyRequests,
				"Too many generation requests. Please wait a moment and try again.")
		default:
			slog.Error("generating article", "error", err, "user_id", userID)
			api.JSONError(w, http.StatusInternalServerError, err)
		}
		return
	}

	api.JSONRaw(w, http.StatusOK, GenerateResponse{
		Article: GeneratedArticle{
			ID:        article.ID,
			Title:     article.Title,
			Content:   article.Content,
			WordCount: article.WordCount,
			SEOScore:  article.SEOScore,
			Status:    article.Status,
			CreatedAt: article.CreatedAt,
		},
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	params := DefaultListParams()
	if p := r.URL.Query().Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil && page > 0 {
			params.Page = page
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil && pageSize > 0 && pageSize <= 100 {
			params.PageSize = pageSize
		}
	}

	list, totalCount, err := h.svc.ListByUser(r.Context(), userID, params)
	if err != nil {
		slog.Error("listing articles", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONPaginated(w, http.StatusOK, list, totalCount, params.Page, params.PageSize)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	articleID, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid article ID"))
		return
	}

	article, err := h.svc.GetByID(r.Context(), articleID)
	if err != nil {
		slog.Error("fetching article", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if article == nil {
		api.HandleError(w, api.NewNotFoundError("article not found"))
		return
	}

	if article.UserID.String() != claims.UserID {
		slog.Warn("article ownership violation attempt",
			"article_id", articleID,
			"owner", article.UserID,
			"requester", claims.UserID,
		)
		api.HandleError(w, api.ErrForbidden)
		return
	}

	api.JSON(w, http.StatusOK, article)
}
