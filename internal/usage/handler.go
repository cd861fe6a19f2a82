package usage

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quillforge/quillforge/internal/api"
	"github.com/quillforge/quillforge/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Get returns today's usage and limits for the dashboard quota meter.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	status, err := h.svc.GetStatus(r.Context(), userID, time.Now())
	if err != nil {
		slog.Error("fetching usage status", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusOK, status)
}
