package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/dashboard"
	"github.com/ad2m/missions/internal/http/respond"
	"github.com/ad2m/missions/internal/mission"
)

type Handler struct {
	svc *dashboard.Service
}

func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
}

type recentMission struct {
	ID          uuid.UUID      `json:"id"`
	Subject     string         `json:"subject"`
	Destination string         `json:"destination"`
	Status      mission.Status `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

type summaryResponse struct {
	Total        int                    `json:"total"`
	ByStatus     map[mission.Status]int `json:"by_status"`
	Todo         int                    `json:"todo"`
	TodoStatuses []mission.Status       `json:"todo_statuses"`
	Recent       []recentMission        `json:"recent"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), actor.FromContext(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := summaryResponse{
		Total:        sum.Total,
		ByStatus:     sum.ByStatus,
		Todo:         sum.Todo,
		TodoStatuses: sum.TodoStatuses,
		Recent:       make([]recentMission, 0, len(sum.Recent)),
	}

	if resp.TodoStatuses == nil {
		resp.TodoStatuses = []mission.Status{}
	}

	for _, m := range sum.Recent {
		resp.Recent = append(resp.Recent, recentMission{
			ID:          m.ID,
			Subject:     m.Subject,
			Destination: m.Destination,
			Status:      m.Status,
			CreatedAt:   m.CreatedAt,
		})
	}

	respond.JSON(w, http.StatusOK, resp)
}
