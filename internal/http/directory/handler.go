package directory

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/http/respond"
	"github.com/ad2m/missions/internal/mission"
	"github.com/ad2m/missions/internal/roster"
)

const maxRosterSize = 10 << 20

// Importer loads a roster export into the directory.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (*roster.Report, error)
}

type Handler struct {
	importer Importer
}

func NewHandler(importer Importer) *Handler {
	return &Handler{importer: importer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/roster/import", h.importRoster)
}

type actorResponse struct {
	ID        uuid.UUID    `json:"id"`
	Matricule string       `json:"matricule"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Roles     []actor.Role `json:"roles"`
	ReportsTo *uuid.UUID   `json:"reports_to"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
}

func toActorResponse(a *actor.Actor) actorResponse {
	roles := a.Roles
	if roles == nil {
		roles = []actor.Role{}
	}

	return actorResponse{
		ID:        a.ID,
		Matricule: a.Matricule,
		Name:      a.Name,
		Email:     a.Email,
		Roles:     roles,
		ReportsTo: a.ReportsTo,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if a == nil {
		respond.Error(w, r, mission.ErrUnauthenticated)
		return
	}

	respond.JSON(w, http.StatusOK, toActorResponse(a))
}

type rowErrorResponse struct {
	Row       int    `json:"row"`
	Matricule string `json:"matricule"`
	Error     string `json:"error"`
}

type importResponse struct {
	Charset  string             `json:"charset"`
	Read     int                `json:"read"`
	Imported []actorResponse    `json:"imported"`
	Failed   []rowErrorResponse `json:"failed"`
}

func (h *Handler) importRoster(w http.ResponseWriter, r *http.Request) {
	a := actor.FromContext(r.Context())
	if a == nil {
		respond.Error(w, r, mission.ErrUnauthenticated)
		return
	}

	if !a.IsAdmin() {
		respond.Error(w, r, &mission.Error{Kind: mission.KindForbidden, Message: "only administrators can import the roster"})
		return
	}

	if err := r.ParseMultipartForm(maxRosterSize); err != nil {
		respond.BadRequest(w, r, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, r, "file field is required")
		return
	}
	defer file.Close()

	report, err := h.importer.Import(r.Context(), file)
	if err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	resp := importResponse{
		Charset:  string(report.Sheet.Charset),
		Read:     len(report.Sheet.Entries),
		Imported: make([]actorResponse, 0, len(report.Imported)),
		Failed:   make([]rowErrorResponse, 0, len(report.Failed)),
	}

	for _, imported := range report.Imported {
		resp.Imported = append(resp.Imported, toActorResponse(imported))
	}

	for _, f := range report.Failed {
		resp.Failed = append(resp.Failed, rowErrorResponse{Row: f.Row, Matricule: f.Matricule, Error: f.Err.Error()})
	}

	status := http.StatusCreated
	if len(report.Failed) > 0 {
		status = http.StatusMultiStatus
	}

	respond.JSON(w, status, resp)
}
