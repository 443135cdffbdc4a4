package mission

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/http/respond"
	"github.com/ad2m/missions/internal/metrics"
	"github.com/ad2m/missions/internal/mission"
)

type Handler struct {
	svc *mission.Service
}

func NewHandler(svc *mission.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/actions/{action}", h.transition)
	r.Get("/{id}/advances", h.listAdvances)
	r.Post("/{id}/advances", h.recordPayment)
	r.Get("/{id}/history", h.history)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := mission.ListOptions{}

	if s := q.Get("mine"); s != "" {
		mine, err := strconv.ParseBool(s)
		if err != nil {
			respond.BadRequest(w, r, "mine must be a boolean")
			return
		}

		opts.Mine = mine
	}

	if s := q.Get("status"); s != "" {
		opts.Status = new(mission.Status(s))
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			respond.BadRequest(w, r, "limit must be a positive integer")
			return
		}

		opts.Limit = limit
	}

	a := actor.FromContext(r.Context())

	missions, err := h.svc.List(r.Context(), a, opts)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(a, missions))
}

type draftRequest struct {
	Subject          *string          `json:"subject"`
	Destination      *string          `json:"destination"`
	Purpose          *string          `json:"purpose"`
	TransportMode    *string          `json:"transport_mode"`
	StartDate        *string          `json:"start_date"`
	EndDate          *string          `json:"end_date"`
	RequestedAdvance *decimal.Decimal `json:"requested_advance"`
}

func (req draftRequest) toUpdate() (mission.DraftUpdate, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return mission.DraftUpdate{}, err
	}

	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return mission.DraftUpdate{}, err
	}

	return mission.DraftUpdate{
		Subject:          req.Subject,
		Destination:      req.Destination,
		Purpose:          req.Purpose,
		TransportMode:    req.TransportMode,
		StartDate:        start,
		EndDate:          end,
		RequestedAdvance: req.RequestedAdvance,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	params := mission.DraftParams{
		StartDate:        update.StartDate,
		EndDate:          update.EndDate,
		RequestedAdvance: update.RequestedAdvance,
	}

	if req.Subject != nil {
		params.Subject = *req.Subject
	}

	if req.Destination != nil {
		params.Destination = *req.Destination
	}

	if req.Purpose != nil {
		params.Purpose = *req.Purpose
	}

	if req.TransportMode != nil {
		params.TransportMode = *req.TransportMode
	}

	a := actor.FromContext(r.Context())

	m, err := h.svc.CreateDraft(r.Context(), a, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	metrics.RecordDraftCreated()

	w.Header().Set("Location", "/api/v1/missions/"+m.ID.String())
	respond.JSON(w, http.StatusCreated, toResponse(a, m))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	a := actor.FromContext(r.Context())

	m, err := h.svc.Get(r.Context(), a, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a, m))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	var req draftRequest
	if err := decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	a := actor.FromContext(r.Context())

	m, err := h.svc.UpdateDraft(r.Context(), a, id, update)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a, m))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actor.FromContext(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type transitionRequest struct {
	Note           string           `json:"note"`
	TotalJustified *decimal.Decimal `json:"total_justified"`
	paymentRequest
}

type paymentRequest struct {
	Amount           *decimal.Decimal `json:"amount"`
	OperationDate    *string          `json:"operation_date"`
	PaymentReference string           `json:"payment_reference"`
}

// toParams returns nil when no payment field was sent.
func (req paymentRequest) toParams() (*mission.PaymentParams, error) {
	if req.Amount == nil && req.OperationDate == nil && req.PaymentReference == "" {
		return nil, nil
	}

	p := &mission.PaymentParams{Reference: req.PaymentReference}

	if req.Amount != nil {
		p.Amount = *req.Amount
	}

	date, err := parseDate("operation_date", req.OperationDate)
	if err != nil {
		return nil, err
	}

	if date != nil {
		p.OperationDate = *date
	}

	return p, nil
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	action, known := mission.ParseAction(chi.URLParam(r, "action"))
	if !known {
		respond.BadRequest(w, r, fmt.Sprintf("unknown action %q", chi.URLParam(r, "action")))
		return
	}

	var req transitionRequest
	if err := decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	payment, err := req.toParams()
	if err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	a := actor.FromContext(r.Context())

	m, err := h.svc.Transition(r.Context(), a, id, action, mission.Payload{
		Note:           req.Note,
		TotalJustified: req.TotalJustified,
		Payment:        payment,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a, m))
}

func (h *Handler) listAdvances(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	advances, err := h.svc.ListLedger(r.Context(), actor.FromContext(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toAdvanceList(advances))
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	params, err := req.toParams()
	if err != nil {
		respond.BadRequest(w, r, err.Error())
		return
	}

	if params == nil {
		params = &mission.PaymentParams{}
	}

	advance, err := h.svc.RecordPayment(r.Context(), actor.FromContext(r.Context()), id, *params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toAdvanceResponse(advance))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := missionID(w, r)
	if !ok {
		return
	}

	activities, err := h.svc.History(r.Context(), actor.FromContext(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toActivityList(activities))
}

func missionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, r, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date formatted as YYYY-MM-DD", field)
	}

	return &t, nil
}
