package mission

import (
	"time"

	"github.com/google/uuid"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/mission"
)

type missionResponse struct {
	ID                    uuid.UUID        `json:"id"`
	RequesterID           uuid.UUID        `json:"requester_id"`
	AssignedApproverID    *uuid.UUID       `json:"assigned_approver_id"`
	ChiefApproverID       *uuid.UUID       `json:"chief_approver_id"`
	FinanceApproverID     *uuid.UUID       `json:"finance_approver_id"`
	CoordinatorApproverID *uuid.UUID       `json:"coordinator_approver_id"`
	Subject               string           `json:"subject"`
	Destination           string           `json:"destination"`
	Purpose               string           `json:"purpose,omitempty"`
	TransportMode         string           `json:"transport_mode,omitempty"`
	StartDate             *string          `json:"start_date"`
	EndDate               *string          `json:"end_date"`
	RequestedAdvance      *string          `json:"requested_advance"`
	TotalJustified        *string          `json:"total_justified"`
	AmountToReimburse     *string          `json:"amount_to_reimburse"`
	Status                mission.Status   `json:"status"`
	DocumentsReconciled   bool             `json:"documents_reconciled"`
	ReconciledAt          *time.Time       `json:"reconciled_at,omitempty"`
	ReconciliationNote    string           `json:"reconciliation_note,omitempty"`
	ClosedAt              *time.Time       `json:"closed_at,omitempty"`
	AvailableActions      []mission.Action `json:"available_actions"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             *time.Time       `json:"updated_at,omitempty"`
}

func toResponse(a *actor.Actor, m *mission.Mission) missionResponse {
	actions := mission.AvailableActions(a, m)
	if actions == nil {
		actions = []mission.Action{}
	}

	resp := missionResponse{
		ID:                    m.ID,
		RequesterID:           m.RequesterID,
		AssignedApproverID:    m.AssignedApproverID,
		ChiefApproverID:       m.ChiefApproverID,
		FinanceApproverID:     m.FinanceApproverID,
		CoordinatorApproverID: m.CoordinatorApproverID,
		Subject:               m.Subject,
		Destination:           m.Destination,
		Purpose:               m.Purpose,
		TransportMode:         m.TransportMode,
		StartDate:             formatDate(m.StartDate),
		EndDate:               formatDate(m.EndDate),
		Status:                m.Status,
		DocumentsReconciled:   m.DocumentsReconciled,
		ReconciledAt:          m.ReconciledAt,
		ReconciliationNote:    m.ReconciliationNote,
		ClosedAt:              m.ClosedAt,
		AvailableActions:      actions,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}

	if m.RequestedAdvance != nil {
		resp.RequestedAdvance = new(m.RequestedAdvance.StringFixed(2))
	}

	if m.TotalJustified != nil {
		resp.TotalJustified = new(m.TotalJustified.StringFixed(2))
	}

	if m.AmountToReimburse != nil {
		resp.AmountToReimburse = new(m.AmountToReimburse.StringFixed(2))
	}

	return resp
}

func toResponseList(a *actor.Actor, missions []*mission.Mission) []missionResponse {
	resp := make([]missionResponse, len(missions))
	for i, m := range missions {
		resp[i] = toResponse(a, m)
	}

	return resp
}

type advanceResponse struct {
	ID               uuid.UUID             `json:"id"`
	MissionID        uuid.UUID             `json:"mission_id"`
	Amount           string                `json:"amount"`
	Kind             mission.OperationKind `json:"kind"`
	OperationDate    string                `json:"operation_date"`
	PaymentReference string                `json:"payment_reference,omitempty"`
	RecordedByID     uuid.UUID             `json:"recorded_by_id"`
	CreatedAt        time.Time             `json:"created_at"`
}

func toAdvanceResponse(a *mission.Advance) advanceResponse {
	return advanceResponse{
		ID:               a.ID,
		MissionID:        a.MissionID,
		Amount:           a.Amount.StringFixed(2),
		Kind:             a.Kind,
		OperationDate:    a.OperationDate.Format(time.DateOnly),
		PaymentReference: a.PaymentReference,
		RecordedByID:     a.RecordedByID,
		CreatedAt:        a.CreatedAt,
	}
}

func toAdvanceList(advances []*mission.Advance) []advanceResponse {
	resp := make([]advanceResponse, len(advances))
	for i, a := range advances {
		resp[i] = toAdvanceResponse(a)
	}

	return resp
}

type activityResponse struct {
	ID        uuid.UUID      `json:"id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Action    mission.Action `json:"action"`
	From      mission.Status `json:"from"`
	To        mission.Status `json:"to"`
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toActivityList(activities []*mission.Activity) []activityResponse {
	resp := make([]activityResponse, len(activities))
	for i, a := range activities {
		resp[i] = activityResponse{
			ID:        a.ID,
			ActorID:   a.ActorID,
			Action:    a.Action,
			From:      a.From,
			To:        a.To,
			Note:      a.Note,
			CreatedAt: a.CreatedAt,
		}
	}

	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}

	return new(t.Format(time.DateOnly))
}
