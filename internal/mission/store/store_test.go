package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ad2m/missions/internal/mission"
)

func TestWhereClause(t *testing.T) {
	id := uuid.MustParse("5f0c3a3e-8d4f-4a36-9d43-0d6f1a2b3c4d")
	pending := mission.StatusPendingChief

	tests := []struct {
		name     string
		filter   mission.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "everything",
			filter:  mission.ListFilter{},
			wantSQL: "TRUE",
		},
		{
			name:     "own missions with status",
			filter:   mission.ListFilter{RequesterID: &id, Status: &pending},
			wantSQL:  "TRUE AND m.requester_id = $1 AND m.status = $2",
			wantArgs: []any{id, "pending_chief"},
		},
		{
			name:     "restricted chief reuses one placeholder",
			filter:   mission.ListFilter{ParticipantID: &id},
			wantSQL:  "TRUE AND (m.requester_id = $1 OR m.assigned_approver_id = $1 OR m.approved_by_chief_id = $1)",
			wantArgs: []any{id},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := whereClause(tt.filter)

			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
