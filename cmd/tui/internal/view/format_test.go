package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad2m/missions/internal/mission"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "  ", wantNil: true},
		{in: "25000", want: "25000"},
		{in: "12 500,50", want: "12500.5"},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, got)
				return
			}

			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestBuildPayload(t *testing.T) {
	in := &actionInput{amount: "15000", date: "2024-03-05", reference: " VIR-001 ", note: " ok "}

	p, err := buildPayload(mission.ActionRecordPayment, in)
	require.NoError(t, err)
	require.NotNil(t, p.Payment)
	assert.True(t, decimal.NewFromInt(15000).Equal(p.Payment.Amount))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), p.Payment.OperationDate)
	assert.Equal(t, "VIR-001", p.Payment.Reference)
	assert.Equal(t, "ok", p.Note)

	p, err = buildPayload(mission.ActionReconcileDocuments, &actionInput{justified: "9000"})
	require.NoError(t, err)
	require.NotNil(t, p.TotalJustified)
	assert.Equal(t, "9000", p.TotalJustified.String())

	_, err = buildPayload(mission.ActionRecordPayment, &actionInput{date: "05/03/2024"})
	assert.Error(t, err)
}

func TestFormatPeriod(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "-", FormatPeriod(&mission.Mission{}))
	assert.Equal(t, "2024-03-10 → -", FormatPeriod(&mission.Mission{StartDate: &start}))
	assert.Equal(t, "pending chief", StatusLabel(mission.StatusPendingChief))
}
