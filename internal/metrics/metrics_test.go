package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad2m/missions/internal/metrics"
	"github.com/ad2m/missions/internal/mission"
)

func scrape(t *testing.T) string {
	t.Helper()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	return string(body)
}

func TestRecorder_CountsTransitions(t *testing.T) {
	var r metrics.Recorder

	e := mission.Event{Action: mission.ActionApproveCoordinator, To: mission.StatusValidatedCoordinator}
	require.NoError(t, r.MissionChanged(context.Background(), e))
	require.NoError(t, r.MissionChanged(context.Background(), e))

	assert.Contains(t, scrape(t), `missions_transitions_total{action="approve_coordinator",to="validated_coordinator"} 2`)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/probe/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Contains(t, scrape(t), `http_requests_total{method="GET",route="/probe/{id}",status="418"} 3`)
}
