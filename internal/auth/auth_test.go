package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/auth"
)

type directory map[uuid.UUID]*actor.Actor

func (d directory) Get(_ context.Context, id uuid.UUID) (*actor.Actor, error) {
	a, ok := d[id]
	if !ok {
		return nil, actor.ErrNotFound
	}

	return a, nil
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := auth.NewTokens("s3cret", "missions", time.Hour)
	id := uuid.New()

	raw, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokens_Parse_Rejects(t *testing.T) {
	tokens := auth.NewTokens("s3cret", "missions", time.Hour)
	id := uuid.New()

	sign := func(method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
		raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)

		return raw
	}

	valid := jwt.RegisteredClaims{
		Subject:   id.String(),
		Issuer:    "missions",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "garbage", raw: "not-a-token"},
		{name: "wrong secret", raw: sign(jwt.SigningMethodHS256, []byte("other"), valid)},
		{name: "wrong algorithm", raw: sign(jwt.SigningMethodHS512, []byte("s3cret"), valid)},
		{
			name: "expired",
			raw: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{
				Subject:   id.String(),
				Issuer:    "missions",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			}),
		},
		{
			name: "no expiry",
			raw:  sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: id.String(), Issuer: "missions"}),
		},
		{
			name: "foreign issuer",
			raw: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{
				Subject:   id.String(),
				Issuer:    "elsewhere",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
		},
		{
			name: "subject is not a uuid",
			raw: sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{
				Subject:   "M0042",
				Issuer:    "missions",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Parse(tt.raw)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	tokens := auth.NewTokens("s3cret", "missions", time.Hour)

	active := &actor.Actor{ID: uuid.New(), Name: "Awa", Active: true}
	disabled := &actor.Actor{ID: uuid.New(), Name: "Moussa"}
	dir := directory{active.ID: active, disabled.ID: disabled}

	issue := func(id uuid.UUID) string {
		raw, err := tokens.Issue(id)
		require.NoError(t, err)

		return raw
	}

	var seen *actor.Actor

	h := tokens.Middleware(dir)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = actor.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  *actor.Actor
	}{
		{name: "valid token", header: "Bearer " + issue(active.ID), wantStatus: http.StatusNoContent, wantActor: active},
		{name: "lowercase scheme", header: "bearer " + issue(active.ID), wantStatus: http.StatusNoContent, wantActor: active},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "unknown actor", header: "Bearer " + issue(uuid.New()), wantStatus: http.StatusUnauthorized},
		{name: "disabled actor", header: "Bearer " + issue(disabled.ID), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantActor, seen)
		})
	}
}
