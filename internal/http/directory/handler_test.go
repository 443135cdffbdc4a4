package directory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad2m/missions/internal/actor"
	"github.com/ad2m/missions/internal/encoding"
	"github.com/ad2m/missions/internal/http/directory"
	"github.com/ad2m/missions/internal/roster"
)

type importerFunc func(ctx context.Context, r io.Reader) (*roster.Report, error)

func (f importerFunc) Import(ctx context.Context, r io.Reader) (*roster.Report, error) {
	return f(ctx, r)
}

func serve(t *testing.T, as *actor.Actor, importer directory.Importer, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if as != nil {
				req = req.WithContext(actor.WithActor(req.Context(), as))
			}

			next.ServeHTTP(w, req)
		})
	})
	directory.NewHandler(importer).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func upload(t *testing.T, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/roster/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHandler_Me(t *testing.T) {
	a := &actor.Actor{ID: uuid.New(), Matricule: "C001", Name: "Kouadio Serge", Roles: []actor.Role{actor.RoleChief}, Active: true}

	rec := serve(t, a, nil, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "C001", body["matricule"])
	assert.Equal(t, []any{"chef_hierarchique"}, body["roles"])

	rec = serve(t, nil, nil, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ImportRoster(t *testing.T) {
	admin := &actor.Actor{ID: uuid.New(), Roles: []actor.Role{actor.RoleAdmin}, Active: true}
	finance := &actor.Actor{ID: uuid.New(), Roles: []actor.Role{actor.RoleFinance}, Active: true}

	imported := &actor.Actor{ID: uuid.New(), Matricule: "F001", Roles: []actor.Role{actor.RoleFinance}, Active: true}

	tests := []struct {
		name       string
		as         *actor.Actor
		importer   directory.Importer
		req        func(t *testing.T) *http.Request
		wantStatus int
	}{
		{
			name: "admin imports everything",
			as:   admin,
			importer: importerFunc(func(_ context.Context, r io.Reader) (*roster.Report, error) {
				b, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Contains(t, string(b), "F001")

				return &roster.Report{
					Sheet:    &roster.Sheet{Charset: encoding.CharsetUTF8, Entries: []roster.Entry{{Row: 2, Matricule: "F001"}}},
					Imported: []*actor.Actor{imported},
				}, nil
			}),
			req:        func(t *testing.T) *http.Request { return upload(t, "matricule;nom;role\nF001;Traoré;raf\n") },
			wantStatus: http.StatusCreated,
		},
		{
			name: "partial import",
			as:   admin,
			importer: importerFunc(func(context.Context, io.Reader) (*roster.Report, error) {
				return &roster.Report{
					Sheet:  &roster.Sheet{Charset: encoding.CharsetUTF8},
					Failed: []roster.RowError{{Row: 3, Matricule: "M011", Err: assert.AnError}},
				}, nil
			}),
			req:        func(t *testing.T) *http.Request { return upload(t, "x") },
			wantStatus: http.StatusMultiStatus,
		},
		{
			name: "unreadable roster",
			as:   admin,
			importer: importerFunc(func(context.Context, io.Reader) (*roster.Report, error) {
				return nil, assert.AnError
			}),
			req:        func(t *testing.T) *http.Request { return upload(t, "x") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing file",
			as:         admin,
			req:        func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodPost, "/roster/import", nil) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non admin",
			as:         finance,
			req:        func(t *testing.T) *http.Request { return upload(t, "x") },
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.as, tt.importer, tt.req(t))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
