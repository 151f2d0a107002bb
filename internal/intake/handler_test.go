package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(oracle Oracle) chi.Router {
	svc := NewService(NewMemoryStore(), oracle, DefaultSchema(), nil)
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStartEndpoint(t *testing.T) {
	r := newTestRouter(&mockOracle{})

	rec := doJSON(t, r, http.MethodPost, "/start", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.NotEmpty(t, resp.ThreadID)
	require.Equal(t, OpeningMessage, resp.Response)
	require.False(t, resp.InformationComplete)
	require.False(t, resp.ShouldRequestImage)
	require.Len(t, resp.ChatHistory, 1)
}

func TestChatEndpointValidation(t *testing.T) {
	r := newTestRouter(&mockOracle{})

	rec := doJSON(t, r, http.MethodPost, "/chat", map[string]any{"message": "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/chat", map[string]any{"thread_id": "t1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointFlow(t *testing.T) {
	oracle := &mockOracle{fn: func(ctx context.Context, _ []Message, _ CollectedInfo, _ string) (*Extraction, error) {
		return &Extraction{
			Scalars:          map[string]string{FieldAge: "40", FieldGender: "female", FieldAffectedArea: "molar"},
			Symptoms:         map[string]string{SymptomPain: "yes"},
			SuggestedMessage: "Please send a photo of the affected area.",
		}, nil
	}}
	r := newTestRouter(oracle)

	rec := doJSON(t, r, http.MethodPost, "/chat", map[string]any{"thread_id": "t1", "message": "all my info"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.InformationComplete)
	require.True(t, resp.ShouldRequestImage)
	require.Equal(t, "40", resp.CollectedInfo.Age)
	require.Equal(t, "yes", resp.CollectedInfo.Symptoms[SymptomPain])
	require.Equal(t, "Please send a photo of the affected area.", resp.Response)
}

func TestStateEndpoint(t *testing.T) {
	r := newTestRouter(&mockOracle{})

	rec := doJSON(t, r, http.MethodGet, "/state/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// A read for an unknown session must not create it.
	rec = doJSON(t, r, http.MethodGet, "/state/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, r, http.MethodPost, "/start", map[string]any{"thread_id": "known"})
	rec = doJSON(t, r, http.MethodGet, "/state/known", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "known", resp["thread_id"])
	require.Equal(t, float64(1), resp["message_count"])
}

func TestRootEndpoint(t *testing.T) {
	r := newTestRouter(&mockOracle{})

	rec := doJSON(t, r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "dental-intake-agent", resp["service"])
	endpoints, ok := resp["endpoints"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, endpoints, "/chat")
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(&mockOracle{})

	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp["status"])
}
