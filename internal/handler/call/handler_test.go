package call

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-guardian/backend/internal/analysis/reply"
	model "github.com/zhouzirui/z-guardian/backend/internal/model/call"
	callService "github.com/zhouzirui/z-guardian/backend/internal/service/call"
	"github.com/zhouzirui/z-guardian/backend/internal/service/history"
	"github.com/zhouzirui/z-guardian/backend/internal/timer"
)

type fixture struct {
	router  *chi.Mux
	clock   *timer.Manual
	calls   *callService.Manager
	history *history.MemoryStore
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	clock := timer.NewManual(time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC))
	store := history.NewMemoryStore(0)
	calls := callService.NewManager(callService.ManagerOptions{
		Scheduler: clock,
		History:   store,
		NewRand:   func() reply.Rand { return rand.New(rand.NewPCG(1, 2)) },
		Logger:    zerolog.Nop(),
	})

	r := chi.NewRouter()
	r.Route("/calls", New(calls, zerolog.Nop()).RegisterRoutes)
	return &fixture{router: r, clock: clock, calls: calls, history: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) start(t *testing.T, body any) model.State {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/calls", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var state model.State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	return state
}

func TestStartCallReturnsGreeting(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, map[string]string{"aiName": "Jordan"})

	assert.NotEmpty(t, state.ID)
	assert.Equal(t, model.PhaseActive, state.Phase)
	assert.Equal(t, "Jordan", state.AIName)
	assert.Equal(t, callService.DefaultCodeWord, state.CodeWord)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, callService.Greeting, state.Messages[0].Text)
}

func TestStartCallWithoutBody(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)
	assert.Equal(t, callService.DefaultAIName, state.AIName)
}

func TestStartCallRejectsInvalidBody(t *testing.T) {
	f := setupRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUnknownCallIsNotFound(t *testing.T) {
	f := setupRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/calls/missing"},
		{http.MethodDelete, "/calls/missing"},
		{http.MethodPost, "/calls/missing/messages"},
		{http.MethodPost, "/calls/missing/toggles/mute"},
		{http.MethodPost, "/calls/missing/code-word/save"},
	} {
		resp := f.do(t, tc.method, tc.path, map[string]string{})
		assert.Equal(t, http.StatusNotFound, resp.Code, tc.path)
	}
}

func TestSendMessageDoesNotRevealDetection(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)

	resp := f.do(t, http.MethodPost, "/calls/"+state.ID+"/messages", map[string]string{"text": "I really want pineapple pizza"})
	require.Equal(t, http.StatusAccepted, resp.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &raw))
	assert.ElementsMatch(t, []string{"sent", "message"}, keys(raw))

	var result SendResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.True(t, result.Sent)
	assert.Equal(t, "I really want pineapple pizza", result.Message.Text)
	assert.Equal(t, model.SenderUser, result.Message.Sender)

	snap := f.do(t, http.MethodGet, "/calls/"+state.ID, nil)
	var after model.State
	require.NoError(t, json.Unmarshal(snap.Body.Bytes(), &after))
	assert.True(t, after.HasAlerts)
	require.Len(t, after.Messages, 3)
	assert.Equal(t, model.SenderAssistant, after.Messages[2].Sender)
}

func TestSendBlankMessageIsNoop(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)

	resp := f.do(t, http.MethodPost, "/calls/"+state.ID+"/messages", map[string]string{"text": "   "})
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.JSONEq(t, `{"sent":false}`, resp.Body.String())

	session, err := f.calls.Get(state.ID)
	require.NoError(t, err)
	assert.Len(t, session.Snapshot().Messages, 1)
}

func TestDraftThenSendWithoutText(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)

	resp := f.do(t, http.MethodPut, "/calls/"+state.ID+"/draft", map[string]string{"text": "hello there"})
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.do(t, http.MethodPost, "/calls/"+state.ID+"/messages", nil)
	require.Equal(t, http.StatusAccepted, resp.Code)
	var result SendResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.True(t, result.Sent)
	assert.Equal(t, "hello there", result.Message.Text)

	session, err := f.calls.Get(state.ID)
	require.NoError(t, err)
	assert.Empty(t, session.Snapshot().Draft)
	assert.True(t, session.Snapshot().IsTyping)
}

func TestToggles(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)
	base := "/calls/" + state.ID + "/toggles/"

	cases := []struct {
		control string
		enabled bool
	}{
		{"mute", true},
		{"mute", false},
		{"video", true},
		{"voice", false},
	}
	for _, tc := range cases {
		resp := f.do(t, http.MethodPost, base+tc.control, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		var result ToggleResult
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
		assert.Equal(t, tc.control, result.Control)
		assert.Equal(t, tc.enabled, result.Enabled, tc.control)
		assert.Nil(t, result.Seconds)
	}

	resp := f.do(t, http.MethodPost, base+"recording", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"control":"recording","enabled":true}`, resp.Body.String())

	f.clock.Advance(12 * time.Second)
	resp = f.do(t, http.MethodPost, base+"recording", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"control":"recording","enabled":false,"seconds":12}`, resp.Body.String())

	resp = f.do(t, http.MethodPost, base+"speaker", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCodeWordStageAndSave(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)
	base := "/calls/" + state.ID + "/code-word"

	resp := f.do(t, http.MethodPut, base, map[string]string{"codeWord": "  mango  "})
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = f.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"saved":true,"codeWord":"mango"}`, resp.Body.String())

	resp = f.do(t, http.MethodPut, base, map[string]string{"codeWord": "   "})
	require.Equal(t, http.StatusNoContent, resp.Code)
	resp = f.do(t, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"saved":false,"codeWord":"mango"}`, resp.Body.String())
}

func TestEndCallReturnsSummary(t *testing.T) {
	f := setupRouter(t)
	state := f.start(t, nil)

	f.do(t, http.MethodPost, "/calls/"+state.ID+"/messages", map[string]string{"text": "hi"})
	f.clock.Advance(7 * time.Second)

	resp := f.do(t, http.MethodDelete, "/calls/"+state.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var summary model.Summary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.Equal(t, 7, summary.DurationSeconds)
	assert.Equal(t, 3, summary.MessageCount)
	assert.False(t, summary.HasAlerts)

	entries, err := f.history.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, state.ID, entries[0].SessionID)

	resp = f.do(t, http.MethodDelete, "/calls/"+state.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListCalls(t *testing.T) {
	f := setupRouter(t)
	f.start(t, nil)
	f.start(t, nil)

	resp := f.do(t, http.MethodGet, "/calls", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var states []model.State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &states))
	assert.Len(t, states, 2)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(callService.ErrSessionNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(callService.ErrNotActive))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
