package utils

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "call session not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"call session not found"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var payload struct {
		Text string `json:"text"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, DecodeJSON(req, &payload))
	assert.Equal(t, "hi", payload.Text)

	empty := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.NoError(t, DecodeJSON(empty, &payload))

	unknown := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"txt":"hi"}`))
	assert.Error(t, DecodeJSON(unknown, &payload))
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SendSSEEvent(rec, rec, "3", "message", map[string]string{"text": "hey"}))
	require.NoError(t, SendSSEEvent(rec, rec, "", "tick", 4))

	assert.Equal(t, "id: 3\nevent: message\ndata: {\"text\":\"hey\"}\n\nevent: tick\ndata: 4\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSendSSEComment(t *testing.T) {
	var buf bytes.Buffer
	rec := httptest.NewRecorder()
	rec.Body = &buf
	require.NoError(t, SendSSEComment(rec, rec, "ping"))
	assert.Equal(t, ": ping\n\n", buf.String())
}
