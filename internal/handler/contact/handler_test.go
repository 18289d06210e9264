package contact

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
)

type readOnlyStore struct{ contact.Store }

func setupRouter(store contact.Store) *chi.Mux {
	r := chi.NewRouter()
	New(store).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestListContacts(t *testing.T) {
	r := setupRouter(contact.NewMemoryStore(contact.Seed()))
	resp := serve(r, http.MethodGet, "/contacts", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var got []contact.EmergencyContact
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, contact.Seed(), got)
}

func TestGetContact(t *testing.T) {
	r := setupRouter(contact.NewMemoryStore(contact.Seed()))

	resp := serve(r, http.MethodGet, "/contacts/2", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Best Friend")

	resp = serve(r, http.MethodGet, "/contacts/9", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReplaceContacts(t *testing.T) {
	store := contact.NewMemoryStore(contact.Seed())
	r := setupRouter(store)

	resp := serve(r, http.MethodPut, "/contacts", `[{"id":"7","name":" Neighbor ","phone":"+1 (555) 000-1111","relationship":"Neighbor"}]`)
	require.Equal(t, http.StatusOK, resp.Code)
	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Neighbor", list[0].Name)

	resp = serve(r, http.MethodPut, "/contacts", `[{"id":"7","name":"","phone":"1"}]`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = serve(r, http.MethodPut, "/contacts", `[{"id":"1","name":"A","phone":"1"},{"id":"1","name":"B","phone":"2"}]`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Len(t, store.List(), 1)
}

func TestReplaceContactsReadOnlyStore(t *testing.T) {
	r := setupRouter(readOnlyStore{contact.NewMemoryStore(contact.Seed())})
	resp := serve(r, http.MethodPut, "/contacts", `[]`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}
