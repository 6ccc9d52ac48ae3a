package devserver_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/faculty-cache/internal/devserver"
	"github.com/krisalay/faculty-cache/types"
)

func serve(s *devserver.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestGetDocument(t *testing.T) {
	s := devserver.New()
	s.Seed("a@x", types.Document{"awards": types.List(types.Record{"id": "w1"})})

	rec := serve(s, http.MethodGet, "/faculty/a@x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"awards":[{"id":"w1"}]}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/faculty/b@x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, s.Fetches("b@x"))
}

func TestPutSection(t *testing.T) {
	s := devserver.New()

	rec := serve(s, http.MethodPut, "/faculty/a@x/sections/about", `{"bio":"hi"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	doc, ok := s.Document("a@x")
	require.True(t, ok)
	assert.Equal(t, types.KindSingleton, doc["about"].Kind)

	rec = serve(s, http.MethodPut, "/faculty/a@x/sections/about", `42`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFailNext(t *testing.T) {
	s := devserver.New()
	s.Seed("a@x", types.Document{})
	s.FailNext("a@x", 2)

	assert.Equal(t, http.StatusServiceUnavailable, serve(s, http.MethodGet, "/faculty/a@x", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, http.MethodGet, "/faculty/a@x", "").Code)
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/faculty/a@x", "").Code)
}
