package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPutAndServe(t *testing.T) {
	m := NewMemory("http://localhost:8080/")

	url, err := m.Put(context.Background(), "certificates/ABCD1234.pdf", "application/pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/certificates/ABCD1234.pdf", url)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/certificates/ABCD1234.pdf", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", rr.Body.String())

	rr = httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMemoryFailure(t *testing.T) {
	m := NewMemory("http://localhost")
	m.Err = errors.New("bucket unreachable")

	_, err := m.Put(context.Background(), "k", "application/pdf", nil)
	assert.Error(t, err)
	_, _, err = m.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)
}
