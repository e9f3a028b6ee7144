package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func doRequest(t *testing.T, h httprouter.Handle, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestRateLimitBurstThenRejects(t *testing.T) {
	h := RateLimit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < burst; i++ {
		rec := doRequest(t, h, "10.0.0.1:5000")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i)
	}

	rec := doRequest(t, h, "10.0.0.1:5000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitIsPerClient(t *testing.T) {
	h := RateLimit(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < burst; i++ {
		doRequest(t, h, "10.0.0.2:5000")
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, h, "10.0.0.2:5000").Code)

	// A different client keeps its own bucket.
	assert.Equal(t, http.StatusOK, doRequest(t, h, "10.0.0.3:5000").Code)
}
