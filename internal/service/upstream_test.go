package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formation/internal/apiclient"

	"github.com/rs/zerolog"
)

// upstream is a stand-in for the REST API.
type upstream struct {
	mux    *http.ServeMux
	client *apiclient.Client
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &upstream{mux: mux, client: apiclient.New(srv.URL, 5*time.Second, zerolog.Nop())}
}

func (u *upstream) handle(pattern string, h http.HandlerFunc) {
	u.mux.HandleFunc(pattern, h)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
