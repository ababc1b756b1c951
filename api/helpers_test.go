package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/fixmate/api"
	"github.com/garnizeh/fixmate/internal/assets"
	"github.com/garnizeh/fixmate/internal/config"
	"github.com/garnizeh/fixmate/internal/identity"
	"github.com/garnizeh/fixmate/internal/jobs"
	"github.com/garnizeh/fixmate/internal/workflow"
	"github.com/garnizeh/fixmate/pkg/repository"
)

const testSecret = "test-secret"

func init() {
	api.SetLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// newRouter wires the full route table over store. A nil queue registers
// users directly without email verification.
func newRouter(t *testing.T, store repository.Store, queue jobs.Queue) http.Handler {
	t.Helper()
	cfg := &config.Config{APITimeout: 5 * time.Second}
	deps := api.Deps{
		Identity: identity.New(store, queue, identity.Options{
			RequireVerification: queue != nil,
			TokenSecret:         testSecret,
			TokenTTL:            time.Hour,
			PublicBaseURL:       "http://fixmate.test",
			BcryptCost:          bcrypt.MinCost,
		}, nil),
		Assets:   assets.New(store, nil),
		Workflow: workflow.New(store, nil),
	}
	return api.SetupRoutes(cfg, "test", "now", deps)
}

// do sends body (marshalled unless it is a string) and returns the recorder.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type errorResponse struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}
