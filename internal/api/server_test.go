package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"player-control/internal/player"
	"player-control/internal/playlist"
)

type fakeController struct {
	mu       sync.Mutex
	status   player.Status
	dispatch []string
	opened   []playlist.Entry
	err      error
	onCtrl   bool
}

func (f *fakeController) Status() player.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) Do(_ context.Context, fn func() error) error {
	f.mu.Lock()
	f.onCtrl = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.onCtrl = false
		f.mu.Unlock()
	}()
	return fn()
}

func (f *fakeController) Dispatch(name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.onCtrl {
		return fmt.Errorf("dispatch outside Do")
	}
	f.dispatch = append(f.dispatch, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return f.err
}

func (f *fakeController) Open(entry playlist.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, entry)
	if err := entry.Validate(); err != nil {
		f.status.State = player.Failed
		return fmt.Errorf("open: %w", err)
	}
	f.status.URI = entry.Current()
	return f.err
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	ctrl := &fakeController{status: player.Status{State: player.Started, URI: "/a.mp4", Count: 2}}
	h := New(ctrl, "v1.2.3").Handler()

	rec := do(t, h, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "started", got["state"])
	assert.Equal(t, "/a.mp4", got["uri"])
}

func TestHealthz(t *testing.T) {
	h := New(&fakeController{}, "v1.2.3").Handler()
	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "v1.2.3", info.Version)
	assert.NotEmpty(t, info.OS)
}

func TestIntent(t *testing.T) {
	ctrl := &fakeController{}
	h := New(ctrl, "dev").Handler()

	rec := do(t, h, http.MethodPost, "/intents/seek?arg=1:30", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/intents/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"seek 1:30", "toggle"}, ctrl.dispatch)

	rec = do(t, h, http.MethodGet, "/intents/toggle", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIntentErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: %q", player.ErrUnknownIntent, "x"), http.StatusNotFound},
		{player.ErrBadArgument, http.StatusBadRequest},
		{player.ErrNotLoaded, http.StatusConflict},
		{player.ErrEndOfPlaylist, http.StatusConflict},
		{player.ErrSessionClosed, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("seek: %w", fmt.Errorf("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := New(&fakeController{err: tt.err}, "dev").Handler()
			rec := do(t, h, http.MethodPost, "/intents/any", "")
			assert.Equal(t, tt.code, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Error)
		})
	}
}

func TestOpen(t *testing.T) {
	ctrl := &fakeController{}
	h := New(ctrl, "dev").Handler()

	rec := do(t, h, http.MethodPost, "/open", `{"uris":["/a.mp4","/b.mkv"],"index":1}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Len(t, ctrl.opened, 1)
	assert.Equal(t, "/b.mkv", ctrl.opened[0].Current())

	rec = do(t, h, http.MethodPost, "/open", `{"uris":["/a.mp4"],"index":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/open", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, ctrl.opened, 1)
}

func TestOpenEmptyFailsTheSession(t *testing.T) {
	ctrl := &fakeController{}
	h := New(ctrl, "dev").Handler()

	for _, body := range []string{`{"uris":[]}`, `{}`} {
		rec := do(t, h, http.MethodPost, "/open", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), playlist.ErrEmpty.Error())
	}
	require.Len(t, ctrl.opened, 2)
	assert.Zero(t, ctrl.opened[0].Len())
	assert.Equal(t, player.Failed, ctrl.Status().State)
}

func TestIntentList(t *testing.T) {
	h := New(&fakeController{}, "dev").Handler()
	rec := do(t, h, http.MethodGet, "/intents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, player.Intents(), list)
}

func TestMetrics(t *testing.T) {
	h := New(&fakeController{}, "dev").Handler()
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListenAndServeStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&fakeController{}, "dev").ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
