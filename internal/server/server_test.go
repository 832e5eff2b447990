package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/clipsync/internal/remote"
	"github.com/thruflo/clipsync/internal/testutil"
)

func newTestServer(t *testing.T, cfg *Config) (*Server, *httptest.Server) {
	t.Helper()

	if cfg == nil {
		cfg = &Config{}
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+remote.ClipboardPath, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeStatus(t *testing.T, resp *http.Response) remote.StatusResponse {
	t.Helper()
	var status remote.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      *Config
		wantErr  string
		wantAddr string
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "config is required",
		},
		{
			name:    "port out of range",
			cfg:     &Config{Port: 70000},
			wantErr: "invalid port",
		},
		{
			name:     "default port",
			cfg:      &Config{},
			wantAddr: ":8080",
		},
		{
			name:     "host and port",
			cfg:      &Config{Host: "127.0.0.1", Port: 9000},
			wantAddr: "127.0.0.1:9000",
		},
		{
			name:     "listen overrides",
			cfg:      &Config{Port: 9000, Listen: "127.0.0.1:0"},
			wantAddr: "127.0.0.1:0",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, err := NewServer(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, srv.Addr())
		})
	}
}

func TestGetEmptyValue(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + remote.ClipboardPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var payload remote.Payload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "", payload.Text)
}

func TestPostThenGet(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, ts := newTestServer(t, &Config{Store: store})

	resp := post(t, ts.URL, `{"text":"héllo\nworld"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, remote.StatusResponse{Status: "ok"}, decodeStatus(t, resp))

	text, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "héllo\nworld", text)

	getResp, err := http.Get(ts.URL + remote.ClipboardPath)
	require.NoError(t, err)
	defer getResp.Body.Close()
	var payload remote.Payload
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&payload))
	assert.Equal(t, "héllo\nworld", payload.Text)
}

func TestPostRejectsBadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed json", body: `{"text":`, code: http.StatusBadRequest},
		{name: "wrong type", body: `{"text": 42}`, code: http.StatusBadRequest},
		{name: "too large", body: `{"text":"` + strings.Repeat("x", MaxTextBytes) + `"}`, code: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore()
			require.NoError(t, store.Set(context.Background(), "unchanged"))
			_, ts := newTestServer(t, &Config{Store: store})

			resp := post(t, ts.URL, tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			status := decodeStatus(t, resp)
			assert.Equal(t, "error", status.Status)
			assert.NotEmpty(t, status.Error)

			text, _ := store.Get(context.Background())
			assert.Equal(t, "unchanged", text)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+remote.ClipboardPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, HEAD, POST", resp.Header.Get("Allow"))
}

func TestWriteRateLimit(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(&Config{RateLimit: RateLimitConfig{MaxWrites: 2, Window: time.Minute}})
	require.NoError(t, err)
	clock := testutil.NewFakeClock(testutil.Epoch)
	srv.limiter.now = clock.Now
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp := post(t, ts.URL, `{"text":"x"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := post(t, ts.URL, `{"text":"y"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	// Reads are not limited.
	getResp, err := http.Get(ts.URL + remote.ClipboardPath)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	clock.Advance(time.Minute + time.Second)
	resp = post(t, ts.URL, `{"text":"z"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type failingStore struct{}

func (failingStore) Get(context.Context) (string, error) { return "", errors.New("disk gone") }
func (failingStore) Set(context.Context, string) error   { return errors.New("disk gone") }

func TestStoreFailure(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, &Config{Store: failingStore{}})

	getResp, err := http.Get(ts.URL + remote.ClipboardPath)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, getResp.StatusCode)

	resp := post(t, ts.URL, `{"text":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	ctx, cancel := testutil.ShortOperationContext(t)
	defer cancel()

	a := remote.NewClient(ts.URL)
	b := remote.NewClient(ts.URL + "/")

	ok, err := a.Probe(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Push(ctx, "shared text"))
	text, err := b.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared text", text)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(&Config{Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "", srv.ListenAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	testutil.Eventually(t, 2*time.Second, func() bool { return srv.ListenAddr() != "" })

	resp, err := http.Get("http://" + srv.ListenAddr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Error(t, srv.Start(ctx), "second start should fail")

	require.NoError(t, srv.Stop())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(&Config{Listen: "127.0.0.1:0"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()
	testutil.Eventually(t, 2*time.Second, func() bool { return srv.ListenAddr() != "" })

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
