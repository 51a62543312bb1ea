package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/storage"
)

func doRequest(t *testing.T, handler http.Handler, method, path string, body []byte, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresAPIKey(t *testing.T) {
	router := NewRouter(setupTestServer(t))

	w := doRequest(t, router, "GET", "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/health", nil, "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/health", nil, "test-key")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ReplayLifecycle(t *testing.T) {
	router := NewRouter(setupTestServer(t))

	// Store
	w := doRequest(t, router, "POST", "/api/v1/replays", encodeReplay(t, testReplay(), codec.FormatText), "test-key")
	require.Equal(t, http.StatusCreated, w.Code)

	var created ReplaySummary
	decodeResponse(t, w, &created)
	require.NotEmpty(t, created.ID)

	// Fetch as JSON
	w = doRequest(t, router, "GET", "/api/v1/replays/"+created.ID+"?format=json", nil, "test-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	// Summary
	w = doRequest(t, router, "GET", "/api/v1/replays/"+created.ID+"/summary", nil, "test-key")
	require.Equal(t, http.StatusOK, w.Code)
	var summary ReplaySummary
	decodeResponse(t, w, &summary)
	assert.Equal(t, created.ID, summary.ID)
	assert.Equal(t, 3, summary.Inputs)

	// Delete
	w = doRequest(t, router, "DELETE", "/api/v1/replays/"+created.ID, nil, "test-key")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/replays/"+created.ID, nil, "test-key")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	server := setupTestServer(t)
	router := NewRouter(server)

	doRequest(t, router, "POST", "/api/v1/inspect", encodeReplay(t, testReplay(), codec.FormatBinary), "test-key")
	doRequest(t, router, "GET", "/api/v1/health", nil, "wrong-key")

	w := doRequest(t, router, "GET", "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `gdr_codec_operations_total{format="msgpack",operation="decode",status="success"} 1`)
	assert.Contains(t, body, `gdr_auth_requests_total{status="error"} 1`)
	assert.Contains(t, body, `gdr_http_requests_total{endpoint="/api/v1/inspect",method="POST",status_code="200"} 1`)
}

func TestStartServer(t *testing.T) {
	// Reserve a free port, then release it for the server
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	archive, err := storage.Open("archive", nil, storage.WithFS(vfs.NewMem()))
	require.NoError(t, err)
	defer archive.Close()

	config := ServerConfig{
		Port:   port,
		Bind:   "127.0.0.1",
		APIKey: "test-key",
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&DefaultServerStarter{}).StartServer(ctx, archive, codec.NewReplayCodec(), config)
	}()

	url := "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port)) + "/api/v1/health"
	var resp *http.Response
	require.Eventually(t, func() bool {
		req, _ := http.NewRequest("GET", url, nil)
		req.Header.Set("X-API-Key", "test-key")
		resp, err = http.DefaultClient.Do(req)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	var response APIResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.True(t, response.Success)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
