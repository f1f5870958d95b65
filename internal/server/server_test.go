package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/notifier"
	"github.com/user/cibulb/internal/relay"
	"github.com/user/cibulb/internal/status"
	"github.com/user/cibulb/internal/storage"
)

type testEnv struct {
	srv       *httptest.Server
	connector storage.Connector

	mu          sync.Mutex
	iftttPaths  []string
	iftttServer *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}

	env.iftttServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		env.iftttPaths = append(env.iftttPaths, r.URL.Path)
		env.mu.Unlock()
		io.WriteString(w, "fired")
	}))
	t.Cleanup(env.iftttServer.Close)

	env.connector = storage.NewSQLiteConnector(filepath.Join(t.TempDir(), "cibulb.db"), "repositories")
	n := notifier.NewIFTTT(config.IFTTTConfig{
		BaseURL:     env.iftttServer.URL,
		Key:         "my-key",
		EventPrefix: "ci_build_",
	}, env.iftttServer.Client())

	r := relay.New(relay.Options{
		Secret:    "my-secret",
		Ref:       "master",
		Connector: env.connector,
		Notifier:  n,
	})
	env.srv = httptest.NewServer(NewRouter(r))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) post(t *testing.T, path, token string, body any) (*http.Response, string) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Gitlab-Token", token)
	}
	res, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(b)
}

func (e *testEnv) records(t *testing.T) []storage.RepositoryRecord {
	t.Helper()
	store, err := e.connector.Connect(context.Background())
	require.NoError(t, err)
	defer store.Close()
	records, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	return records
}

func pipeline(repo, ref, st string) map[string]any {
	return map[string]any{
		"object_attributes": map[string]any{"id": 123, "ref": ref, "status": st},
		"project":           map[string]any{"path_with_namespace": repo},
	}
}

func TestWebhookSuccess(t *testing.T) {
	env := newTestEnv(t)

	res, body := env.post(t, "/webhook", "my-secret", pipeline("test", "master", "success"))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "fired", body)
	assert.NotEmpty(t, res.Header.Get("X-Invocation-ID"))
	assert.Equal(t, []string{"/trigger/ci_build_success/with/key/my-key"}, env.iftttPaths)

	records := env.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "test", records[0].Name)
	assert.Equal(t, status.Success, records[0].Status)
}

func TestWebhookGitLabPath(t *testing.T) {
	env := newTestEnv(t)

	res, _ := env.post(t, "/webhook/gitlab", "my-secret", pipeline("test", "master", "running"))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"/trigger/ci_build_pending/with/key/my-key"}, env.iftttPaths)
}

func TestWebhookForbidden(t *testing.T) {
	env := newTestEnv(t)

	res, _ := env.post(t, "/webhook", "foo", pipeline("test", "master", "success"))

	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Empty(t, env.records(t))
	assert.Empty(t, env.iftttPaths)
}

func TestWebhookOtherRefAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	res, body := env.post(t, "/webhook", "my-secret", pipeline("test", "develop", "failed"))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body)
	assert.Empty(t, env.records(t))
	assert.Empty(t, env.iftttPaths)
}

func TestWebhookNotifierDownStillAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	env.iftttServer.Close()

	res, body := env.post(t, "/webhook", "my-secret", pipeline("test", "master", "failed"))

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body)
	assert.Len(t, env.records(t), 1)
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/webhook", "my-secret", pipeline("A", "master", "pending"))
	env.post(t, "/webhook", "my-secret", pipeline("B", "master", "failed"))

	res, err := env.srv.Client().Get(env.srv.URL + "/refresh")
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, env.iftttPaths, 3)
	assert.Equal(t, "/trigger/ci_build_pending/with/key/my-key", env.iftttPaths[2])
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.srv.Client().Get(env.srv.URL + "/status")
	require.NoError(t, err)
	var empty StatusResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&empty))
	res.Body.Close()
	assert.Equal(t, status.AggregateSuccess, empty.Status)
	assert.Empty(t, empty.Repositories)

	env.post(t, "/webhook", "my-secret", pipeline("B", "master", "failed"))

	res, err = env.srv.Client().Get(env.srv.URL + "/status")
	require.NoError(t, err)
	defer res.Body.Close()
	var got StatusResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, status.AggregateFailed, got.Status)
	require.Len(t, got.Repositories, 1)
	assert.Equal(t, "B", got.Repositories[0].Name)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.srv.Client().Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestWebhookOversizedBody(t *testing.T) {
	prev := maxWebhookBody
	maxWebhookBody = 16
	t.Cleanup(func() { maxWebhookBody = prev })

	env := newTestEnv(t)

	res, body := env.post(t, "/webhook", "my-secret", pipeline("test", "master", "success"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body)
	assert.Empty(t, env.records(t))
	assert.Empty(t, env.iftttPaths)

	res, _ = env.post(t, "/webhook", "foo", pipeline("test", "master", "success"))
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
