package debug

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werss-client/internal/client/app"
	"werss-client/internal/client/router"
	"werss-client/internal/client/runtime"
	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
	"werss-client/internal/health"
)

type fakeClient struct {
	queue    int
	hidden   bool
	forced   bool
	flushErr error
	nav      string
}

func (f *fakeClient) Status(ctx context.Context) app.Status {
	return app.Status{SessionID: "sess-1", QueueLength: f.queue, Hidden: f.hidden, Booted: true}
}

func (f *fakeClient) RuntimeSettings(ctx context.Context, force bool) runtime.Settings {
	f.forced = force
	return runtime.Defaults()
}

func (f *fakeClient) Flush(ctx context.Context) error {
	if f.flushErr != nil {
		return f.flushErr
	}
	f.queue = 0
	return nil
}

func (f *fakeClient) Navigate(ctx context.Context, path string) (router.Location, error) {
	f.nav = path
	return router.NewTable(router.DefaultRoutes()).Resolve(path), nil
}

func (f *fakeClient) SetHidden(hidden bool) { f.hidden = hidden }

func newTestServer(t *testing.T, c *fakeClient) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := NewServer(c, "", reg, corelog.NewNopLogger())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServer_Status(t *testing.T) {
	srv, _ := newTestServer(t, &fakeClient{queue: 3})

	resp, err := http.Get(srv.URL + "/debug/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var st app.Status
	decodeBody(t, resp, &st)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, 3, st.QueueLength)
}

func TestServer_RuntimeForce(t *testing.T) {
	c := &fakeClient{}
	srv, _ := newTestServer(t, c)

	resp, err := http.Get(srv.URL + "/debug/runtime?force=true")
	require.NoError(t, err)
	var s runtime.Settings
	decodeBody(t, resp, &s)
	assert.True(t, c.forced)
	assert.Equal(t, runtime.ModeAllFree, s.ProductMode)
}

func TestServer_Flush(t *testing.T) {
	c := &fakeClient{queue: 5}
	srv, _ := newTestServer(t, c)

	resp, err := http.Post(srv.URL+"/debug/flush", "application/json", nil)
	require.NoError(t, err)
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "flushed", body["status"])
	assert.Equal(t, float64(0), body["queue_length"])

	c.flushErr = coreerrors.New(coreerrors.CodeNetworkError, "offline")
	resp, err = http.Post(srv.URL+"/debug/flush", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "offline")
}

func TestServer_FlushRequiresPost(t *testing.T) {
	srv, _ := newTestServer(t, &fakeClient{})
	resp, err := http.Get(srv.URL + "/debug/flush")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_NavigateAndVisibility(t *testing.T) {
	c := &fakeClient{}
	srv, _ := newTestServer(t, c)

	resp, err := http.Post(srv.URL+"/debug/navigate", "application/json", strings.NewReader(`{"path":"/workspace/content"}`))
	require.NoError(t, err)
	var nav map[string]string
	decodeBody(t, resp, &nav)
	assert.Equal(t, "/workspace/content", c.nav)
	assert.Equal(t, "Home", nav["route"])

	resp, err = http.Post(srv.URL+"/debug/navigate", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/debug/visibility", "application/json", strings.NewReader(`{"hidden":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, c.hidden)
}

func TestServer_Metrics(t *testing.T) {
	srv, reg := newTestServer(t, &fakeClient{})
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "werss_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(2)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "werss_test_total 2")
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer(&fakeClient{}, "127.0.0.1:0", prometheus.NewRegistry(), corelog.NewNopLogger())
	require.NoError(t, s.Start())
	addr := s.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr)

	resp, err := http.Get("http://" + addr + "/debug/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

type staticCheck health.ComponentStatus

func (s staticCheck) Check(ctx context.Context) (*health.ComponentHealth, error) {
	return &health.ComponentHealth{Status: health.ComponentStatus(s)}, nil
}

func TestServer_Health(t *testing.T) {
	s := NewServer(&fakeClient{}, "", prometheus.NewRegistry(), corelog.NewNopLogger())
	srv := httptest.NewServer(s.Handler())
	resp, err := http.Get(srv.URL + "/debug/health")
	require.NoError(t, err)
	resp.Body.Close()
	srv.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	checks := health.NewCompositeHealthChecker(time.Second)
	checks.RegisterChecker("storage", staticCheck(health.ComponentStatusHealthy))
	srv = httptest.NewServer(s.WithHealth(checks).Handler())
	defer srv.Close()

	resp, err = http.Get(srv.URL + "/debug/health")
	require.NoError(t, err)
	var report health.Report
	decodeBody(t, resp, &report)
	assert.Equal(t, health.ComponentStatusHealthy, report.Status)
	require.Len(t, report.Components, 1)
	assert.Equal(t, "storage", report.Components[0].Name)

	checks.RegisterChecker("backend", staticCheck(health.ComponentStatusUnhealthy))
	resp, err = http.Get(srv.URL + "/debug/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
