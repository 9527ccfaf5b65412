package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "werss-client/internal/core/errors"
	corelog "werss-client/internal/core/log"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

type staticSession string

func (s staticSession) SessionID(context.Context) string { return string(s) }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, r *mux.Router, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL + "/"
	if opts.Logger == nil {
		opts.Logger = corelog.NewTestLogger(t)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeInvalidParam))
}

func TestClient_AttachesIdentityHeaders(t *testing.T) {
	var gotAuth, gotSession string
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/auth/verify", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		gotSession = req.Header.Get(HeaderSessionID)
		writeJSON(w, 200, map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"is_valid": true, "username": "alice"},
		})
	}).Methods(http.MethodGet)

	c := newTestClient(t, r, Options{Tokens: staticToken("tok-1"), Sessions: staticSession("sess-1")})
	res, err := c.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "sess-1", gotSession)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var gotAuth string
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/auth/verify", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		writeJSON(w, 200, map[string]interface{}{"code": 0, "data": map[string]bool{"is_valid": false}})
	})

	c := newTestClient(t, r, Options{Tokens: staticToken(""), Sessions: staticSession("s")})
	_, err := c.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_PayloadSelection(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/analytics/runtime", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"code": 0, "data": nil, "detail": map[string]string{"product_mode": "commercial"}})
	})
	r.HandleFunc("/api/v1/wx/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"code": 0, "message": "ok"})
	})

	c := newTestClient(t, r, Options{})
	raw, err := c.GetRuntimeSettings(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_mode":"commercial"}`, string(raw))

	require.NoError(t, c.Logout(context.Background()))
}

func TestClient_EnvelopeErrors(t *testing.T) {
	var unauthorized int32
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/user", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"code": 401, "message": "expired"})
	})
	r.HandleFunc("/api/v1/wx/auth/refresh", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "Could not validate credentials"})
	})
	r.HandleFunc("/api/v1/wx/auth/verify", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"code": 40001, "detail": map[string]string{"message": "bad things"}})
	})
	r.HandleFunc("/api/v1/wx/analytics/summary", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]interface{}{
				{"loc": []string{"query", "days"}, "msg": "value is not a valid integer", "type": "type_error"},
				{"loc": []string{"query", "limit"}, "type": "missing"},
			},
		})
	})
	r.HandleFunc("/api/v1/wx/analytics/users", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "boom"})
	})

	var remoteMessages []string
	c := newTestClient(t, r, Options{
		OnUnauthorized: func() { atomic.AddInt32(&unauthorized, 1) },
		OnRemoteError:  func(msg string) { remoteMessages = append(remoteMessages, msg) },
	})
	ctx := context.Background()

	_, err := c.GetCurrentUser(ctx)
	assert.True(t, coreerrors.IsUnauthorized(err))

	_, err = c.RefreshToken(ctx)
	assert.True(t, coreerrors.IsUnauthorized(err))
	assert.Equal(t, "Could not validate credentials", coreerrors.Message(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&unauthorized))

	_, err = c.VerifyToken(ctx)
	assert.True(t, coreerrors.IsRemote(err))
	assert.Equal(t, "bad things", coreerrors.Message(err))

	_, err = c.GetAnalyticsSummary(ctx, 7, 20)
	assert.True(t, coreerrors.IsRemote(err))
	assert.Equal(t, "value is not a valid integer; missing", coreerrors.Message(err))

	_, err = c.GetAnalyticsUsers(ctx, 1, 20, "")
	require.Error(t, err)
	assert.Equal(t, "boom", coreerrors.Message(err))

	// 只有业务码错误触发提示
	assert.Equal(t, []string{"bad things"}, remoteMessages)
}

func TestClient_NonJSONReturnedRaw(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/analytics/runtime", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "plain body")
	})

	c := newTestClient(t, r, Options{})
	raw, err := c.GetRuntimeSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain body", string(raw))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/"
	srv.Close()

	c, err := NewClient(Options{BaseURL: base, Timeout: time.Second, Logger: corelog.NewNopLogger()})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.VerifyToken(context.Background())
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeNetworkError))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.VerifyToken(ctx)
	assert.Error(t, err)
}

func TestClient_LoginForm(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/auth/login", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseForm())
		assert.Contains(t, req.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		if req.PostForm.Get("username") != "alice" || req.PostForm.Get("password") != "pw" {
			writeJSON(w, 200, map[string]interface{}{"code": 40100, "message": "invalid credentials"})
			return
		}
		writeJSON(w, 200, map[string]interface{}{"code": 0, "data": map[string]string{"access_token": "jwt", "token_type": "bearer"}})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, Options{})
	res, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.AccessToken)

	_, err = c.Login(context.Background(), "alice", "wrong")
	assert.Equal(t, "invalid credentials", coreerrors.Message(err))
}

func TestClient_ReportEvents(t *testing.T) {
	var got EventBatch
	var session string
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/analytics/events", func(w http.ResponseWriter, req *http.Request) {
		session = req.Header.Get(HeaderSessionID)
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		writeJSON(w, 200, map[string]interface{}{"code": 0, "data": map[string]int{"accepted": len(got.Events)}})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, Options{Sessions: staticSession("sess-9")})
	n := 4
	err := c.ReportEvents(context.Background(), []Event{
		{EventType: "page_view", Page: "/a"},
		{EventType: "input", InputName: "title", InputLength: &n},
	})
	require.NoError(t, err)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "page_view", got.Events[0].EventType)
	assert.Equal(t, 4, *got.Events[1].InputLength)
	assert.Equal(t, "sess-9", session)
	assert.Equal(t, c.APIBase()+"wx/analytics/events", c.EventsURL())
}

func TestClient_ReportEventsSkipsHooks(t *testing.T) {
	var calls int32
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/analytics/events", func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeJSON(w, 200, map[string]interface{}{"code": 50001, "message": "ingest busy"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "expired"})
	}).Methods(http.MethodPost)

	var unauthorized int32
	var remoteMessages []string
	c := newTestClient(t, r, Options{
		OnUnauthorized: func() { atomic.AddInt32(&unauthorized, 1) },
		OnRemoteError:  func(msg string) { remoteMessages = append(remoteMessages, msg) },
	})
	ctx := context.Background()
	events := []Event{{EventType: "page_view", Page: "/a"}}

	err := c.ReportEvents(ctx, events)
	assert.True(t, coreerrors.IsRemote(err))
	assert.Equal(t, "ingest busy", coreerrors.Message(err))

	err = c.ReportEvents(ctx, events)
	assert.True(t, coreerrors.IsUnauthorized(err))

	// 上报失败只返回错误，不提示也不跳转
	assert.Empty(t, remoteMessages)
	assert.Equal(t, int32(0), atomic.LoadInt32(&unauthorized))
}

func TestClient_QRStatusAndHead(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/auth/qr/code", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"code": 0, "data": map[string]interface{}{"code": "http://img/qr.png", "is_exists": false}})
	})
	r.HandleFunc("/api/v1/wx/auth/qr/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"code": 0, "data": map[string]interface{}{"login_status": 1, "error_message": ""}})
	})
	r.HandleFunc("/static/qr.png", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodHead)

	c := newTestClient(t, r, Options{})
	ctx := context.Background()

	qr, err := c.GetQRCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://img/qr.png", qr.Code)
	assert.False(t, qr.IsExists)

	st, err := c.GetQRStatus(ctx)
	require.NoError(t, err)
	assert.True(t, st.LoginStatus)
	assert.Empty(t, st.ErrorMessage)

	status, err := c.Head(ctx, strings.TrimSuffix(c.APIBase(), APIPrefix)+"static/qr.png")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestClient_HeadSiteRootWithoutIdentity(t *testing.T) {
	type seen struct{ auth, session string }
	hits := make(chan seen, 2)
	r := mux.NewRouter()
	r.HandleFunc("/static/wx_qrcode.png", func(w http.ResponseWriter, req *http.Request) {
		hits <- seen{req.Header.Get("Authorization"), req.Header.Get(HeaderSessionID)}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodHead)

	c := newTestClient(t, r, Options{Tokens: staticToken("secret-jwt"), Sessions: staticSession("sess-1")})
	ctx := context.Background()

	status, err := c.Head(ctx, "/static/wx_qrcode.png")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, err = c.Head(ctx, c.ResolveURL("static/wx_qrcode.png"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	for i := 0; i < 2; i++ {
		got := <-hits
		assert.Empty(t, got.auth)
		assert.Empty(t, got.session)
	}
}

func TestClient_ResolveURL(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "https://werss.example.com/app/", Logger: corelog.NewNopLogger()})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "https://werss.example.com/static/qr.png", c.ResolveURL("/static/qr.png"))
	assert.Equal(t, "https://werss.example.com/static/qr.png", c.ResolveURL("static/qr.png"))
	assert.Equal(t, "http://cdn.example.com/qr.png", c.ResolveURL("http://cdn.example.com/qr.png"))
}

func TestClient_SendBeacon(t *testing.T) {
	received := make(chan string, 1)
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/wx/analytics/events", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		assert.Empty(t, req.Header.Get("Authorization"))
		received <- string(body)
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, r, Options{Tokens: staticToken("tok")})
	assert.True(t, c.SendBeacon(c.EventsURL(), []byte(`{"events":[]}`)))

	select {
	case body := <-received:
		assert.JSONEq(t, `{"events":[]}`, body)
	case <-time.After(5 * time.Second):
		t.Fatal("beacon not delivered")
	}

	require.NoError(t, c.Close())
	assert.False(t, c.SendBeacon(c.EventsURL(), []byte(`{}`)))
}

func TestParseQRStatus(t *testing.T) {
	st := parseQRStatus(json.RawMessage(`{"login_status":false,"error_message":"微信授权依赖缺失"}`))
	assert.False(t, st.LoginStatus)
	assert.Equal(t, "微信授权依赖缺失", st.ErrorMessage)

	st = parseQRStatus(json.RawMessage(`"not an object"`))
	assert.False(t, st.LoginStatus)
	assert.Empty(t, st.ErrorMessage)
}

func TestCurrentUser_PermissionList(t *testing.T) {
	u := CurrentUser{Permissions: json.RawMessage(`["admin","tag:view"]`)}
	assert.Equal(t, []string{"admin", "tag:view"}, u.PermissionList())

	u = CurrentUser{Permissions: json.RawMessage(`"admin, tag:view"`)}
	assert.Equal(t, []string{"admin", "tag:view"}, u.PermissionList())

	assert.Nil(t, (&CurrentUser{}).PermissionList())
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"", "null", "false", "0", `""`, "0.0"} {
		assert.False(t, truthy(json.RawMessage(v)), v)
	}
	for _, v := range []string{"true", "1", `"x"`, "{}", "[]", "-2"} {
		assert.True(t, truthy(json.RawMessage(v)), v)
	}
}
