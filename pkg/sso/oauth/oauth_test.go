// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/userinfo/pkg/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
}

// newFakeProvider serves body with status on every request and records the requests.
func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	f := &fakeProvider{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(context.Background()))
		f.mu.Unlock()

		if status >= 300 && status < 400 {
			w.Header().Set("Location", "/elsewhere")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeProvider) lastRequest(t *testing.T) *http.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "provider received no request")
	return f.requests[len(f.requests)-1]
}

type recordedCall struct {
	result  string
	elapsed time.Duration
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) Observe(result string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{result: result, elapsed: elapsed})
}

func newTestProvider(t *testing.T, uri string, opts ...Option) (*UserInfoProvider, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]Option{WithLogger(zap.New(core).Sugar())}, opts...)
	p, err := NewUserInfoProvider(&ServiceProperties{
		UserInfoURI:     uri,
		AccessTokenName: "access_token",
	}, opts...)
	require.NoError(t, err)
	return p, logs
}

func TestGetUserInfo_Success(t *testing.T) {
	srv := newFakeProvider(t, http.StatusOK, `{"id":"u1","name":"Alice"}`)
	p, _ := newTestProvider(t, srv.URL)

	info, ok := p.GetUserInfo(context.Background(), "tok-123")

	require.True(t, ok)
	assert.Equal(t, UserInfo{"id": "u1", "name": "Alice"}, info)
}

func TestGetUserInfo_ValuesPassThrough(t *testing.T) {
	body := `{"id":12345678901234567890,"verified":true,"nick":null,"tags":["a","b"],"address":{"city":"Lyon"}}`
	srv := newFakeProvider(t, http.StatusOK, body)
	p, _ := newTestProvider(t, srv.URL)

	info, ok := p.GetUserInfo(context.Background(), "tok")

	require.True(t, ok)
	assert.Equal(t, json.Number("12345678901234567890"), info["id"])
	assert.Equal(t, true, info["verified"])
	assert.Contains(t, info, "nick")
	assert.Nil(t, info["nick"])
	assert.Equal(t, []any{"a", "b"}, info["tags"])
	assert.Equal(t, map[string]any{"city": "Lyon"}, info["address"])
}

func TestGetUserInfo_Request(t *testing.T) {
	srv := newFakeProvider(t, http.StatusOK, `{}`)
	core, _ := observer.New(zapcore.DebugLevel)
	p, err := NewUserInfoProvider(&ServiceProperties{
		UserInfoURI:          srv.URL + "/userinfo?alt=json",
		AccessTokenName:      "oauth_token",
		AdditionalInfoParams: map[string]string{"scope": "email", "fields": "id,name"},
	}, WithLogger(zap.New(core).Sugar()))
	require.NoError(t, err)

	_, ok := p.GetUserInfo(context.Background(), "tok/with+chars")
	require.True(t, ok)

	req := srv.lastRequest(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/userinfo", req.URL.Path)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))

	query := req.URL.Query()
	assert.Equal(t, url.Values{
		"alt":         {"json"},
		"oauth_token": {"tok/with+chars"},
		"scope":       {"email"},
		"fields":      {"id,name"},
	}, query)
}

func TestGetUserInfo_RequestWithoutAdditionalParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{name: "nil params", params: nil},
		{name: "empty params", params: map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeProvider(t, http.StatusOK, `{}`)
			p, err := NewUserInfoProvider(&ServiceProperties{
				UserInfoURI:          srv.URL,
				AccessTokenName:      "access_token",
				AdditionalInfoParams: tt.params,
			}, WithLogger(zap.NewNop().Sugar()))
			require.NoError(t, err)

			_, ok := p.GetUserInfo(context.Background(), "tok")
			require.True(t, ok)

			assert.Equal(t, url.Values{"access_token": {"tok"}}, srv.lastRequest(t).URL.Query())
		})
	}
}

func TestGetUserInfo_PropertiesAreCopied(t *testing.T) {
	srv := newFakeProvider(t, http.StatusOK, `{}`)
	props := &ServiceProperties{
		UserInfoURI:          srv.URL,
		AccessTokenName:      "access_token",
		AdditionalInfoParams: map[string]string{"scope": "email"},
	}
	p, err := NewUserInfoProvider(props)
	require.NoError(t, err)

	props.AdditionalInfoParams["scope"] = "profile"
	props.AccessTokenName = "changed"

	_, ok := p.GetUserInfo(context.Background(), "tok")
	require.True(t, ok)

	query := srv.lastRequest(t).URL.Query()
	assert.Equal(t, "email", query.Get("scope"))
	assert.Equal(t, "tok", query.Get("access_token"))
	assert.False(t, query.Has("changed"))
}

func TestGetUserInfo_NonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_token"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "created", status: http.StatusCreated, body: `{"id":"u1"}`},
		{name: "no content", status: http.StatusNoContent},
		{name: "found", status: http.StatusFound, body: `{"id":"u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeProvider(t, tt.status, tt.body)
			p, logs := newTestProvider(t, srv.URL)

			info, ok := p.GetUserInfo(context.Background(), "tok")

			assert.False(t, ok)
			assert.Nil(t, info)

			errLogs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
			require.Len(t, errLogs, 1)
			fields := errLogs[0].ContextMap()
			assert.Equal(t, int64(tt.status), fields["statusCode"])
			assert.Equal(t, tt.body, fields["response"])
		})
	}
}

func TestGetUserInfo_MalformedBody(t *testing.T) {
	bodies := map[string]string{
		"not json":       `not json`,
		"array":          `[1,2,3]`,
		"string":         `"alice"`,
		"number":         `42`,
		"null":           `null`,
		"empty":          ``,
		"truncated":      `{"id":"u1"`,
		"trailing value": `{"id":"u1"} {"id":"u2"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newFakeProvider(t, http.StatusOK, body)
			p, logs := newTestProvider(t, srv.URL)

			info, ok := p.GetUserInfo(context.Background(), "tok")

			assert.False(t, ok)
			assert.Nil(t, info)
			assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestGetUserInfo_TransportError(t *testing.T) {
	srv := newFakeProvider(t, http.StatusOK, `{}`)
	uri := srv.URL
	srv.Close()

	p, logs := newTestProvider(t, uri)

	var (
		info UserInfo
		ok   bool
	)
	assert.NotPanics(t, func() {
		info, ok = p.GetUserInfo(context.Background(), "tok")
	})
	assert.False(t, ok)
	assert.Nil(t, info)

	errLogs := logs.FilterMessage("user info request failed").All()
	require.Len(t, errLogs, 1)
	assert.Contains(t, errLogs[0].ContextMap(), "error")
}

func TestGetUserInfo_CanceledContext(t *testing.T) {
	srv := newFakeProvider(t, http.StatusOK, `{"id":"u1"}`)
	recorder := &fakeRecorder{}
	p, _ := newTestProvider(t, srv.URL, WithRecorder(recorder))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := p.GetUserInfo(ctx, "tok")
	assert.False(t, ok)
	require.Len(t, recorder.calls, 1)
	assert.Equal(t, ResultTransportError, recorder.calls[0].result)
}

func TestGetUserInfoFromToken(t *testing.T) {
	tests := []struct {
		name  string
		token *oauth2.Token
		want  string
	}{
		{name: "access token forwarded", token: &oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}, want: "abc"},
		{name: "nil token sends empty value", token: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeProvider(t, http.StatusOK, `{"id":"u1"}`)
			p, _ := newTestProvider(t, srv.URL)

			_, ok := p.GetUserInfoFromToken(context.Background(), tt.token)
			require.True(t, ok)

			query := srv.lastRequest(t).URL.Query()
			assert.True(t, query.Has("access_token"))
			assert.Equal(t, tt.want, query.Get("access_token"))
		})
	}
}

func TestNewUserInfoProvider_Validation(t *testing.T) {
	tests := []struct {
		name    string
		props   *ServiceProperties
		wantErr error
	}{
		{name: "nil properties", props: nil, wantErr: ErrPropertiesRequired},
		{name: "missing uri", props: &ServiceProperties{AccessTokenName: "access_token"}, wantErr: ErrUserInfoURIRequired},
		{name: "missing token name", props: &ServiceProperties{UserInfoURI: "https://example.com/me"}, wantErr: ErrAccessTokenNameRequired},
		{name: "valid", props: &ServiceProperties{UserInfoURI: "https://example.com/me", AccessTokenName: "access_token"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewUserInfoProvider(tt.props)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p.client)
		})
	}
}

func TestMustNewUserInfoProvider_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewUserInfoProvider(nil)
	})
}

func TestGetUserInfo_ConcurrentSharedClient(t *testing.T) {
	srv := newFakeProvider(t, http.StatusOK, `{"id":"u1","name":"Alice"}`)
	p, _ := newTestProvider(t, srv.URL)
	client := p.client

	const workers = 16
	var wg sync.WaitGroup
	results := make([]bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = p.GetUserInfo(context.Background(), "tok")
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "call %d failed", i)
	}
	assert.Same(t, client, p.client)
}

func TestGetUserInfo_InjectedClient(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	}))
	defer srv.Close()

	client := httpx.NewClient(&httpx.ClientConf{UserAgent: "userinfo/test"})
	p, _ := newTestProvider(t, srv.URL, WithClient(client))

	_, ok := p.GetUserInfo(context.Background(), "tok")
	require.True(t, ok)
	assert.Same(t, client, p.client)
	assert.Equal(t, "userinfo/test", gotUA)
}

func TestGetUserInfo_Recorder(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "success", status: http.StatusOK, body: `{"id":"u1"}`, want: ResultSuccess},
		{name: "http error", status: http.StatusForbidden, body: `denied`, want: ResultHTTPError},
		{name: "decode error", status: http.StatusOK, body: `[1]`, want: ResultDecodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeProvider(t, tt.status, tt.body)
			recorder := &fakeRecorder{}
			p, _ := newTestProvider(t, srv.URL, WithRecorder(recorder))

			p.GetUserInfo(context.Background(), "tok")

			require.Len(t, recorder.calls, 1)
			assert.Equal(t, tt.want, recorder.calls[0].result)
			assert.GreaterOrEqual(t, recorder.calls[0].elapsed, time.Duration(0))
		})
	}
}

func TestGetUserInfo_Tracing(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode codes.Code
	}{
		{name: "ok", status: http.StatusOK, wantCode: codes.Ok},
		{name: "error", status: http.StatusBadGateway, wantCode: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeProvider(t, tt.status, `{"id":"u1"}`)
			sr := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
			p, logs := newTestProvider(t, srv.URL, WithTracerProvider(tp))

			p.GetUserInfo(context.Background(), "tok")

			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "oauth.GetUserInfo", spans[0].Name())
			assert.Equal(t, tt.wantCode, spans[0].Status().Code)
			assert.Contains(t, spans[0].Attributes(), attribute.Int("http.response.status_code", tt.status))

			debugLogs := logs.FilterMessage("user info response").All()
			require.Len(t, debugLogs, 1)
			assert.Equal(t, spans[0].SpanContext().TraceID().String(), debugLogs[0].ContextMap()["trace_id"])
		})
	}
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, ResultSuccess, resultOf(nil))
	assert.Equal(t, ResultHTTPError, resultOf(&StatusError{StatusCode: 500}))
	assert.Equal(t, ResultDecodeError, resultOf(&DecodeError{Err: errNotObject}))
	assert.Equal(t, ResultTransportError, resultOf(&TransportError{Err: context.Canceled}))
}
