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

// Package oauth fetches user info claims from an OAuth2 provider using an
// access token obtained elsewhere.
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-arcade/userinfo/pkg/httpx"
	"github.com/go-arcade/userinfo/pkg/log"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/go-arcade/userinfo/pkg/sso/oauth"

// UserInfo holds the claims returned by the provider. Values are left as decoded;
// numbers are json.Number.
type UserInfo map[string]any

// IUserInfoProvider resolves an access token into user info claims.
// A false result means no user info could be obtained; the cause is only logged.
type IUserInfoProvider interface {
	GetUserInfo(ctx context.Context, token string) (UserInfo, bool)
	GetUserInfoFromToken(ctx context.Context, token *oauth2.Token) (UserInfo, bool)
}

// Recorder observes the outcome of each user info call.
type Recorder interface {
	Observe(result string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, time.Duration) {}

// UserInfoProvider calls the configured user info endpoint. It is safe for concurrent use.
type UserInfoProvider struct {
	props    *ServiceProperties
	client   *resty.Client
	logger   *zap.SugaredLogger
	recorder Recorder
	tracer   trace.Tracer
}

var _ IUserInfoProvider = (*UserInfoProvider)(nil)

// Option configures a UserInfoProvider.
type Option func(*UserInfoProvider)

// WithClient replaces the HTTP client, e.g. to point at a fake provider.
func WithClient(client *resty.Client) Option {
	return func(p *UserInfoProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// WithLogger sets the logger. By default the global logger is used.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *UserInfoProvider) {
		p.logger = logger
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(recorder Recorder) Option {
	return func(p *UserInfoProvider) {
		if recorder != nil {
			p.recorder = recorder
		}
	}
}

// WithTracerProvider sets the tracer provider. By default the otel global one is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *UserInfoProvider) {
		if tp != nil {
			p.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewUserInfoProvider validates props and builds a provider. The HTTP client is
// created here and shared by every call.
func NewUserInfoProvider(props *ServiceProperties, opts ...Option) (*UserInfoProvider, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}

	p := &UserInfoProvider{
		props:    props.clone(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = httpx.NewClient(nil)
	}
	if p.tracer == nil {
		p.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return p, nil
}

// MustNewUserInfoProvider is like NewUserInfoProvider but panics on invalid properties.
func MustNewUserInfoProvider(props *ServiceProperties, opts ...Option) *UserInfoProvider {
	p, err := NewUserInfoProvider(props, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// GetUserInfo fetches the claims for token. It never returns an error: any
// failure is logged and reported as (nil, false).
func (p *UserInfoProvider) GetUserInfo(ctx context.Context, token string) (UserInfo, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := p.tracer.Start(ctx, "oauth.GetUserInfo", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	info, err := p.fetch(ctx, token)
	p.recorder.Observe(resultOf(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logFailure(ctx, err)
		return nil, false
	}

	span.SetStatus(codes.Ok, "")
	return info, true
}

// GetUserInfoFromToken fetches the claims for an oauth2 token. A nil token is
// sent as an empty access token.
func (p *UserInfoProvider) GetUserInfoFromToken(ctx context.Context, token *oauth2.Token) (UserInfo, bool) {
	var accessToken string
	if token != nil {
		accessToken = token.AccessToken
	}
	return p.GetUserInfo(ctx, accessToken)
}

func (p *UserInfoProvider) fetch(ctx context.Context, token string) (UserInfo, error) {
	req := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam(p.props.AccessTokenName, token)
	for k, v := range p.props.AdditionalInfoParams {
		req.QueryParam.Add(k, v)
	}

	resp, err := req.Get(p.props.UserInfoURI)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	body := resp.String()
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	p.log(ctx).Debugw("user info response",
		"statusCode", resp.StatusCode(),
		"response", body,
	)

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: body}
	}

	info, err := decodeUserInfo(resp.Body())
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return info, nil
}

var errNotObject = errors.New("top-level value is not a JSON object")

// decodeUserInfo decodes exactly one JSON object from data.
func decodeUserInfo(data []byte) (UserInfo, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var info UserInfo
	if err := dec.Decode(&info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errNotObject
	}
	// trailing tokens are rejected, not ignored
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON object")
	}
	return info, nil
}

func (p *UserInfoProvider) logFailure(ctx context.Context, err error) {
	logger := p.log(ctx)

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		logger.Errorw("got error response from provider",
			"url", p.props.UserInfoURI,
			"statusCode", statusErr.StatusCode,
			"response", statusErr.Body,
		)
		return
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		logger.Errorw("error getting user info from provider",
			"url", p.props.UserInfoURI,
			"error", decodeErr.Err,
		)
		return
	}

	logger.Errorw("user info request failed",
		"url", p.props.UserInfoURI,
		"error", err,
	)
}

func (p *UserInfoProvider) log(ctx context.Context) *zap.SugaredLogger {
	if p.logger != nil {
		return log.WithTrace(ctx, p.logger)
	}
	return log.WithContext(ctx)
}
