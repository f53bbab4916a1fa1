//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/userinfo/pkg/httpx"
	"github.com/go-arcade/userinfo/pkg/log"
	"github.com/go-arcade/userinfo/pkg/metrics"
	"github.com/go-arcade/userinfo/pkg/sso/oauth"
	"github.com/go-arcade/userinfo/pkg/trace"
	"github.com/google/wire"
)

func initApp(configPath string) (*App, func(), error) {
	panic(wire.Build(
		// config layer
		confProviderSet,
		// ambient stack
		log.ProviderSet,
		httpx.ProviderSet,
		metrics.ProviderSet,
		trace.ProviderSet,
		wire.Bind(new(oauth.Recorder), new(*metrics.UserInfoMetrics)),
		// user info provider
		oauth.ProviderSet,
		newApp,
	))
}
