package main

import (
	"github.com/go-arcade/userinfo/internal/conf"
	"github.com/go-arcade/userinfo/pkg/httpx"
	"github.com/go-arcade/userinfo/pkg/log"
	"github.com/go-arcade/userinfo/pkg/sso/oauth"
	"github.com/go-arcade/userinfo/pkg/trace"
	"github.com/google/wire"
)

var confProviderSet = wire.NewSet(
	provideConf,
	provideLogConf,
	provideHttpConf,
	provideServiceProperties,
	provideTraceConf,
)

func provideConf(configPath string) (conf.AppConfig, error) {
	return conf.LoadConfigFile(configPath)
}

func provideLogConf(appConf conf.AppConfig) *log.Conf {
	return &appConf.Log
}

func provideHttpConf(appConf conf.AppConfig) *httpx.ClientConf {
	return &appConf.Http
}

func provideServiceProperties(appConf conf.AppConfig) *oauth.ServiceProperties {
	return &appConf.Provider
}

func provideTraceConf(appConf conf.AppConfig) *trace.Conf {
	return &appConf.Trace
}
