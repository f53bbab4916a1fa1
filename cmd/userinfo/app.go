package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-arcade/userinfo/pkg/sso/oauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// ErrNoUserInfo is returned when the provider yielded no user info. Details are in the log.
var ErrNoUserInfo = errors.New("no user info returned by provider")

const metricsPrefix = "userinfo_"

type App struct {
	provider oauth.IUserInfoProvider
	logger   *zap.SugaredLogger
	registry *prometheus.Registry
}

func newApp(provider oauth.IUserInfoProvider, logger *zap.SugaredLogger, registry *prometheus.Registry) *App {
	return &App{
		provider: provider,
		logger:   logger,
		registry: registry,
	}
}

// Fetch resolves token and writes the claims to w as indented JSON.
func (a *App) Fetch(ctx context.Context, token string, w io.Writer) error {
	info, ok := a.provider.GetUserInfo(ctx, token)
	if !ok {
		return ErrNoUserInfo
	}
	a.logger.Debugw("user info fetched", "claims", len(info))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

// WriteMetrics writes the userinfo_* series in the text exposition format.
func (a *App) WriteMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), metricsPrefix) {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
