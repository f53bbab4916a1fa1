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

package trace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-arcade/userinfo/pkg/log"
	"github.com/go-arcade/userinfo/pkg/version"
	"github.com/google/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// ProviderSet is the Wire provider set for the trace package.
var ProviderSet = wire.NewSet(
	ProvideTracerProvider,
	wire.Bind(new(oteltrace.TracerProvider), new(*sdktrace.TracerProvider)),
)

// Conf holds the OTLP exporter settings. With Enabled false spans are still
// created and sampled so logs carry trace ids, but nothing is exported.
type Conf struct {
	Enabled       bool
	Protocol      string // grpc or http
	Endpoint      string // host:port, defaults per protocol
	Insecure      bool
	ServiceName   string
	Headers       map[string]string
	ExportTimeout time.Duration
}

// SetDefaults returns the default trace configuration.
func SetDefaults() *Conf {
	return &Conf{
		Enabled:       false,
		Protocol:      ProtocolGRPC,
		Insecure:      false,
		ServiceName:   "arcade-userinfo",
		ExportTimeout: 30 * time.Second,
	}
}

// Validate checks the exporter settings and fills the endpoint for enabled configs.
func (c *Conf) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Protocol {
	case ProtocolGRPC:
		if c.Endpoint == "" {
			c.Endpoint = "localhost:4317"
		}
	case ProtocolHTTP:
		if c.Endpoint == "" {
			c.Endpoint = "localhost:4318"
		}
	default:
		return fmt.Errorf("unsupported trace protocol: %q", c.Protocol)
	}
	if c.ServiceName == "" {
		c.ServiceName = "arcade-userinfo"
	}
	return nil
}

// ProvideTracerProvider is the Wire adapter around InitTracerProvider.
func ProvideTracerProvider(conf *Conf) (*sdktrace.TracerProvider, func(), error) {
	return InitTracerProvider(context.Background(), conf)
}

// InitTracerProvider builds the process TracerProvider and installs it as the otel global.
// The cleanup flushes and shuts it down.
func InitTracerProvider(ctx context.Context, conf *Conf) (*sdktrace.TracerProvider, func(), error) {
	if conf == nil {
		conf = SetDefaults()
	}
	if err := conf.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid trace config: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if conf.Enabled {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(conf.ServiceName),
				semconv.ServiceVersionKey.String(version.GetVersion().Version),
			),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create resource: %w", err)
		}

		exporter, err := createExporter(ctx, conf)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		opts = append(opts,
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(conf.ExportTimeout)),
		)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	if conf.Enabled {
		log.Infow("OpenTelemetry tracing initialized",
			"protocol", conf.Protocol,
			"endpoint", conf.Endpoint,
			"service", conf.ServiceName,
		)
	}

	cleanup := func() {
		timeout := max(conf.ExportTimeout, 5*time.Second)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				log.Warnf("TracerProvider shutdown timeout after %v", timeout)
				return
			}
			log.Warnw("failed to shutdown TracerProvider", "error", err)
		}
	}
	return tp, cleanup, nil
}

func createExporter(ctx context.Context, conf *Conf) (sdktrace.SpanExporter, error) {
	switch conf.Protocol {
	case ProtocolGRPC:
		return createGRPCExporter(ctx, conf)
	case ProtocolHTTP:
		return createHTTPExporter(ctx, conf)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", conf.Protocol)
	}
}

func createGRPCExporter(ctx context.Context, conf *Conf) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(conf.Endpoint),
	}
	if conf.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(conf.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(conf.Headers))
	}
	if conf.ExportTimeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(conf.ExportTimeout))
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

func createHTTPExporter(ctx context.Context, conf *Conf) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(conf.Endpoint),
	}
	if conf.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(conf.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(conf.Headers))
	}
	if conf.ExportTimeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(conf.ExportTimeout))
	}
	return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
}
