package oauth

import (
	"github.com/go-resty/resty/v2"
	"github.com/google/wire"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProviderSet is the Wire provider set for the user info provider.
var ProviderSet = wire.NewSet(
	ProvideUserInfoProvider,
	wire.Bind(new(IUserInfoProvider), new(*UserInfoProvider)),
)

// ProvideUserInfoProvider builds the provider from its wired collaborators.
func ProvideUserInfoProvider(
	props *ServiceProperties,
	client *resty.Client,
	recorder Recorder,
	logger *zap.SugaredLogger,
	tp trace.TracerProvider,
) (*UserInfoProvider, error) {
	return NewUserInfoProvider(props,
		WithClient(client),
		WithRecorder(recorder),
		WithLogger(logger),
		WithTracerProvider(tp),
	)
}
