package provider

import (
	"errors"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/launchdarkly/go-server-sdk/v7/ldcomponents"
	log "github.com/sirupsen/logrus"

	"github.com/open-feature/flagtmpl/pkg/model"
)

var _ IProvider = (*LaunchDarklyProvider)(nil)

const defaultLaunchDarklyWait = 5 * time.Second

type LaunchDarklyConfiguration struct {
	APIKey string
	Target model.Target
	// Delay bounds how long construction waits for the SDK to initialize.
	Delay time.Duration
}

type launchDarklyClient interface {
	Initialized() bool
	JSONVariation(key string, context ldcontext.Context, defaultVal ldvalue.Value) (ldvalue.Value, error)
	Close() error
}

var newLaunchDarklyClient = func(apiKey string, waitFor time.Duration) (launchDarklyClient, error) {
	client, err := ld.MakeCustomClient(apiKey, ld.Config{Logging: ldcomponents.NoLogging()}, waitFor)
	if client == nil {
		return nil, err
	}
	// a timeout still yields a usable client, readiness is checked by the caller
	if err != nil && !errors.Is(err, ld.ErrInitializationTimeout) {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// LaunchDarklyProvider evaluates flags with the LaunchDarkly server SDK. Flags are read
// through the untyped JSON path so the validator sees the value actually configured.
type LaunchDarklyProvider struct {
	client  launchDarklyClient
	context ldcontext.Context
}

func NewLaunchDarklyProvider(cfg LaunchDarklyConfiguration) (*LaunchDarklyProvider, error) {
	if cfg.APIKey == "" {
		return nil, &model.ConfigurationError{
			Key:    "api-key",
			Reason: "the launchdarkly provider requires an SDK key",
		}
	}

	wait := boundedDelay(cfg.Delay)
	if wait == 0 {
		wait = defaultLaunchDarklyWait
	}
	client, err := newLaunchDarklyClient(cfg.APIKey, wait)
	if err != nil {
		return nil, &model.ConfigurationError{Reason: "launchdarkly client creation failed", Err: err}
	}
	if !client.Initialized() {
		_ = client.Close()
		return nil, &model.ConfigurationError{
			Reason: "launchdarkly SDK failed to initialize, ensure the SDK key is correct",
		}
	}

	return &LaunchDarklyProvider{
		client:  client,
		context: ldcontext.NewBuilder(cfg.Target.Identifier).Name(cfg.Target.Name).Build(),
	}, nil
}

func (l *LaunchDarklyProvider) BoolVariation(flagKey string, defaultValue interface{}) interface{} {
	return l.variation(flagKey, defaultValue)
}

func (l *LaunchDarklyProvider) StringVariation(flagKey string, defaultValue interface{}) interface{} {
	return l.variation(flagKey, defaultValue)
}

func (l *LaunchDarklyProvider) NumberVariation(flagKey string, defaultValue interface{}) interface{} {
	return l.variation(flagKey, defaultValue)
}

func (l *LaunchDarklyProvider) JSONVariation(flagKey string, defaultValue interface{}) interface{} {
	return l.variation(flagKey, defaultValue)
}

func (l *LaunchDarklyProvider) variation(flagKey string, defaultValue interface{}) interface{} {
	value, err := l.client.JSONVariation(flagKey, l.context, ldvalue.CopyArbitraryValue(defaultValue))
	if err != nil {
		log.WithError(err).WithField("flag", flagKey).Debug("launchdarkly evaluation failed, using default")
		return defaultValue
	}
	if value.IsNull() {
		return defaultValue
	}
	return value.AsArbitraryValue()
}

func (l *LaunchDarklyProvider) Shutdown() error {
	return l.client.Close()
}
