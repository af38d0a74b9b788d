package provider

import (
	"errors"
	"fmt"
	"time"

	harness "github.com/harness/ff-golang-server-sdk/client"
	"github.com/harness/ff-golang-server-sdk/evaluation"
	"github.com/harness/ff-golang-server-sdk/types"
	log "github.com/sirupsen/logrus"

	"github.com/open-feature/flagtmpl/pkg/model"
)

var _ IProvider = (*HarnessProvider)(nil)

type HarnessConfiguration struct {
	APIKey string
	Target model.Target
	// Delay is how long to wait for the initial flag load before checking readiness. The
	// readiness check itself gives up after harnessInitTimeout, so startup is bounded by
	// Delay plus that timeout.
	Delay time.Duration
}

// harnessInitTimeout bounds IsInitialized, which otherwise polls for up to a minute.
var harnessInitTimeout = 5 * time.Second

// harnessClient is the subset of the Harness SDK client the provider uses.
type harnessClient interface {
	IsInitialized() (bool, error)
	BoolVariation(key string, target *evaluation.Target, defaultValue bool) (bool, error)
	StringVariation(key string, target *evaluation.Target, defaultValue string) (string, error)
	NumberVariation(key string, target *evaluation.Target, defaultValue float64) (float64, error)
	JSONVariation(key string, target *evaluation.Target, defaultValue types.JSON) (types.JSON, error)
	Close() error
}

var newHarnessClient = func(apiKey string, logger *log.Logger) (harnessClient, error) {
	return harness.NewCfClient(apiKey, harness.WithLogger(logger))
}

// harnessLogger routes SDK logs through logrus. The SDK logs every missed evaluation at info,
// so it is held at error level unless flagtmpl itself is quieter.
func harnessLogger() *log.Logger {
	std := log.StandardLogger()
	logger := log.New()
	logger.SetOutput(std.Out)
	logger.SetFormatter(std.Formatter)
	level := log.ErrorLevel
	if std.GetLevel() < level {
		level = std.GetLevel()
	}
	logger.SetLevel(level)
	return logger
}

// HarnessProvider evaluates flags with Harness Feature Flags.
type HarnessProvider struct {
	client harnessClient
	target *evaluation.Target
}

func NewHarnessProvider(cfg HarnessConfiguration) (*HarnessProvider, error) {
	if cfg.APIKey == "" {
		return nil, &model.ConfigurationError{
			Key:    "api-key",
			Reason: "the harness provider requires an API key",
		}
	}

	client, err := newHarnessClient(cfg.APIKey, harnessLogger())
	if err != nil {
		return nil, &model.ConfigurationError{Reason: "harness client creation failed", Err: err}
	}
	time.Sleep(boundedDelay(cfg.Delay))

	if err := waitInitialized(client, harnessInitTimeout); err != nil {
		_ = client.Close()
		return nil, &model.ConfigurationError{
			Reason: "harness SDK failed to initialize, ensure the API key is correct",
			Err:    err,
		}
	}

	return &HarnessProvider{
		client: client,
		target: &evaluation.Target{
			Identifier: cfg.Target.Identifier,
			Name:       cfg.Target.Name,
		},
	}, nil
}

func waitInitialized(client harnessClient, timeout time.Duration) error {
	result := make(chan error, 1)
	go func() {
		ready, err := client.IsInitialized()
		if err == nil && !ready {
			err = errors.New("not initialized")
		}
		result <- err
	}()

	select {
	case err := <-result:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("not initialized after %s", timeout)
	}
}

func (h *HarnessProvider) BoolVariation(flagKey string, defaultValue interface{}) interface{} {
	def, _ := defaultValue.(bool)
	value, err := h.client.BoolVariation(flagKey, h.target, def)
	if err != nil {
		return h.fallback(flagKey, err, defaultValue)
	}
	return value
}

func (h *HarnessProvider) StringVariation(flagKey string, defaultValue interface{}) interface{} {
	def, _ := defaultValue.(string)
	value, err := h.client.StringVariation(flagKey, h.target, def)
	if err != nil {
		return h.fallback(flagKey, err, defaultValue)
	}
	return value
}

func (h *HarnessProvider) NumberVariation(flagKey string, defaultValue interface{}) interface{} {
	def, _ := toFloat64(defaultValue)
	value, err := h.client.NumberVariation(flagKey, h.target, def)
	if err != nil {
		return h.fallback(flagKey, err, defaultValue)
	}
	return value
}

func (h *HarnessProvider) JSONVariation(flagKey string, defaultValue interface{}) interface{} {
	def, ok := defaultValue.(map[string]interface{})
	if !ok {
		def = types.JSON{}
	}
	value, err := h.client.JSONVariation(flagKey, h.target, def)
	if err != nil {
		return h.fallback(flagKey, err, defaultValue)
	}
	return map[string]interface{}(value)
}

func (h *HarnessProvider) fallback(flagKey string, err error, defaultValue interface{}) interface{} {
	log.WithError(err).WithField("flag", flagKey).Debug("harness evaluation failed, using default")
	return defaultValue
}

func (h *HarnessProvider) Shutdown() error {
	return h.client.Close()
}
