package runtime

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/provider"
)

// Resolve selects and constructs the provider described by cfg. Disabled flags and an empty
// selector both yield the no-op provider; an unknown selector is an error and constructs
// nothing.
func Resolve(cfg Config, registry Registry) (*provider.ValidatingClient, error) {
	if cfg.Disabled {
		log.Debug("feature flags disabled, using noop provider")
		return provider.NewValidatingClient(provider.NewNoopProvider()), nil
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case "":
		log.Debug("no provider configured, using noop provider")
		return provider.NewValidatingClient(provider.NewNoopProvider()), nil
	case NoopProvider, MockProvider:
		return provider.NewValidatingClient(provider.NewNoopProvider()), nil
	}

	factory, ok := registry[name]
	if !ok || factory == nil {
		return nil, &model.ConfigurationError{
			Key:    ProviderKey,
			Value:  cfg.Provider,
			Reason: "unsupported provider, expected one of " + strings.Join(registry.names(), ", "),
		}
	}

	p, err := factory(cfg)
	if err != nil {
		var cfgErr *model.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &model.ConfigurationError{Key: ProviderKey, Value: cfg.Provider, Reason: "provider construction failed", Err: err}
	}
	if isNil(p) {
		return nil, &model.ConfigurationError{Key: ProviderKey, Value: cfg.Provider, Reason: "factory returned no provider"}
	}

	log.Debugf("Using %s provider", name)
	return provider.NewValidatingClient(p), nil
}

func (r Registry) names() []string {
	names := []string{NoopProvider, MockProvider}
	for name := range r {
		if name != NoopProvider && name != MockProvider {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func isNil(p provider.IProvider) bool {
	if p == nil {
		return true
	}
	rv := reflect.ValueOf(p)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// Runtime owns the process wide flag client. The provider is resolved on first use, exactly
// once, and shut down once.
type Runtime struct {
	cfg      Config
	registry Registry

	mu       sync.Mutex
	resolved bool
	client   *provider.ValidatingClient
	err      error
	shutdown bool
}

func New(cfg Config, registry Registry) *Runtime {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Runtime{cfg: cfg, registry: registry}
}

// Client returns the memoized client, resolving it on the first call.
func (r *Runtime) Client() (*provider.ValidatingClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.resolved {
		r.client, r.err = Resolve(r.cfg, r.registry)
		r.resolved = true
	}
	return r.client, r.err
}

// Shutdown tears the provider down. Failures are logged, never returned.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown || r.client == nil {
		return
	}
	r.shutdown = true

	s, ok := r.client.Provider().(provider.Shutdowner)
	if !ok {
		return
	}
	if err := s.Shutdown(); err != nil {
		log.WithError(err).Warn("feature flag provider shutdown failed")
	}
}
