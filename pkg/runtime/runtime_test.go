package runtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/provider"
)

type recordingProvider struct {
	provider.NoopProvider
	shutdowns int
	err       error
}

func (r *recordingProvider) Shutdown() error {
	r.shutdowns++
	return r.err
}

// recordingRegistry counts constructions per tag.
type recordingRegistry struct {
	mu    sync.Mutex
	built map[string]int
	p     *recordingProvider
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{built: map[string]int{}, p: &recordingProvider{}}
}

func (r *recordingRegistry) registry() Registry {
	factory := func(name string) Factory {
		return func(Config) (provider.IProvider, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.built[name]++
			return r.p, nil
		}
	}
	return Registry{
		HarnessProvider:      factory(HarnessProvider),
		LaunchDarklyProvider: factory(LaunchDarklyProvider),
	}
}

func isNoop(t *testing.T, c *provider.ValidatingClient) {
	t.Helper()
	_, ok := c.Provider().(*provider.NoopProvider)
	assert.True(t, ok, "expected noop provider, got %T", c.Provider())
}

func TestResolve_NoSelector_Noop(t *testing.T) {
	rec := newRecordingRegistry()

	client, err := Resolve(Config{APIKey: "key", Target: "prod"}, rec.registry())
	require.NoError(t, err)
	isNoop(t, client)
	assert.Empty(t, rec.built)
}

func TestResolve_Disabled_Noop(t *testing.T) {
	rec := newRecordingRegistry()

	client, err := Resolve(Config{Disabled: true}, rec.registry())
	require.NoError(t, err)
	isNoop(t, client)
}

func TestResolve_DisabledWithValidSelector_ProviderNeverBuilt(t *testing.T) {
	rec := newRecordingRegistry()

	client, err := Resolve(Config{Disabled: true, Provider: HarnessProvider, APIKey: "key"}, rec.registry())
	require.NoError(t, err)
	isNoop(t, client)
	assert.Zero(t, rec.built[HarnessProvider])
}

func TestResolve_UnknownSelector_ConfigurationError(t *testing.T) {
	rec := newRecordingRegistry()

	client, err := Resolve(Config{Provider: "unleash"}, rec.registry())

	assert.Nil(t, client)
	var cfgErr *model.ConfigurationError
	if assert.True(t, errors.As(err, &cfgErr)) {
		assert.Equal(t, ProviderKey, cfgErr.Key)
		assert.Equal(t, "unleash", cfgErr.Value)
		assert.Contains(t, err.Error(), "unleash")
	}
	assert.Empty(t, rec.built)
}

func TestResolve_UnknownSelector_ListsNoopAndMock(t *testing.T) {
	_, err := Resolve(Config{Provider: "unleash"}, DefaultRegistry())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one of file, harness, launchdarkly, mock, noop")
}

func TestResolve_KnownSelector_BuildsThatProviderOnly(t *testing.T) {
	rec := newRecordingRegistry()

	client, err := Resolve(Config{Provider: " LaunchDarkly "}, rec.registry())
	require.NoError(t, err)
	assert.Same(t, rec.p, client.Provider())
	assert.Equal(t, map[string]int{LaunchDarklyProvider: 1}, rec.built)
}

func TestResolve_NoopSelector_Noop(t *testing.T) {
	client, err := Resolve(Config{Provider: "mock"}, Registry{})
	require.NoError(t, err)
	isNoop(t, client)
}

func TestResolve_FactoryFails_ConfigurationError(t *testing.T) {
	registry := Registry{HarnessProvider: func(Config) (provider.IProvider, error) {
		return nil, errors.New("boom")
	}}

	_, err := Resolve(Config{Provider: HarnessProvider}, registry)

	var cfgErr *model.ConfigurationError
	if assert.True(t, errors.As(err, &cfgErr)) {
		assert.EqualError(t, cfgErr.Unwrap(), "boom")
	}
}

func TestResolve_FactoryReturnsTypedNil_ConfigurationError(t *testing.T) {
	registry := Registry{HarnessProvider: func(Config) (provider.IProvider, error) {
		var p *provider.HarnessProvider
		return p, nil
	}}

	_, err := Resolve(Config{Provider: HarnessProvider}, registry)

	var cfgErr *model.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestResolve_RemoteProviderWithoutKey_ConfigurationError(t *testing.T) {
	for _, name := range []string{HarnessProvider, LaunchDarklyProvider} {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(Config{Provider: name}, DefaultRegistry())

			var cfgErr *model.ConfigurationError
			if assert.True(t, errors.As(err, &cfgErr)) {
				assert.Equal(t, APIKeyKey, cfgErr.Key)
			}
		})
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	client, err := Resolve(Config{}, DefaultRegistry())
	require.NoError(t, err)

	b, err := client.BoolVariation("any_flag", false)
	require.NoError(t, err)
	assert.Equal(t, false, b)

	j, err := client.JSONVariation("any_flag", map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1}, j)
}

func TestRuntime_Client_ResolvesOnce(t *testing.T) {
	rec := newRecordingRegistry()
	rt := New(Config{Provider: HarnessProvider}, rec.registry())

	var wg sync.WaitGroup
	clients := make([]*provider.ValidatingClient, 8)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], _ = rt.Client()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, rec.built[HarnessProvider])
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
}

func TestRuntime_Client_MemoizesError(t *testing.T) {
	rt := New(Config{Provider: "bogus"}, Registry{})

	_, err1 := rt.Client()
	_, err2 := rt.Client()
	assert.Error(t, err1)
	assert.Same(t, err1, err2)
}

func TestRuntime_Shutdown_Once_SwallowsError(t *testing.T) {
	rec := newRecordingRegistry()
	rec.p.err = errors.New("flush failed")
	rt := New(Config{Provider: HarnessProvider}, rec.registry())

	_, err := rt.Client()
	require.NoError(t, err)

	rt.Shutdown()
	rt.Shutdown()
	assert.Equal(t, 1, rec.p.shutdowns)
}

func TestRuntime_Shutdown_BeforeClient_NoOp(t *testing.T) {
	rt := New(Config{}, nil)

	assert.NotPanics(t, rt.Shutdown)
}
