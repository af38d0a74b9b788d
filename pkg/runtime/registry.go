package runtime

import (
	"github.com/open-feature/flagtmpl/pkg/provider"
)

// Factory builds the provider registered under a tag.
type Factory func(cfg Config) (provider.IProvider, error)

// Registry maps provider tags to factories. Only the selected factory is ever invoked.
type Registry map[string]Factory

const (
	NoopProvider         = "noop"
	MockProvider         = "mock"
	HarnessProvider      = "harness"
	LaunchDarklyProvider = "launchdarkly"
	FileProvider         = "file"
)

func DefaultRegistry() Registry {
	return Registry{
		HarnessProvider: func(cfg Config) (provider.IProvider, error) {
			return provider.NewHarnessProvider(provider.HarnessConfiguration{
				APIKey: cfg.APIKey,
				Target: provider.NewTarget(cfg.Target),
				Delay:  cfg.Delay,
			})
		},
		LaunchDarklyProvider: func(cfg Config) (provider.IProvider, error) {
			return provider.NewLaunchDarklyProvider(provider.LaunchDarklyConfiguration{
				APIKey: cfg.APIKey,
				Target: provider.NewTarget(cfg.Target),
				Delay:  cfg.Delay,
			})
		},
		FileProvider: func(cfg Config) (provider.IProvider, error) {
			return provider.NewFilePathProvider(provider.FilePathConfiguration{
				URI:    cfg.URI,
				Target: provider.NewTarget(cfg.Target),
			})
		},
	}
}
