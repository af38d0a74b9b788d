package provider

// IProvider is the capability every flag backend implements. Each method looks the flag up
// for the provider's fixed target and returns defaultValue when it cannot be resolved.
// Implementations must be safe for concurrent use and must not panic on unknown flags.
type IProvider interface {
	BoolVariation(flagKey string, defaultValue interface{}) interface{}
	StringVariation(flagKey string, defaultValue interface{}) interface{}
	NumberVariation(flagKey string, defaultValue interface{}) interface{}
	JSONVariation(flagKey string, defaultValue interface{}) interface{}
}

// Shutdowner is implemented by providers holding a remote session that must be flushed or
// closed at process exit.
type Shutdowner interface {
	Shutdown() error
}

// Snapshotter is implemented by providers that hold the whole flag document locally.
type Snapshotter interface {
	Snapshot() string
}
