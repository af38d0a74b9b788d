package runtime

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys, also the env var suffixes under the FF_ prefix.
const (
	DisableKey  = "disable"
	ProviderKey = "provider"
	APIKeyKey   = "api-key"
	TargetKey   = "target"
	DelayKey    = "delay"
	URIKey      = "uri"
	LogLevelKey = "log-level"

	EnvPrefix = "FF"
)

// Config is read once at startup.
type Config struct {
	Disabled bool
	Provider string
	APIKey   string
	Target   string
	Delay    time.Duration
	URI      string
}

// SetDefaults registers the defaults and the env binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(TargetKey, "default")
	v.SetDefault(DelayKey, 1.0)
	v.SetDefault(LogLevelKey, "info")
}

// ConfigFromViper builds a Config from v.
func ConfigFromViper(v *viper.Viper) Config {
	return Config{
		Disabled: Truthy(v.GetString(DisableKey)),
		Provider: strings.TrimSpace(v.GetString(ProviderKey)),
		APIKey:   v.GetString(APIKeyKey),
		Target:   v.GetString(TargetKey),
		Delay:    time.Duration(v.GetFloat64(DelayKey) * float64(time.Second)),
		URI:      v.GetString(URIKey),
	}
}

// Truthy reports whether a switch value enables the switch. Any non-empty value other than
// an explicit negative counts.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
