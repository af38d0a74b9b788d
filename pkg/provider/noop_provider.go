package provider

import (
	log "github.com/sirupsen/logrus"

	"github.com/open-feature/flagtmpl/pkg/model"
)

var _ IProvider = (*NoopProvider)(nil)

// NoopProvider returns the caller default for every flag. It is used whenever flags are
// disabled or no provider is configured.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (n *NoopProvider) BoolVariation(flagKey string, defaultValue interface{}) interface{} {
	return n.mock(model.Boolean, flagKey, defaultValue)
}

func (n *NoopProvider) StringVariation(flagKey string, defaultValue interface{}) interface{} {
	return n.mock(model.String, flagKey, defaultValue)
}

func (n *NoopProvider) NumberVariation(flagKey string, defaultValue interface{}) interface{} {
	return n.mock(model.Number, flagKey, defaultValue)
}

func (n *NoopProvider) JSONVariation(flagKey string, defaultValue interface{}) interface{} {
	return n.mock(model.JSON, flagKey, defaultValue)
}

func (n *NoopProvider) mock(kind model.FlagKind, flagKey string, defaultValue interface{}) interface{} {
	log.WithField("flag", flagKey).Infof("Mocking %s flag with default return value", kind)
	if defaultValue == nil {
		return kind.ZeroDefault()
	}
	return defaultValue
}
