package provider

import (
	"github.com/open-feature/flagtmpl/pkg/model"
)

// ValidatingClient wraps an IProvider and enforces that defaults and results belong to the
// type set of the requested kind. It is the only place flag kinds are checked.
type ValidatingClient struct {
	provider IProvider
}

// NewValidatingClient wraps p. A *ValidatingClient is not an IProvider, so a client can never
// be wrapped twice.
func NewValidatingClient(p IProvider) *ValidatingClient {
	return &ValidatingClient{provider: p}
}

// Provider returns the wrapped provider.
func (c *ValidatingClient) Provider() IProvider {
	return c.provider
}

func (c *ValidatingClient) BoolVariation(flagKey string, defaultValue interface{}) (interface{}, error) {
	return c.evaluate(model.Boolean, c.provider.BoolVariation, flagKey, defaultValue)
}

func (c *ValidatingClient) StringVariation(flagKey string, defaultValue interface{}) (interface{}, error) {
	return c.evaluate(model.String, c.provider.StringVariation, flagKey, defaultValue)
}

func (c *ValidatingClient) NumberVariation(flagKey string, defaultValue interface{}) (interface{}, error) {
	return c.evaluate(model.Number, c.provider.NumberVariation, flagKey, defaultValue)
}

func (c *ValidatingClient) JSONVariation(flagKey string, defaultValue interface{}) (interface{}, error) {
	return c.evaluate(model.JSON, c.provider.JSONVariation, flagKey, defaultValue)
}

// Variation dispatches to the typed operation for kind.
func (c *ValidatingClient) Variation(kind model.FlagKind, flagKey string, defaultValue interface{}) (interface{}, error) {
	switch kind {
	case model.Boolean:
		return c.BoolVariation(flagKey, defaultValue)
	case model.String:
		return c.StringVariation(flagKey, defaultValue)
	case model.Number:
		return c.NumberVariation(flagKey, defaultValue)
	default:
		return c.JSONVariation(flagKey, defaultValue)
	}
}

func (c *ValidatingClient) evaluate(
	kind model.FlagKind,
	variation func(string, interface{}) interface{},
	flagKey string,
	defaultValue interface{},
) (interface{}, error) {
	if flagKey == "" {
		return nil, model.ErrEmptyFlagKey
	}
	if defaultValue == nil {
		defaultValue = kind.ZeroDefault()
	} else if !kind.Accepts(defaultValue) {
		return nil, &model.EvaluationTypeError{
			Operation: kind.Operation(),
			FlagKey:   flagKey,
			Kind:      kind,
			Phase:     model.PhaseDefault,
			Value:     defaultValue,
		}
	}

	value := variation(flagKey, defaultValue)
	if !kind.Accepts(value) {
		return nil, &model.EvaluationTypeError{
			Operation: kind.Operation(),
			FlagKey:   flagKey,
			Kind:      kind,
			Phase:     model.PhaseResult,
			Value:     value,
		}
	}
	return value, nil
}
