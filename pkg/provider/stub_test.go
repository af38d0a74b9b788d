package provider

// stubProvider returns canned values and records every call it receives.
type stubProvider struct {
	value interface{}
	calls []string
}

func (s *stubProvider) BoolVariation(flagKey string, _ interface{}) interface{} {
	s.calls = append(s.calls, "bool:"+flagKey)
	return s.value
}

func (s *stubProvider) StringVariation(flagKey string, _ interface{}) interface{} {
	s.calls = append(s.calls, "string:"+flagKey)
	return s.value
}

func (s *stubProvider) NumberVariation(flagKey string, _ interface{}) interface{} {
	s.calls = append(s.calls, "number:"+flagKey)
	return s.value
}

func (s *stubProvider) JSONVariation(flagKey string, _ interface{}) interface{} {
	s.calls = append(s.calls, "json:"+flagKey)
	return s.value
}
