package provider

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/open-feature/flagtmpl/pkg/model"
)

const (
	DefaultTargetName = "default"
	identifierPrefix  = "flagtmpl-"
	maxDelay          = time.Minute
)

// NewTarget builds the identity a process evaluates every flag for.
func NewTarget(name string) model.Target {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTargetName
	}
	return model.Target{
		Identifier: identifierPrefix + name,
		Name:       title(name),
		Target:     name,
	}
}

func title(s string) string {
	runes := []rune(strings.ToLower(s))
	upper := true
	for i, r := range runes {
		if upper && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
		}
		upper = !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}
	return string(runes)
}

// boundedDelay clamps the initial synchronization wait.
func boundedDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

func toFloat64(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
