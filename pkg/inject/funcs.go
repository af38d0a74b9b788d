// Package inject exposes a flag client to text/template as four functions:
//
//	{{ if feature_flag "new_rollup" false }} ... {{ end }}
//	{{ feature_flag_str "warehouse" "small" }}
//	{{ feature_flag_num "sample_rate" 0.1 }}
//	{{ range $k, $v := feature_flag_json "limits" }} ... {{ end }}
//
// The default may be omitted, in which case the kind's zero value is used. A default or a
// flag value of the wrong kind aborts template execution.
package inject

import (
	"fmt"
	"text/template"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/provider"
)

const (
	BoolFunc   = "feature_flag"
	StringFunc = "feature_flag_str"
	NumberFunc = "feature_flag_num"
	JSONFunc   = "feature_flag_json"
)

// FuncNames maps every injected function name to the kind it evaluates.
var FuncNames = map[string]model.FlagKind{
	BoolFunc:   model.Boolean,
	StringFunc: model.String,
	NumberFunc: model.Number,
	JSONFunc:   model.JSON,
}

// Variation is the signature of every injected function.
type Variation func(flagKey string, defaultValue ...interface{}) (interface{}, error)

// FuncMap returns the four flag functions bound to c.
func FuncMap(c *provider.ValidatingClient) template.FuncMap {
	funcs := template.FuncMap{}
	for name, kind := range FuncNames {
		funcs[name] = bind(c, name, kind)
	}
	return funcs
}

// Inject registers the flag functions into scope. A scope that already holds all four
// flag functions is left untouched.
func Inject(scope template.FuncMap, c *provider.ValidatingClient) template.FuncMap {
	if scope == nil {
		scope = template.FuncMap{}
	}
	if Injected(scope) {
		return scope
	}
	for name, fn := range FuncMap(c) {
		scope[name] = fn
	}
	return scope
}

// Injected reports whether scope already holds the four flag functions.
func Injected(scope template.FuncMap) bool {
	for name := range FuncNames {
		if _, ok := scope[name].(Variation); !ok {
			return false
		}
	}
	return true
}

// New returns a template with the flag functions available.
func New(name string, c *provider.ValidatingClient) *template.Template {
	return template.New(name).Funcs(FuncMap(c))
}

func bind(c *provider.ValidatingClient, name string, kind model.FlagKind) Variation {
	return func(flagKey string, defaultValue ...interface{}) (interface{}, error) {
		var def interface{}
		switch len(defaultValue) {
		case 0:
		case 1:
			def = defaultValue[0]
		default:
			return nil, fmt.Errorf("%s(%q): expected at most one default, got %d", name, flagKey, len(defaultValue))
		}
		return c.Variation(kind, flagKey, def)
	}
}
