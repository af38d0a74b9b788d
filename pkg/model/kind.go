package model

import (
	"fmt"
	"reflect"
	"strings"
)

// FlagKind is the closed set of value categories a flag can be evaluated as.
type FlagKind int

const (
	Boolean FlagKind = iota
	String
	Number
	JSON
)

var kindNames = map[FlagKind]string{
	Boolean: "bool",
	String:  "string",
	Number:  "number",
	JSON:    "json",
}

var kindOperations = map[FlagKind]string{
	Boolean: "BoolVariation",
	String:  "StringVariation",
	Number:  "NumberVariation",
	JSON:    "JSONVariation",
}

// Kinds lists every FlagKind in declaration order.
var Kinds = []FlagKind{Boolean, String, Number, JSON}

func (k FlagKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FlagKind(%d)", int(k))
}

// Operation is the name of the typed evaluation method serving this kind.
func (k FlagKind) Operation() string {
	return kindOperations[k]
}

// ParseKind accepts the names returned by FlagKind.String plus a few aliases.
func ParseKind(name string) (FlagKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool", "boolean":
		return Boolean, nil
	case "string", "str":
		return String, nil
	case "number", "num", "float", "int":
		return Number, nil
	case "json", "object", "array":
		return JSON, nil
	}
	return 0, fmt.Errorf("unknown flag kind %q", name)
}

// Accepts reports whether v's dynamic type belongs to the kind's type set.
// JSON values must be non-nil maps or slices.
func (k FlagKind) Accepts(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch k {
	case Boolean:
		return rv.Kind() == reflect.Bool
	case String:
		return rv.Kind() == reflect.String
	case Number:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case JSON:
		switch rv.Kind() {
		case reflect.Map, reflect.Slice:
			return !rv.IsNil()
		}
		return false
	}
	return false
}

// ZeroDefault is the default used when a caller supplies none.
func (k FlagKind) ZeroDefault() interface{} {
	switch k {
	case Boolean:
		return false
	case String:
		return ""
	case Number:
		return 0
	case JSON:
		return map[string]interface{}{}
	}
	return nil
}

// KindOf returns the kind whose type set contains v.
func KindOf(v interface{}) (FlagKind, bool) {
	for _, k := range Kinds {
		if k.Accepts(v) {
			return k, true
		}
	}
	return 0, false
}

// TypeName describes the dynamic type of v for error messages.
func TypeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
