package model

import "encoding/json"

const (
	EnabledState  = "ENABLED"
	DisabledState = "DISABLED"
)

// Flag is a single flag definition as found in a local flag document.
type Flag struct {
	State          string                 `json:"state"`
	DefaultVariant string                 `json:"defaultVariant"`
	Variants       map[string]interface{} `json:"variants"`
	Targeting      json.RawMessage        `json:"targeting,omitempty"`
	Metadata       Metadata               `json:"metadata,omitempty"`
	Key            string                 `json:"-"`
}

// Flags is the top level shape of a flag document.
type Flags struct {
	Flags    map[string]Flag `json:"flags"`
	Metadata Metadata        `json:"metadata,omitempty"`
}

type Metadata = map[string]interface{}

// Target is the fixed identity every evaluation of a process is made for.
type Target struct {
	Identifier string
	Name       string
	Target     string
}
