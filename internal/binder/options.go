package binder

import (
	"cmdforge/internal/element"
	"cmdforge/internal/pattern"
)

// DefaultRuntime is the import path generated code links against.
const DefaultRuntime = "cmdforge/pkg/dispatch"

type Options struct {
	// Runtime is the import path of the dispatch runtime.
	Runtime string
	// Source is the type of the invoking actor. Zero means <Runtime>.Source.
	Source element.TypeRef
	// CommandPolicy applies to command patterns, BindPolicy to bind patterns.
	CommandPolicy pattern.AliasPolicy
	BindPolicy    pattern.AliasPolicy
}

// DefaultOptions returns the conventional configuration: unrestricted
// aliases on commands, first-token aliases on bind targets.
func DefaultOptions() Options {
	return Options{
		Runtime:       DefaultRuntime,
		CommandPolicy: pattern.Unrestricted,
		BindPolicy:    pattern.FirstTokenOnly,
	}
}

// Normalized fills in defaults.
func (o Options) Normalized() Options {
	if o.Runtime == "" {
		o.Runtime = DefaultRuntime
	}
	if o.Source.IsVoid() {
		o.Source = element.TypeRef{Path: o.Runtime, Name: "Source"}
	}
	return o
}

// SourceType returns the effective actor type.
func (o Options) SourceType() element.TypeRef { return o.Normalized().Source }
