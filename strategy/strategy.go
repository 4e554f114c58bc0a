/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package strategy

import (
	"dirpx.dev/msgtpl/apis"
)

// Names of the strategies registered by the default chain.
const (
	ArrayName       = "array"
	MessageName     = "message"
	BeansName       = "beans"
	OrdinalEnumName = "ordinal-enum"
	EnumName        = "enum"
)

// Func creates an apis.Strategy named name that hands out b for every
// descriptor accepted by match. It panics on a nil match or builder.
func Func(name string, match func(apis.TypeDescriptor) bool, b apis.TemplateBuilder) apis.Strategy {
	if match == nil {
		panic("msgtpl(strategy): nil match predicate for " + name)
	}
	if b == nil {
		panic("msgtpl(strategy): nil builder for " + name)
	}
	return &selector{name: name, match: match, builder: b}
}

// NewArray matches slices and arrays.
func NewArray(b apis.TemplateBuilder) apis.Strategy {
	return Func(ArrayName, kindIs(apis.KindArray), b)
}

// NewMessage matches structs encoded through their exported fields.
func NewMessage(b apis.TemplateBuilder) apis.Strategy {
	return Func(MessageName, kindIs(apis.KindObject), b)
}

// NewBeans matches structs encoded through GetX/SetX accessors.
func NewBeans(b apis.TemplateBuilder) apis.Strategy {
	return Func(BeansName, kindIs(apis.KindBean), b)
}

// NewOrdinalEnum matches every enum and encodes it by position.
func NewOrdinalEnum(b apis.TemplateBuilder) apis.Strategy {
	return Func(OrdinalEnumName, kindIs(apis.KindEnum), b)
}

// NewEnum matches every enum and encodes it by constant name.
// Registered after NewOrdinalEnum it is shadowed unless the chain is reordered.
func NewEnum(b apis.TemplateBuilder) apis.Strategy {
	return Func(EnumName, kindIs(apis.KindEnum), b)
}

// kindIs returns a predicate accepting descriptors of kind k.
func kindIs(k apis.Kind) func(apis.TypeDescriptor) bool {
	return func(desc apis.TypeDescriptor) bool {
		return desc.Kind == k
	}
}

// selector pairs a predicate with a shared builder singleton.
type selector struct {
	name    string
	match   func(apis.TypeDescriptor) bool
	builder apis.TemplateBuilder
}

// Ensure selector implements apis.Strategy.
var _ apis.Strategy = (*selector)(nil)

func (s *selector) Name() string { return s.name }

func (s *selector) Matches(desc apis.TypeDescriptor) bool { return s.match(desc) }

// Build returns the same builder for every descriptor.
func (s *selector) Build(apis.TypeDescriptor) apis.TemplateBuilder { return s.builder }
