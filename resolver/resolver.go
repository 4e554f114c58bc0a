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

package resolver

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"dirpx.dev/msgtpl/apis"
	"dirpx.dev/msgtpl/config"
	"dirpx.dev/msgtpl/template"
	uref "dirpx.dev/msgtpl/utils/reflect"
)

// ErrNoBuilder is returned when no strategy matches and no forced builder is set.
var ErrNoBuilder = errors.New("msgtpl(resolver): no template builder for type")

// Option configures a resolver built by New.
type Option func(*resolver)

// WithLogger sets the logger used to trace forced fallbacks.
func WithLogger(l *zap.Logger) Option {
	return func(r *resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs an apis.Resolver over reg. The resolver holds reg by
// reference, so later chain mutations are visible to every lookup.
// Descriptors are memoized per Go type; builder resolution is not.
func New(reg apis.Registry, cfg apis.Config, opts ...Option) apis.Resolver {
	if reg == nil {
		panic("msgtpl(resolver): nil registry")
	}
	r := &resolver{reg: reg, cfg: config.Sanitize(cfg), log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type resolver struct {
	reg apis.Registry
	cfg apis.Config
	log *zap.Logger
	// descs caches descriptors by reflect.Type.
	descs sync.Map // map[reflect.Type]apis.TypeDescriptor
}

// Ensure resolver implements apis.Resolver.
var _ apis.Resolver = (*resolver)(nil)

// Describe builds (or recalls) the descriptor of t.
func (r *resolver) Describe(t reflect.Type) (apis.TypeDescriptor, error) {
	if t == nil {
		return apis.TypeDescriptor{}, uref.ErrReflectNilType
	}
	if v, ok := r.descs.Load(t); ok {
		return v.(apis.TypeDescriptor), nil
	}
	desc, err := uref.Describe(t, r.cfg)
	if err != nil {
		return apis.TypeDescriptor{}, fmt.Errorf("describing %s: %w", t, err)
	}
	r.descs.Store(t, desc)
	return desc, nil
}

// BuilderFor asks the chain first. Unmatched KindOther descriptors use the
// native msgpack path; any other unmatched kind falls back to the forced
// builder.
func (r *resolver) BuilderFor(desc apis.TypeDescriptor) (apis.TemplateBuilder, error) {
	if b, ok := r.reg.Resolve(desc); ok {
		return b, nil
	}
	if desc.Kind == apis.KindOther {
		return template.Native(), nil
	}
	if b := r.reg.Forced(); b != nil {
		r.log.Debug("no strategy matched, using forced builder",
			zap.String("type", desc.Name),
			zap.Stringer("kind", desc.Kind),
			zap.String("builder", b.Name()))
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrNoBuilder, desc.Name, desc.Kind)
}

// TemplateFor builds the template for desc through BuilderFor.
func (r *resolver) TemplateFor(desc apis.TypeDescriptor) (apis.Template, error) {
	b, err := r.BuilderFor(desc)
	if err != nil {
		return nil, err
	}
	return b.BuildTemplate(desc)
}
