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

package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"dirpx.dev/msgtpl/apis"
	"dirpx.dev/msgtpl/config"
	"dirpx.dev/msgtpl/registry"
	"dirpx.dev/msgtpl/resolver"
	"dirpx.dev/msgtpl/strategy"
	"dirpx.dev/msgtpl/template"
)

// Option configures New.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger sets the logger handed to the registry and resolver.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates a registry populated with the default chain for cfg.Backend,
// and a resolver over it.
func New(cfg apis.Config, opts ...Option) (apis.Registry, apis.Resolver) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = config.Sanitize(cfg)

	reg := registry.New(registry.WithLogger(o.log))
	res := resolver.New(reg, cfg, resolver.WithLogger(o.log))
	if err := Populate(reg, res, cfg.Backend); err != nil {
		// Sanitize maps unknown backends to the default and reg is fresh,
		// so there is nothing left to fail on.
		panic(err)
	}
	o.log.Info("template strategy chain ready",
		zap.Stringer("backend", cfg.Backend),
		zap.Strings("chain", reg.Names()),
		zap.String("forced", reg.Forced().Name()))
	return reg, res
}

// Populate appends the default chain to reg and sets its forced builder:
//
//  1. array
//  2. message (object by fields)
//  3. beans (object by accessors)
//  4. ordinal-enum
//  5. enum
//
// Array elements and object fields get their templates from res, so they go
// through the same chain. backend decides whether steps 2 and 3 and the
// forced builder use the generated or the reflective family. Both enum
// strategies match every enum, so "enum" only takes effect if a caller moves
// it ahead of "ordinal-enum".
//
// If reg already holds one of the default names, Populate fails with
// registry.ErrDuplicateName before changing anything.
func Populate(reg apis.Registry, res template.ElemResolver, backend apis.Backend) error {
	var object, beans apis.TemplateBuilder
	switch backend {
	case apis.BackendGenerated:
		object, beans = template.NewCompiled(res), template.NewCompiledBeans(res)
	case apis.BackendReflective:
		object, beans = template.NewReflective(res), template.NewReflectiveBeans(res)
	default:
		return fmt.Errorf("%w: %d", apis.ErrUnknownBackend, int(backend))
	}

	chain := []apis.Strategy{
		strategy.NewArray(template.NewArray(res)),
		strategy.NewMessage(object),
		strategy.NewBeans(beans),
		strategy.NewOrdinalEnum(template.NewOrdinalEnum()),
		strategy.NewEnum(template.NewNameEnum()),
	}
	for _, s := range chain {
		if reg.Contains(s.Name()) {
			return fmt.Errorf("%w: %q", registry.ErrDuplicateName, s.Name())
		}
	}
	for _, s := range chain {
		if err := reg.Append(s); err != nil {
			return err
		}
	}
	reg.SetForced(object)
	return nil
}
