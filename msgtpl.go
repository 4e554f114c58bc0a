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

package msgtpl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"dirpx.dev/msgtpl/apis"
	"dirpx.dev/msgtpl/bootstrap"
	"dirpx.dev/msgtpl/config"
	"dirpx.dev/msgtpl/resolver"
)

// ErrNotPointer is returned when Decode/Unmarshal gets a non-pointer or nil target.
var ErrNotPointer = errors.New("msgtpl: decode target must be a non-nil pointer")

// Option configures a Codec.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger sets the logger passed down to the registry and resolver.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Codec encodes and decodes Go values with templates chosen by a strategy
// chain. It is safe for concurrent use; chain mutations made through
// Registry() are picked up by subsequent calls.
type Codec struct {
	cfg apis.Config
	reg apis.Registry
	res apis.Resolver
}

// New creates a Codec over the default chain for cfg.Backend.
func New(cfg apis.Config, opts ...Option) *Codec {
	o := buildOptions(opts)
	cfg = config.Sanitize(cfg)
	reg, res := bootstrap.New(cfg, bootstrap.WithLogger(o.log))
	return &Codec{cfg: cfg, reg: reg, res: res}
}

// NewWithRegistry creates a Codec over a caller-assembled registry.
func NewWithRegistry(reg apis.Registry, cfg apis.Config, opts ...Option) *Codec {
	o := buildOptions(opts)
	cfg = config.Sanitize(cfg)
	return &Codec{cfg: cfg, reg: reg, res: resolver.New(reg, cfg, resolver.WithLogger(o.log))}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Config returns the configuration the Codec was built with.
func (c *Codec) Config() apis.Config { return c.cfg }

// Registry returns the strategy chain. Mutating it customizes the Codec.
func (c *Codec) Registry() apis.Registry { return c.reg }

// Resolver returns the resolver used to build templates.
func (c *Codec) Resolver() apis.Resolver { return c.res }

// TemplateOf returns the template for t.
func (c *Codec) TemplateOf(t reflect.Type) (apis.Template, error) {
	desc, err := c.res.Describe(t)
	if err != nil {
		return nil, err
	}
	return c.res.TemplateFor(desc)
}

// Encode writes v to w.
func (c *Codec) Encode(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	if v == nil {
		return enc.EncodeNil()
	}
	rv := reflect.ValueOf(v)
	tpl, err := c.TemplateOf(rv.Type())
	if err != nil {
		return err
	}
	if err := tpl.Write(enc, rv); err != nil {
		return fmt.Errorf("encoding %s: %w", rv.Type(), err)
	}
	return nil
}

// Decode reads one value from r into the value pointed to by v.
func (c *Codec) Decode(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNotPointer
	}
	tpl, err := c.TemplateOf(rv.Type().Elem())
	if err != nil {
		return err
	}
	if err := tpl.Read(msgpack.NewDecoder(r), rv.Elem()); err != nil {
		return fmt.Errorf("decoding %s: %w", rv.Type().Elem(), err)
	}
	return nil
}

// Marshal returns the encoding of v.
func (c *Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into the value pointed to by v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return c.Decode(bytes.NewReader(data), v)
}
