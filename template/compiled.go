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

package template

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/msgtpl/apis"
)

// NewCompiled creates the generated backend for objects. The first build
// for a type compiles a plan (field indices, or accessor method indices for
// beans); later builds return the cached plan. Field templates are resolved
// through res once, on the plan's first use, and kept for its lifetime.
func NewCompiled(res ElemResolver) apis.TemplateBuilder {
	return newCompiled("generated", apis.KindObject, res)
}

// NewCompiledBeans is NewCompiled for beans: accessor method indices are
// resolved once at compile time.
func NewCompiledBeans(res ElemResolver) apis.TemplateBuilder {
	return newCompiled("generated-beans", apis.KindBean, res)
}

func newCompiled(name string, kind apis.Kind, res ElemResolver) *compiledBuilder {
	if res == nil {
		panic("msgtpl(template): nil field resolver for " + name)
	}
	return &compiledBuilder{name: name, kind: kind, res: res}
}

type compiledBuilder struct {
	name string
	kind apis.Kind
	res  ElemResolver
	// plans caches compiled plans by reflect.Type.
	plans sync.Map // map[reflect.Type]*plan
	// group collapses concurrent compilations of the same type.
	group singleflight.Group
}

func (b *compiledBuilder) Name() string { return b.name }

func (b *compiledBuilder) BuildTemplate(desc apis.TypeDescriptor) (apis.Template, error) {
	if err := checkDesc(b.name, desc, b.kind); err != nil {
		return nil, err
	}
	if p, ok := b.plans.Load(desc.Type); ok {
		return p.(*plan), nil
	}

	// Type strings are not unique (e.g. types declared in different
	// functions), so the result is checked against desc.Type below.
	key := desc.Type.PkgPath() + "." + desc.Type.String()
	v, err, _ := b.group.Do(key, func() (any, error) {
		if p, ok := b.plans.Load(desc.Type); ok {
			return p, nil
		}
		p, err := b.compile(desc)
		if err != nil {
			return nil, err
		}
		b.plans.Store(desc.Type, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if p := v.(*plan); p.typ == desc.Type {
		return p, nil
	}
	p, err := b.compile(desc)
	if err != nil {
		return nil, err
	}
	actual, _ := b.plans.LoadOrStore(desc.Type, p)
	return actual.(*plan), nil
}

// compile turns desc into a plan of precomputed field accessors. Field
// templates are left unbound: binding resolves them through the chain, which
// may lead back to this very type, so the plan must be cached first.
func (b *compiledBuilder) compile(desc apis.TypeDescriptor) (*plan, error) {
	p := &plan{typ: desc.Type, name: desc.Name, beans: b.kind == apis.KindBean, res: b.res}
	p.fields = make([]fieldPlan, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		fp := fieldPlan{name: f.Name, optional: f.Optional, typ: f.Type}
		if p.beans {
			pt := reflect.PointerTo(desc.Type)
			get, ok := pt.MethodByName("Get" + f.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %s.Get%s", ErrAccessor, desc.Name, f.Name)
			}
			set, ok := pt.MethodByName("Set" + f.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %s.Set%s", ErrAccessor, desc.Name, f.Name)
			}
			fp.getter, fp.setter = get.Index, set.Index
		} else {
			fp.index = f.Index
		}
		p.fields = append(p.fields, fp)
	}
	return p, nil
}

// plan is the compiled Template of one struct type. Immutable once bound.
type plan struct {
	typ    reflect.Type
	name   string
	beans  bool
	fields []fieldPlan
	res    ElemResolver

	bindOnce sync.Once
	bindErr  error
}

type fieldPlan struct {
	name     string
	optional bool
	typ      reflect.Type
	index    []int
	getter   int
	setter   int
	enc      func(*msgpack.Encoder, reflect.Value) error
	dec      func(*msgpack.Decoder, reflect.Value) error
}

// bind resolves every field template once. Builtin scalars that resolve to
// the native template get specialized encoders instead.
func (p *plan) bind() error {
	p.bindOnce.Do(func() {
		for i := range p.fields {
			f := &p.fields[i]
			tpl, err := fieldTemplate(p.res, f.typ)
			if err != nil {
				p.bindErr = fmt.Errorf("%s.%s: %w", p.name, f.name, err)
				return
			}
			if isNative(tpl) {
				f.enc, f.dec = encoderFor(f.typ), decoderFor(f.typ)
			} else {
				f.enc, f.dec = tpl.Write, tpl.Read
			}
		}
	})
	return p.bindErr
}

func (p *plan) Write(enc *msgpack.Encoder, v reflect.Value) error {
	v, done, err := writePrologue(enc, v, p.typ)
	if done {
		return err
	}
	if err := p.bind(); err != nil {
		return err
	}
	if p.beans {
		v = addressable(v).Addr()
	}
	if err := enc.EncodeArrayLen(len(p.fields)); err != nil {
		return err
	}
	for i := range p.fields {
		f := &p.fields[i]
		var fv reflect.Value
		if p.beans {
			fv = v.Method(f.getter).Call(nil)[0]
		} else {
			fv = v.FieldByIndex(f.index)
		}
		if f.optional && fv.IsZero() {
			err = enc.EncodeNil()
		} else {
			err = f.enc(enc, fv)
		}
		if err != nil {
			return fmt.Errorf("%s.%s: %w", p.name, f.name, err)
		}
	}
	return nil
}

func (p *plan) Read(dec *msgpack.Decoder, v reflect.Value) error {
	v, done, err := readPrologue(dec, v, p.typ)
	if done {
		return err
	}
	if err := p.bind(); err != nil {
		return err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	for i := range p.fields {
		f := &p.fields[i]
		if i >= n {
			if !f.optional {
				return fmt.Errorf("%w: %s.%s", ErrMissingField, p.name, f.name)
			}
			continue
		}
		if err := p.readField(dec, v, f); err != nil {
			return fmt.Errorf("%s.%s: %w", p.name, f.name, err)
		}
	}
	for i := len(p.fields); i < n; i++ {
		if err := dec.Skip(); err != nil {
			return err
		}
	}
	return nil
}

func (p *plan) readField(dec *msgpack.Decoder, v reflect.Value, f *fieldPlan) error {
	if f.optional {
		isNil, err := readNil(dec)
		if err != nil {
			return err
		}
		if isNil {
			if !p.beans {
				fv := v.FieldByIndex(f.index)
				fv.Set(reflect.Zero(f.typ))
			}
			return nil
		}
	}
	if !p.beans {
		return f.dec(dec, v.FieldByIndex(f.index))
	}
	tmp := reflect.New(f.typ).Elem()
	if err := f.dec(dec, tmp); err != nil {
		return err
	}
	v.Addr().Method(f.setter).Call([]reflect.Value{tmp})
	return nil
}

// encoderFor returns a specialized encoder for builtin scalar types and the
// generic msgpack path for everything else. Integer widths match what
// EncodeValue writes, so both backends produce the same bytes. Named types
// always take the generic path so custom msgpack encoders keep working.
func encoderFor(t reflect.Type) func(*msgpack.Encoder, reflect.Value) error {
	if t.PkgPath() != "" {
		return encodeGeneric
	}
	switch t.Kind() {
	case reflect.Bool:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeBool(v.Bool()) }
	case reflect.Int:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeInt(v.Int()) }
	case reflect.Int8:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeInt8(int8(v.Int())) }
	case reflect.Int16:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeInt16(int16(v.Int())) }
	case reflect.Int32:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeInt32(int32(v.Int())) }
	case reflect.Int64:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeInt64(v.Int()) }
	case reflect.Uint:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeUint(v.Uint()) }
	case reflect.Uint8:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeUint8(uint8(v.Uint())) }
	case reflect.Uint16:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeUint16(uint16(v.Uint())) }
	case reflect.Uint32:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeUint32(uint32(v.Uint())) }
	case reflect.Uint64:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeUint64(v.Uint()) }
	case reflect.Float32:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeFloat32(float32(v.Float())) }
	case reflect.Float64:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeFloat64(v.Float()) }
	case reflect.String:
		return func(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeString(v.String()) }
	default:
		return encodeGeneric
	}
}

func encodeGeneric(e *msgpack.Encoder, v reflect.Value) error { return e.EncodeValue(v) }

// decoderFor mirrors encoderFor.
func decoderFor(t reflect.Type) func(*msgpack.Decoder, reflect.Value) error {
	if t.PkgPath() != "" {
		return decodeGeneric
	}
	switch t.Kind() {
	case reflect.Bool:
		return func(d *msgpack.Decoder, v reflect.Value) error {
			b, err := d.DecodeBool()
			if err != nil {
				return err
			}
			v.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(d *msgpack.Decoder, v reflect.Value) error {
			n, err := d.DecodeInt64()
			if err != nil {
				return err
			}
			if v.OverflowInt(n) {
				return fmt.Errorf("msgpack: %d overflows %s", n, v.Type())
			}
			v.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(d *msgpack.Decoder, v reflect.Value) error {
			n, err := d.DecodeUint64()
			if err != nil {
				return err
			}
			if v.OverflowUint(n) {
				return fmt.Errorf("msgpack: %d overflows %s", n, v.Type())
			}
			v.SetUint(n)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		return func(d *msgpack.Decoder, v reflect.Value) error {
			f, err := d.DecodeFloat64()
			if err != nil {
				return err
			}
			v.SetFloat(f)
			return nil
		}
	case reflect.String:
		return func(d *msgpack.Decoder, v reflect.Value) error {
			s, err := d.DecodeString()
			if err != nil {
				return err
			}
			v.SetString(s)
			return nil
		}
	default:
		return decodeGeneric
	}
}

func decodeGeneric(d *msgpack.Decoder, v reflect.Value) error { return d.DecodeValue(v) }
