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

	"github.com/vmihailenco/msgpack/v5"

	"dirpx.dev/msgtpl/apis"
)

// NewReflective creates the reflection backend for objects. Templates walk
// the descriptor's fields on every call and resolve each field's template
// through res every time, keeping no per-type state.
func NewReflective(res ElemResolver) apis.TemplateBuilder {
	return newReflective("reflective", apis.KindObject, res)
}

// NewReflectiveBeans is NewReflective for beans: properties are read and
// written through GetX/SetX, looked up by name on every call.
func NewReflectiveBeans(res ElemResolver) apis.TemplateBuilder {
	return newReflective("reflective-beans", apis.KindBean, res)
}

func newReflective(name string, kind apis.Kind, res ElemResolver) *reflectiveBuilder {
	if res == nil {
		panic("msgtpl(template): nil field resolver for " + name)
	}
	return &reflectiveBuilder{name: name, kind: kind, res: res}
}

type reflectiveBuilder struct {
	name string
	kind apis.Kind
	res  ElemResolver
}

func (b *reflectiveBuilder) Name() string { return b.name }

func (b *reflectiveBuilder) BuildTemplate(desc apis.TypeDescriptor) (apis.Template, error) {
	if err := checkDesc(b.name, desc, b.kind); err != nil {
		return nil, err
	}
	return &reflectiveTemplate{desc: desc, beans: b.kind == apis.KindBean, res: b.res}, nil
}

// reflectiveTemplate encodes an object as an array of its fields.
type reflectiveTemplate struct {
	desc  apis.TypeDescriptor
	beans bool
	res   ElemResolver
}

func (t *reflectiveTemplate) Write(enc *msgpack.Encoder, v reflect.Value) error {
	v, done, err := writePrologue(enc, v, t.desc.Type)
	if done {
		return err
	}
	if t.beans {
		v = addressable(v)
	}
	if err := enc.EncodeArrayLen(len(t.desc.Fields)); err != nil {
		return err
	}
	for _, f := range t.desc.Fields {
		if err := t.writeField(enc, v, f); err != nil {
			return fmt.Errorf("%s.%s: %w", t.desc.Name, f.Name, err)
		}
	}
	return nil
}

func (t *reflectiveTemplate) writeField(enc *msgpack.Encoder, v reflect.Value, f apis.Field) error {
	fv, err := t.get(v, f)
	if err != nil {
		return err
	}
	if f.Optional && fv.IsZero() {
		return enc.EncodeNil()
	}
	tpl, err := fieldTemplate(t.res, f.Type)
	if err != nil {
		return err
	}
	return tpl.Write(enc, fv)
}

func (t *reflectiveTemplate) Read(dec *msgpack.Decoder, v reflect.Value) error {
	v, done, err := readPrologue(dec, v, t.desc.Type)
	if done {
		return err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	for i, f := range t.desc.Fields {
		if i >= n {
			if !f.Optional {
				return fmt.Errorf("%w: %s.%s", ErrMissingField, t.desc.Name, f.Name)
			}
			continue
		}
		if err := t.set(dec, v, f); err != nil {
			return fmt.Errorf("%s.%s: %w", t.desc.Name, f.Name, err)
		}
	}
	for i := len(t.desc.Fields); i < n; i++ {
		if err := dec.Skip(); err != nil {
			return err
		}
	}
	return nil
}

func (t *reflectiveTemplate) get(v reflect.Value, f apis.Field) (reflect.Value, error) {
	if !t.beans {
		return v.FieldByIndex(f.Index), nil
	}
	m := v.Addr().MethodByName("Get" + f.Name)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s.Get%s", ErrAccessor, t.desc.Name, f.Name)
	}
	return m.Call(nil)[0], nil
}

func (t *reflectiveTemplate) set(dec *msgpack.Decoder, v reflect.Value, f apis.Field) error {
	if f.Optional {
		isNil, err := readNil(dec)
		if err != nil {
			return err
		}
		if isNil {
			if !t.beans {
				fv := v.FieldByIndex(f.Index)
				fv.Set(reflect.Zero(fv.Type()))
			}
			return nil
		}
	}
	tpl, err := fieldTemplate(t.res, f.Type)
	if err != nil {
		return err
	}
	if !t.beans {
		return tpl.Read(dec, v.FieldByIndex(f.Index))
	}
	m := v.Addr().MethodByName("Set" + f.Name)
	if !m.IsValid() {
		return fmt.Errorf("%w: %s.Set%s", ErrAccessor, t.desc.Name, f.Name)
	}
	tmp := reflect.New(f.Type).Elem()
	if err := tpl.Read(dec, tmp); err != nil {
		return err
	}
	m.Call([]reflect.Value{tmp})
	return nil
}
