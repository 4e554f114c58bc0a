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
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"dirpx.dev/msgtpl/apis"
)

// NewArray creates the builder for slices and arrays. Element templates are
// obtained from elems, so elements go through the same strategy chain.
func NewArray(elems ElemResolver) apis.TemplateBuilder {
	if elems == nil {
		panic("msgtpl(template): nil element resolver")
	}
	return &arrayBuilder{elems: elems}
}

type arrayBuilder struct {
	elems ElemResolver
}

func (*arrayBuilder) Name() string { return "array" }

func (b *arrayBuilder) BuildTemplate(desc apis.TypeDescriptor) (apis.Template, error) {
	if err := checkDesc("array", desc, apis.KindArray); err != nil {
		return nil, err
	}
	if desc.Elem == nil {
		return nil, errors.New("msgtpl(template): array descriptor without element")
	}
	elem, err := b.elems.TemplateFor(*desc.Elem)
	if err != nil {
		return nil, fmt.Errorf("element of %s: %w", desc.Name, err)
	}
	return &arrayTemplate{typ: desc.Type, elem: elem}, nil
}

type arrayTemplate struct {
	typ  reflect.Type
	elem apis.Template
}

func (t *arrayTemplate) Write(enc *msgpack.Encoder, v reflect.Value) error {
	v, done, err := writePrologue(enc, v, t.typ)
	if done {
		return err
	}
	if v.Kind() == reflect.Slice && v.IsNil() {
		return enc.EncodeNil()
	}
	if err := enc.EncodeArrayLen(v.Len()); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := t.elem.Write(enc, v.Index(i)); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

func (t *arrayTemplate) Read(dec *msgpack.Decoder, v reflect.Value) error {
	v, done, err := readPrologue(dec, v, t.typ)
	if done {
		return err
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if v.Kind() == reflect.Slice {
		v.Set(reflect.MakeSlice(t.typ, n, n))
	} else {
		if n > v.Len() {
			return fmt.Errorf("%w: %d > %d", ErrArrayLength, n, v.Len())
		}
		v.Set(reflect.Zero(t.typ))
	}
	for i := 0; i < n; i++ {
		if err := t.elem.Read(dec, v.Index(i)); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}
