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

// NewOrdinalEnum creates the builder that encodes enums by ordinal.
func NewOrdinalEnum() apis.TemplateBuilder {
	return enumBuilder{byName: false}
}

// NewNameEnum creates the builder that encodes enums by constant name.
func NewNameEnum() apis.TemplateBuilder {
	return enumBuilder{byName: true}
}

type enumBuilder struct {
	byName bool
}

func (b enumBuilder) Name() string {
	if b.byName {
		return "name-enum"
	}
	return "ordinal-enum"
}

func (b enumBuilder) BuildTemplate(desc apis.TypeDescriptor) (apis.Template, error) {
	if err := checkDesc(b.Name(), desc, apis.KindEnum); err != nil {
		return nil, err
	}
	t := &enumTemplate{typ: desc.Type, name: desc.Name, constants: desc.Constants, byName: b.byName}
	if b.byName {
		t.ordinals = make(map[string]int64, len(desc.Constants))
		for i, c := range desc.Constants {
			if _, dup := t.ordinals[c]; !dup {
				t.ordinals[c] = int64(i)
			}
		}
	}
	return t, nil
}

type enumTemplate struct {
	typ       reflect.Type
	name      string
	constants []string
	ordinals  map[string]int64
	byName    bool
}

func (t *enumTemplate) Write(enc *msgpack.Encoder, v reflect.Value) error {
	v, done, err := writePrologue(enc, v, t.typ)
	if done {
		return err
	}
	ord, ok := ordinal(v)
	if !ok || ord >= int64(len(t.constants)) {
		return fmt.Errorf("%w: %s(%v)", ErrEnumOutOfRange, t.name, v)
	}
	if t.byName {
		return enc.EncodeString(t.constants[ord])
	}
	return enc.EncodeInt(ord)
}

func (t *enumTemplate) Read(dec *msgpack.Decoder, v reflect.Value) error {
	v, done, err := readPrologue(dec, v, t.typ)
	if done {
		return err
	}
	var ord int64
	if t.byName {
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		o, ok := t.ordinals[s]
		if !ok {
			return fmt.Errorf("%w: %s %q", ErrUnknownEnumName, t.name, s)
		}
		ord = o
	} else {
		ord, err = dec.DecodeInt64()
		if err != nil {
			return err
		}
		if ord < 0 || ord >= int64(len(t.constants)) {
			return fmt.Errorf("%w: %s(%d)", ErrEnumOutOfRange, t.name, ord)
		}
	}
	if v.CanInt() {
		if v.OverflowInt(ord) {
			return fmt.Errorf("%w: %s(%d) overflows %s", ErrEnumOutOfRange, t.name, ord, v.Type())
		}
		v.SetInt(ord)
		return nil
	}
	if v.OverflowUint(uint64(ord)) {
		return fmt.Errorf("%w: %s(%d) overflows %s", ErrEnumOutOfRange, t.name, ord, v.Type())
	}
	v.SetUint(uint64(ord))
	return nil
}

// ordinal returns the integer value of an enum. ok is false for negatives.
func ordinal(v reflect.Value) (int64, bool) {
	if v.CanInt() {
		n := v.Int()
		return n, n >= 0
	}
	u := v.Uint()
	if u > uint64(1<<63-1) {
		return 0, false
	}
	return int64(u), true
}
