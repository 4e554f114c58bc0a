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
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"dirpx.dev/msgtpl/apis"
)

var (
	// ErrNoGoType is returned when a descriptor without a Go type is built.
	ErrNoGoType = errors.New("msgtpl(template): descriptor has no Go type")
	// ErrUnsupportedKind is returned when a builder is asked for a kind it
	// does not handle.
	ErrUnsupportedKind = errors.New("msgtpl(template): unsupported descriptor kind")
	// ErrTypeMismatch is returned when a template is used with a value of
	// another type than the one it was built for.
	ErrTypeMismatch = errors.New("msgtpl(template): value type does not match template")
	// ErrMissingField is returned when an encoded object ends before a
	// required field.
	ErrMissingField = errors.New("msgtpl(template): missing required field")
	// ErrEnumOutOfRange is returned for ordinals outside the constant list.
	ErrEnumOutOfRange = errors.New("msgtpl(template): enum ordinal out of range")
	// ErrUnknownEnumName is returned when a decoded name is not a constant.
	ErrUnknownEnumName = errors.New("msgtpl(template): unknown enum constant")
	// ErrArrayLength is returned when an encoded array does not fit a Go array.
	ErrArrayLength = errors.New("msgtpl(template): encoded array longer than target")
	// ErrAccessor is returned when a bean accessor cannot be found.
	ErrAccessor = errors.New("msgtpl(template): bean accessor not found")
)

// ElemResolver supplies the templates of array elements and object fields,
// so nested values go through the same strategy chain as top-level ones.
// apis.Resolver satisfies it.
type ElemResolver interface {
	Describe(t reflect.Type) (apis.TypeDescriptor, error)
	TemplateFor(desc apis.TypeDescriptor) (apis.Template, error)
}

// fieldTemplate resolves the template of a field of type typ through res.
func fieldTemplate(res ElemResolver, typ reflect.Type) (apis.Template, error) {
	desc, err := res.Describe(typ)
	if err != nil {
		return nil, err
	}
	return res.TemplateFor(desc)
}

// isNative reports whether tpl hands values straight to msgpack.
func isNative(tpl apis.Template) bool {
	_, ok := tpl.(nativeTemplate)
	return ok
}

// Native returns the builder for KindOther descriptors: values are handed
// straight to the msgpack codec.
func Native() apis.TemplateBuilder {
	return nativeBuilder{}
}

type nativeBuilder struct{}

func (nativeBuilder) Name() string { return "native" }

func (nativeBuilder) BuildTemplate(apis.TypeDescriptor) (apis.Template, error) {
	return nativeTemplate{}, nil
}

type nativeTemplate struct{}

func (nativeTemplate) Write(enc *msgpack.Encoder, v reflect.Value) error {
	return enc.EncodeValue(v)
}

func (nativeTemplate) Read(dec *msgpack.Decoder, v reflect.Value) error {
	return dec.DecodeValue(v)
}

// checkDesc validates the parts of desc every typed builder needs.
func checkDesc(builder string, desc apis.TypeDescriptor, want apis.Kind) error {
	if desc.Kind != want {
		return fmt.Errorf("%w: %s builder cannot build %s (%s)", ErrUnsupportedKind, builder, desc.Name, desc.Kind)
	}
	if desc.Type == nil {
		return fmt.Errorf("%w: %s", ErrNoGoType, desc.Name)
	}
	return nil
}

// deref follows pointers. ok is false when a nil pointer is reached.
func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

// alloc follows pointers of a settable value, allocating nil ones.
func alloc(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return v
}

// addressable returns v itself if addressable, otherwise an addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// readNil consumes a nil marker if one is next.
func readNil(dec *msgpack.Decoder) (bool, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return false, err
	}
	if c != msgpcode.Nil {
		return false, nil
	}
	return true, dec.DecodeNil()
}

// writePrologue dereferences v and checks it against typ. done is true when
// a nil was written and the caller has nothing left to encode.
func writePrologue(enc *msgpack.Encoder, v reflect.Value, typ reflect.Type) (out reflect.Value, done bool, err error) {
	out, ok := deref(v)
	if !ok {
		return out, true, enc.EncodeNil()
	}
	if out.Type() != typ {
		return out, true, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, out.Type(), typ)
	}
	return out, false, nil
}

// readPrologue zeroes v on an encoded nil, otherwise allocates through
// pointers and checks the target against typ.
func readPrologue(dec *msgpack.Decoder, v reflect.Value, typ reflect.Type) (out reflect.Value, done bool, err error) {
	isNil, err := readNil(dec)
	if err != nil {
		return v, true, err
	}
	if isNil {
		v.Set(reflect.Zero(v.Type()))
		return v, true, nil
	}
	out = alloc(v)
	if out.Type() != typ {
		return out, true, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, out.Type(), typ)
	}
	return out, false, nil
}
