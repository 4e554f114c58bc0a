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

package reflect

import (
	"encoding"
	"errors"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"dirpx.dev/msgtpl/apis"
	"dirpx.dev/msgtpl/config"
)

var (
	// ErrReflectNilType is returned when a nil reflect.Type is provided.
	ErrReflectNilType = errors.New("reflect: nil reflect.Type provided")
	// ErrReflectTooDeep indicates that pointer unwrapping exceeded MaxUnwrap
	// or array nesting exceeded MaxDepth.
	ErrReflectTooDeep = errors.New("reflect: type nesting exceeds configured limit")
)

// TagName is the struct tag consulted for field names and options.
const TagName = "msgpack"

var enumType = reflect.TypeOf((*apis.Enum)(nil)).Elem()

// selfEncoding lists interfaces whose implementers msgpack encodes on its own.
var selfEncoding = []reflect.Type{
	reflect.TypeOf((*msgpack.CustomEncoder)(nil)).Elem(),
	reflect.TypeOf((*msgpack.Marshaler)(nil)).Elem(),
	reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem(),
}

var timeType = reflect.TypeOf((*time.Time)(nil)).Elem()

// Describe builds the closed TypeDescriptor of t.
//
// Classification policy:
//   - ptr: stripped, at most MaxUnwrap levels;
//   - named integer implementing apis.Enum -> KindEnum;
//   - slice/array (except byte slices/arrays) -> KindArray with an element
//     descriptor, at most MaxDepth levels deep;
//   - struct msgpack encodes itself (time.Time, custom encoders and
//     marshalers) -> KindOther;
//   - struct with exported fields -> KindObject;
//   - struct without exported fields but with GetX/SetX pairs -> KindBean;
//   - anything else -> KindOther.
//
// Object fields are not described here; templates describe them on demand
// through the resolver, which keeps self-referential types finite.
func Describe(t reflect.Type, cfg apis.Config) (apis.TypeDescriptor, error) {
	return describe(t, config.Sanitize(cfg), 0)
}

func describe(t reflect.Type, cfg apis.Config, depth int) (apis.TypeDescriptor, error) {
	if t == nil {
		return apis.TypeDescriptor{}, ErrReflectNilType
	}
	for i := 0; t.Kind() == reflect.Pointer; i++ {
		if i >= cfg.MaxUnwrap {
			return apis.TypeDescriptor{}, ErrReflectTooDeep
		}
		t = t.Elem()
	}

	desc := apis.TypeDescriptor{Name: TypeName(t), Type: t}
	switch {
	case isEnum(t):
		desc.Kind = apis.KindEnum
		desc.Constants = enumConstants(t)

	case (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() != reflect.Uint8:
		if depth+1 > cfg.MaxDepth {
			return apis.TypeDescriptor{}, ErrReflectTooDeep
		}
		elem, err := describe(t.Elem(), cfg, depth+1)
		if err != nil {
			return apis.TypeDescriptor{}, err
		}
		desc.Kind = apis.KindArray
		desc.Elem = &elem

	case t.Kind() == reflect.Struct && !encodesItself(t):
		desc.Kind = apis.KindObject
		desc.Fields = exportedFields(t)
		if len(desc.Fields) == 0 {
			if props := accessors(t); len(props) > 0 {
				desc.Kind = apis.KindBean
				desc.Fields = props
			}
		}

	default:
		desc.Kind = apis.KindOther
	}
	return desc, nil
}

// TypeName returns "pkg.Type" for named types, with generic instantiation
// parameters stripped, and t.String() for unnamed ones.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	name := stripTypeParams(t.Name())
	if name == "" {
		return t.String()
	}
	if p := t.PkgPath(); p != "" {
		return path.Base(p) + "." + name
	}
	return name
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}

func isEnum(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.Implements(enumType)
	default:
		return false
	}
}

func enumConstants(t reflect.Type) []string {
	src := reflect.Zero(t).Interface().(apis.Enum).EnumConstants()
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func encodesItself(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	pt := reflect.PointerTo(t)
	for _, it := range selfEncoding {
		if t.Implements(it) || pt.Implements(it) {
			return true
		}
	}
	return false
}

// exportedFields lists the encodable fields of struct t in declaration order.
func exportedFields(t reflect.Type) []apis.Field {
	var fields []apis.Field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get(TagName), ",")
		if name == "-" && opts == "" {
			continue
		}
		fields = append(fields, apis.Field{
			Name:     f.Name,
			Type:     f.Type,
			Index:    f.Index,
			Optional: hasOption(opts, "optional"),
		})
	}
	return fields
}

// accessors lists GetX/SetX property pairs on the pointer method set of t,
// ordered by property name.
func accessors(t reflect.Type) []apis.Field {
	pt := reflect.PointerTo(t)
	var props []apis.Field
	for i := 0; i < pt.NumMethod(); i++ {
		get := pt.Method(i)
		prop, ok := strings.CutPrefix(get.Name, "Get")
		if !ok || prop == "" || get.Type.NumIn() != 1 || get.Type.NumOut() != 1 {
			continue
		}
		set, ok := pt.MethodByName("Set" + prop)
		if !ok || set.Type.NumIn() != 2 || set.Type.NumOut() != 0 || set.Type.In(1) != get.Type.Out(0) {
			continue
		}
		props = append(props, apis.Field{Name: prop, Type: get.Type.Out(0)})
	}
	return props
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}
