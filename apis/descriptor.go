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

package apis

import (
	"fmt"
	"reflect"
)

// Kind is the closed set of shapes a TypeDescriptor can describe.
type Kind uint8

const (
	// KindOther covers everything the template chain does not specialize
	// (scalars, strings, maps, []byte, ...). Such types are encoded natively.
	KindOther Kind = iota
	// KindArray is a slice or fixed-size array with an element descriptor.
	KindArray
	// KindEnum is a named integer type implementing Enum.
	KindEnum
	// KindObject is a struct encoded through its exported fields.
	KindObject
	// KindBean is a struct encoded through GetX/SetX accessor pairs.
	KindBean
)

// String returns a short, stable label for k.
func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindBean:
		return "bean"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// TypeDescriptor is an explicit, structural description of a type.
// Strategies match on it without performing reflection of their own.
//
// Type is optional: hand-built descriptors may leave it nil, in which case
// they can be resolved to a builder but not turned into a Template.
type TypeDescriptor struct {
	// Name is the "pkg.Type" display name.
	Name string
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind
	// Type is the Go type being described, if any.
	Type reflect.Type
	// Elem describes the element type of a KindArray.
	Elem *TypeDescriptor
	// Fields lists the encoded properties of a KindObject or KindBean,
	// in wire order.
	Fields []Field
	// Constants lists the names of a KindEnum in ordinal order.
	Constants []string
}

// Field is one encoded property of an object or bean.
type Field struct {
	// Name is the Go field name, or the property name X of a GetX/SetX pair.
	Name string
	// Type is the Go type of the property.
	Type reflect.Type
	// Index is the reflect field index path. Nil for bean properties.
	Index []int
	// Optional fields may be absent from the tail of an encoded object.
	Optional bool
}

// Enum is implemented by named integer types that want enum templates.
// The receiver value is ignored; the returned slice is indexed by ordinal.
type Enum interface {
	EnumConstants() []string
}
