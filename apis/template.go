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
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// TemplateBuilder is the opaque handle a Strategy hands back from Build.
// Serialization code uses it to obtain the Template for a matched type.
type TemplateBuilder interface {
	// Name identifies the builder (backend and flavor) for diagnostics.
	Name() string
	// BuildTemplate constructs the encode/decode logic for desc.
	BuildTemplate(desc TypeDescriptor) (Template, error)
}

// Template encodes and decodes values of one Go type.
// Implementations must be safe for concurrent use.
type Template interface {
	// Write encodes v. Pointers are dereferenced; a nil pointer encodes as nil.
	Write(enc *msgpack.Encoder, v reflect.Value) error
	// Read decodes into v, which must be settable. Nil pointers are allocated.
	Read(dec *msgpack.Decoder, v reflect.Value) error
}
