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
)

// Resolver turns Go types into templates on top of a Registry.
// Unlike Registry.Resolve it applies the forced-builder fallback.
type Resolver interface {
	// Describe builds the TypeDescriptor of t.
	Describe(t reflect.Type) (TypeDescriptor, error)

	// BuilderFor returns the chain's builder for desc, falling back to the
	// registry's forced builder when no strategy matches.
	BuilderFor(desc TypeDescriptor) (TemplateBuilder, error)

	// TemplateFor returns a ready-to-use Template for desc.
	TemplateFor(desc TypeDescriptor) (Template, error)
}
