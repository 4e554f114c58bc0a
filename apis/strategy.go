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

// Strategy is a named, pluggable (predicate, factory) pair. A Registry
// chains strategies in order (e.g., array -> message -> beans -> enums).
type Strategy interface {
	// Name is the stable identifier used to address the strategy in a
	// Registry. It must not change after registration.
	Name() string

	// Matches reports whether this strategy handles desc. It must be pure
	// and safe to call speculatively.
	Matches(desc TypeDescriptor) bool

	// Build returns the builder for desc. Callers only invoke it after
	// Matches returned true. The result may be fresh or a shared singleton.
	Build(desc TypeDescriptor) TemplateBuilder
}
