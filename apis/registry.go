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

// Registry is an ordered, mutable chain of uniquely named strategies plus
// an advisory "forced" builder. Resolution is first-match-wins.
type Registry interface {
	// Contains reports whether a strategy with name is registered.
	Contains(name string) bool
	// IndexOf returns the position of the first strategy named name, or -1.
	IndexOf(name string) int
	// Names returns the strategy names in chain order.
	Names() []string
	// Len returns the number of registered strategies.
	Len() int

	// Append adds s at the tail. Fails if the name is taken.
	Append(s Strategy) error
	// Prepend adds s at the head. Fails if the name is taken.
	Prepend(s Strategy) error
	// Insert adds s at index. On an empty registry index is ignored.
	Insert(index int, s Strategy) error
	// Replace swaps the strategy with the same name as s, keeping its position.
	Replace(s Strategy) error
	// InsertBefore adds s immediately before the strategy named anchor.
	InsertBefore(anchor string, s Strategy) error
	// InsertAfter adds s immediately after the strategy named anchor.
	InsertAfter(anchor string, s Strategy) error

	// Resolve returns the builder of the first strategy matching desc.
	// ok is false when nothing matches; the forced builder is not consulted.
	Resolve(desc TypeDescriptor) (b TemplateBuilder, ok bool)

	// Forced returns the advisory default builder, or nil.
	Forced() TemplateBuilder
	// SetForced replaces the advisory default builder.
	SetForced(b TemplateBuilder)
}
