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

// Package msgtpl selects MessagePack templates for Go types through an
// ordered, customizable chain of strategies.
//
// msgtpl answers one question: "given this type, which template builder
// produces its encode/decode logic?". The answer comes from a Registry, an
// ordered list of named strategies. Each strategy is a (predicate, builder)
// pair; the first strategy whose predicate accepts the type wins.
//
// # Design
//
// The moving parts live in subpackages:
//
//   - apis: the contracts (TypeDescriptor, Strategy, TemplateBuilder,
//     Template, Registry, Resolver, Config).
//
//   - utils/reflect: turns a reflect.Type into a closed TypeDescriptor
//     (array, enum, object, bean or other). Strategies match on the
//     descriptor and never reflect on their own.
//
//   - registry: the strategy chain. Names are unique, order is caller
//     controlled, and a "forced" builder slot is kept alongside the chain
//     for callers that want a backend-wide default. Resolve never consults
//     the forced builder; absence is reported as (nil, false).
//
//   - strategy: the shipped strategies (array, message, beans, ordinal-enum,
//     enum) and Func for custom ones.
//
//   - template: the builders behind them. Objects and beans come in two
//     families: "generated" compiles and caches a per-type plan, and
//     "reflective" walks the descriptor on every call. Array elements and
//     object fields get their templates from the resolver, so nested values
//     are encoded exactly as they would be at top level.
//
//   - resolver: Describe + Resolve + the forced fallback.
//
//   - bootstrap: assembles the default chain for a Backend.
//
// # Default chain
//
// bootstrap.New registers, in order:
//
//	array -> message -> beans -> ordinal-enum -> enum
//
// and sets the forced builder to the object builder of the chosen backend.
// Because ordinal-enum precedes enum and both match every enum, enums are
// encoded by ordinal unless the host reorders the chain:
//
//	reg := codec.Registry()
//	_ = reg.InsertBefore(strategy.OrdinalEnumName,
//		strategy.Func("enum-by-name", isEnum, template.NewNameEnum()))
//
// # Concurrency model
//
// Registry reads (Resolve, Contains, IndexOf, Names, Len) load an immutable
// snapshot of the chain atomically and never take locks. Writers serialize
// on a mutex and publish a new snapshot, so a concurrent Resolve sees the
// chain either before or after a mutation, never in between.
//
// # Usage pattern in a binary
//
//	cfg := config.NewConfig(config.WithBackend(apis.BackendReflective))
//	codec := msgtpl.New(cfg)
//	data, err := codec.Marshal(order)
//	...
//	var out Order
//	err = codec.Unmarshal(data, &out)
//
// There is no process-wide instance: every Codec owns its registry.
package msgtpl
