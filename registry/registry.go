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

package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dirpx.dev/msgtpl/apis"
)

var (
	// ErrDuplicateName is returned when a mutation would register a name
	// that is already present.
	ErrDuplicateName = errors.New("msgtpl(registry): duplicate strategy name")
	// ErrNotFound is returned when a mutation references a missing name.
	ErrNotFound = errors.New("msgtpl(registry): strategy not found")
	// ErrNilStrategy is returned when a nil strategy is provided.
	ErrNilStrategy = errors.New("msgtpl(registry): nil strategy provided")
	// ErrIndexOutOfRange is returned by Insert on a non-empty registry when
	// index is outside [0, Len()].
	ErrIndexOutOfRange = errors.New("msgtpl(registry): index out of range")
)

// Option configures a registry built by New.
type Option func(*registry)

// WithLogger sets the logger used to trace chain mutations.
func WithLogger(l *zap.Logger) Option {
	return func(r *registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New constructs an empty Registry.
//
// The chain is copy-on-write: readers (Resolve, Contains, IndexOf, Names,
// Len) load the current snapshot atomically and never take locks. Writers
// serialize on a mutex, build a new slice and publish it, so a reader always
// walks a complete ordering from before or after a mutation.
func New(opts ...Option) apis.Registry {
	r := &registry{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	empty := chain{}
	r.cur.Store(&empty)
	return r
}

// chain is an immutable, ordered snapshot of strategies.
// Never mutate a published chain; writers create a new one and swap it in.
type chain []apis.Strategy

// indexOf returns the position of the first strategy named name, or -1.
func (c chain) indexOf(name string) int {
	for i, s := range c {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

// insert returns a copy of c with s placed at index i.
func (c chain) insert(i int, s apis.Strategy) chain {
	out := make(chain, 0, len(c)+1)
	out = append(out, c[:i]...)
	out = append(out, s)
	return append(out, c[i:]...)
}

// forcedRef boxes the forced builder so a nil builder can be stored atomically.
type forcedRef struct {
	b apis.TemplateBuilder
}

// registry is the copy-on-write apis.Registry implementation.
type registry struct {
	// mu serializes writers so no mutation is lost or published half-built.
	mu sync.Mutex
	// cur is the published chain snapshot.
	cur atomic.Pointer[chain]
	// forced is the advisory default builder.
	forced atomic.Pointer[forcedRef]
	// log traces mutations.
	log *zap.Logger
}

// Ensure registry implements apis.Registry.
var _ apis.Registry = (*registry)(nil)

// Contains reports whether a strategy with name is registered.
func (r *registry) Contains(name string) bool {
	return r.cur.Load().indexOf(name) >= 0
}

// IndexOf returns the position of the first strategy named name, or -1.
func (r *registry) IndexOf(name string) int {
	return r.cur.Load().indexOf(name)
}

// Names returns the strategy names in chain order.
func (r *registry) Names() []string {
	c := *r.cur.Load()
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of registered strategies.
func (r *registry) Len() int {
	return len(*r.cur.Load())
}

// Append adds s at the tail.
func (r *registry) Append(s apis.Strategy) error {
	return r.mutate("append", s, func(c chain) (chain, error) {
		if err := checkUnique(c, s); err != nil {
			return nil, err
		}
		return c.insert(len(c), s), nil
	})
}

// Prepend adds s at the head. On an empty registry it is an append.
func (r *registry) Prepend(s apis.Strategy) error {
	return r.mutate("prepend", s, func(c chain) (chain, error) {
		if err := checkUnique(c, s); err != nil {
			return nil, err
		}
		return c.insert(0, s), nil
	})
}

// Insert adds s at index. On an empty registry the index is ignored and s
// becomes the only entry.
func (r *registry) Insert(index int, s apis.Strategy) error {
	return r.mutate("insert", s, func(c chain) (chain, error) {
		if err := checkUnique(c, s); err != nil {
			return nil, err
		}
		if len(c) == 0 {
			return c.insert(0, s), nil
		}
		if index < 0 || index > len(c) {
			return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, len(c))
		}
		return c.insert(index, s), nil
	})
}

// Replace puts s in the position of the strategy with the same name.
func (r *registry) Replace(s apis.Strategy) error {
	return r.mutate("replace", s, func(c chain) (chain, error) {
		i := c.indexOf(s.Name())
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, s.Name())
		}
		out := make(chain, len(c))
		copy(out, c)
		out[i] = s
		return out, nil
	})
}

// InsertBefore adds s immediately before anchor.
// Like InsertAfter it does not check s's name for duplicates.
func (r *registry) InsertBefore(anchor string, s apis.Strategy) error {
	return r.mutate("insert_before", s, func(c chain) (chain, error) {
		i := c.indexOf(anchor)
		if i < 0 {
			return nil, fmt.Errorf("%w: anchor %q", ErrNotFound, anchor)
		}
		return c.insert(i, s), nil
	})
}

// InsertAfter adds s immediately after anchor; after the tail it appends.
func (r *registry) InsertAfter(anchor string, s apis.Strategy) error {
	return r.mutate("insert_after", s, func(c chain) (chain, error) {
		i := c.indexOf(anchor)
		if i < 0 {
			return nil, fmt.Errorf("%w: anchor %q", ErrNotFound, anchor)
		}
		return c.insert(i+1, s), nil
	})
}

// Resolve walks the chain in order and returns the builder of the first
// strategy whose predicate accepts desc.
func (r *registry) Resolve(desc apis.TypeDescriptor) (apis.TemplateBuilder, bool) {
	for _, s := range *r.cur.Load() {
		if s.Matches(desc) {
			return s.Build(desc), true
		}
	}
	return nil, false
}

// Forced returns the advisory default builder, or nil.
func (r *registry) Forced() apis.TemplateBuilder {
	if ref := r.forced.Load(); ref != nil {
		return ref.b
	}
	return nil
}

// SetForced replaces the advisory default builder.
func (r *registry) SetForced(b apis.TemplateBuilder) {
	r.forced.Store(&forcedRef{b: b})
}

// mutate runs fn against the current chain under the writer lock and
// publishes its result. On error nothing is published.
func (r *registry) mutate(op string, s apis.Strategy, fn func(chain) (chain, error)) error {
	if s == nil {
		return ErrNilStrategy
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(*r.cur.Load())
	if err != nil {
		r.log.Debug("strategy chain mutation rejected",
			zap.String("op", op),
			zap.String("strategy", s.Name()),
			zap.Error(err))
		return err
	}
	r.cur.Store(&next)
	r.log.Debug("strategy chain mutated",
		zap.String("op", op),
		zap.String("strategy", s.Name()),
		zap.Int("len", len(next)))
	return nil
}

// checkUnique fails with ErrDuplicateName if s's name is already in c.
func checkUnique(c chain, s apis.Strategy) error {
	if c.indexOf(s.Name()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name())
	}
	return nil
}
