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
	"errors"
	"fmt"
	"strings"
)

// Config carries the knobs decided once by the host process.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// Backend selects the object template family registered by bootstrap.
	Backend Backend `yaml:"backend"`

	// MaxUnwrap limits how many pointer levels are stripped before a type
	// is described. Acts as a safety guard against pathological nesting.
	MaxUnwrap int `yaml:"max_unwrap"`

	// MaxDepth limits how deeply nested array element descriptors are built.
	MaxDepth int `yaml:"max_depth"`
}

// ErrUnknownBackend is returned when a backend token cannot be parsed.
var ErrUnknownBackend = errors.New("msgtpl(apis): unknown backend")

// Backend is the implementation family used for object and bean templates.
//
// BackendGenerated precomputes a per-type plan once and reuses it;
// BackendReflective walks the type description on every call and is the
// choice for hosts that cannot afford per-type setup.
type Backend int

const (
	// BackendGenerated selects compiled, cached per-type plans.
	BackendGenerated Backend = iota
	// BackendReflective selects plain reflection on every call.
	BackendReflective
)

// String returns "generated", "reflective" or "Unknown(<n>)".
func (b Backend) String() string {
	switch b {
	case BackendGenerated:
		return "generated"
	case BackendReflective:
		return "reflective"
	default:
		return fmt.Sprintf("Unknown(%d)", int(b))
	}
}

// ParseBackend parses a case-insensitive backend token. Surrounding
// whitespace is ignored.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generated":
		return BackendGenerated, nil
	case "reflective":
		return BackendReflective, nil
	default:
		return BackendGenerated, fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Backend) MarshalText() ([]byte, error) {
	switch b {
	case BackendGenerated, BackendReflective:
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(b))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
