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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"dirpx.dev/msgtpl/apis"
)

// Load reads a YAML config file. Keys absent from the file keep their
// defaults:
//
//	backend: reflective
//	max_unwrap: 4
//	max_depth: 8
func Load(path string) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return apis.Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data on top of DefaultConfig. Unknown keys are
// rejected so typos do not silently select the default backend.
func Parse(data []byte) (apis.Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return apis.Config{}, err
	}
	return Sanitize(cfg), nil
}

// AddFlags registers the config knobs on flagSet, writing into cfg.
// cfg should already hold the defaults (or values loaded from a file);
// flags only override what the user passes.
func AddFlags(flagSet *pflag.FlagSet, cfg *apis.Config) {
	flagSet.Var((*backendValue)(&cfg.Backend), "template-backend",
		"object template backend: generated or reflective")
	flagSet.IntVar(&cfg.MaxUnwrap, "template-max-unwrap", cfg.MaxUnwrap,
		"maximum pointer levels stripped before describing a type")
	flagSet.IntVar(&cfg.MaxDepth, "template-max-depth", cfg.MaxDepth,
		"maximum nesting of array element descriptors")
}

// backendValue adapts apis.Backend to pflag.Value.
type backendValue apis.Backend

var _ pflag.Value = (*backendValue)(nil)

func (v *backendValue) String() string { return apis.Backend(*v).String() }

func (v *backendValue) Set(s string) error {
	b, err := apis.ParseBackend(s)
	if err != nil {
		return err
	}
	*v = backendValue(b)
	return nil
}

func (v *backendValue) Type() string { return "backend" }
