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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/msgtpl/apis"
	"dirpx.dev/msgtpl/config"
)

func TestDefaultConfigValues(t *testing.T) {
	got := config.DefaultConfig()

	assert.Equal(t, config.DefaultBackend, got.Backend)
	assert.Equal(t, config.DefaultMaxUnwrap, got.MaxUnwrap)
	assert.Equal(t, config.DefaultMaxDepth, got.MaxDepth)
}

func TestNewConfig_NoOptions_EqualsDefault(t *testing.T) {
	assert.Equal(t, config.DefaultConfig(), config.NewConfig())
}

func TestWithBackend(t *testing.T) {
	c := config.NewConfig(config.WithBackend(apis.BackendReflective))
	assert.Equal(t, apis.BackendReflective, c.Backend)
}

func TestSanitize_UnknownBackend_ResetsToDefault(t *testing.T) {
	c := config.Sanitize(apis.Config{Backend: apis.Backend(7), MaxUnwrap: 2, MaxDepth: 3})
	assert.Equal(t, config.DefaultBackend, c.Backend)
	assert.Equal(t, 2, c.MaxUnwrap)
	assert.Equal(t, 3, c.MaxDepth)

	c = config.NewConfig(config.WithBackend(apis.Backend(-1)))
	assert.Equal(t, config.DefaultBackend, c.Backend)
}

func TestWithMaxUnwrap_NonPositive_ResetsToDefault(t *testing.T) {
	assert.Equal(t, 3, config.NewConfig(config.WithMaxUnwrap(3)).MaxUnwrap)
	assert.Equal(t, config.DefaultMaxUnwrap, config.NewConfig(config.WithMaxUnwrap(-1)).MaxUnwrap)
	assert.Equal(t, config.DefaultMaxUnwrap, config.NewConfig(config.WithMaxUnwrap(0)).MaxUnwrap)
}

func TestWithMaxDepth_NonPositive_ResetsToDefault(t *testing.T) {
	assert.Equal(t, 2, config.NewConfig(config.WithMaxDepth(2)).MaxDepth)
	assert.Equal(t, config.DefaultMaxDepth, config.NewConfig(config.WithMaxDepth(-5)).MaxDepth)
}

func TestOptionsOrder_LastWins(t *testing.T) {
	c := config.NewConfig(
		config.WithBackend(apis.BackendReflective),
		config.WithBackend(apis.BackendGenerated),
		config.WithMaxUnwrap(2),
		config.WithMaxUnwrap(5),
	)
	assert.Equal(t, apis.BackendGenerated, c.Backend)
	assert.Equal(t, 5, c.MaxUnwrap)
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte("backend: Reflective\nmax_unwrap: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, apis.BackendReflective, cfg.Backend)
	assert.Equal(t, 4, cfg.MaxUnwrap)
	assert.Equal(t, config.DefaultMaxDepth, cfg.MaxDepth)
}

func TestParse_EmptyDocument_IsDefault(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestParse_Errors(t *testing.T) {
	_, err := config.Parse([]byte("backend: jit\n"))
	require.ErrorIs(t, err, apis.ErrUnknownBackend)

	_, err = config.Parse([]byte("backnd: reflective\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msgtpl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: reflective\nmax_depth: 3\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, apis.BackendReflective, cfg.Backend)
	assert.Equal(t, 3, cfg.MaxDepth)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestAddFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.AddFlags(flagSet, &cfg)

	require.NoError(t, flagSet.Parse([]string{"--template-backend", "reflective", "--template-max-depth=2"}))
	assert.Equal(t, apis.BackendReflective, cfg.Backend)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, config.DefaultMaxUnwrap, cfg.MaxUnwrap)

	require.Error(t, flagSet.Parse([]string{"--template-backend", "jit"}))
}
