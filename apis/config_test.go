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

package apis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/msgtpl/apis"
)

func TestBackend_StringAndParse(t *testing.T) {
	for _, b := range []apis.Backend{apis.BackendGenerated, apis.BackendReflective} {
		got, err := apis.ParseBackend(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}

	got, err := apis.ParseBackend("  REFLECTIVE ")
	require.NoError(t, err)
	assert.Equal(t, apis.BackendReflective, got)

	_, err = apis.ParseBackend("")
	assert.ErrorIs(t, err, apis.ErrUnknownBackend)

	assert.Equal(t, "Unknown(7)", apis.Backend(7).String())
}

func TestBackend_Text(t *testing.T) {
	text, err := apis.BackendReflective.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "reflective", string(text))

	_, err = apis.Backend(42).MarshalText()
	assert.ErrorIs(t, err, apis.ErrUnknownBackend)

	var b apis.Backend
	require.NoError(t, b.UnmarshalText([]byte("generated")))
	assert.Equal(t, apis.BackendGenerated, b)
	assert.Error(t, b.UnmarshalText([]byte("bytecode")))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "array", apis.KindArray.String())
	assert.Equal(t, "bean", apis.KindBean.String())
	assert.Equal(t, "Unknown(9)", apis.Kind(9).String())
}
