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

package template_test

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"dirpx.dev/msgtpl/apis"
	"dirpx.dev/msgtpl/bootstrap"
	"dirpx.dev/msgtpl/config"
	"dirpx.dev/msgtpl/registry"
	"dirpx.dev/msgtpl/resolver"
	"dirpx.dev/msgtpl/strategy"
	"dirpx.dev/msgtpl/template"
)

type backend struct {
	name      string
	kind      apis.Backend
	newObject func(template.ElemResolver) apis.TemplateBuilder
	newBeans  func(template.ElemResolver) apis.TemplateBuilder
}

var backends = []backend{
	{"generated", apis.BackendGenerated, template.NewCompiled, template.NewCompiledBeans},
	{"reflective", apis.BackendReflective, template.NewReflective, template.NewReflectiveBeans},
}

// chain returns a default registry for the backend and a resolver over it.
func (be backend) chain() (apis.Registry, apis.Resolver) {
	return bootstrap.New(config.NewConfig(config.WithBackend(be.kind)))
}

// object returns an object builder whose fields resolve through a fresh
// default chain.
func (be backend) object() apis.TemplateBuilder {
	_, res := be.chain()
	return be.newObject(res)
}

func (be backend) beans() apis.TemplateBuilder {
	_, res := be.chain()
	return be.newBeans(res)
}

func TestObject_RoundTrip(t *testing.T) {
	in := Shape{
		Name:   "triangle",
		Color:  Color(2),
		Points: []Point{{X: 1, Y: 2, Label: "a"}, {X: -3, Y: 4}},
		Tags:   map[string]int{"edges": 3},
		Scale:  1.5,
		Hidden: true,
	}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Shape{})

			var out Shape
			require.NoError(t, read(tpl, write(t, tpl, in), &out))
			assert.Equal(t, in, out)

			// Pointers are followed on both sides.
			var ptr *Shape
			require.NoError(t, read(tpl, write(t, tpl, &in), &ptr))
			require.NotNil(t, ptr)
			assert.Equal(t, in, *ptr)
		})
	}
}

func TestObject_EncodesFieldsAsArray(t *testing.T) {
	var outputs [][]byte
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Point{})
			data := write(t, tpl, Point{X: 1, Y: 2, Label: "a"})
			assert.Equal(t, raw(t, []any{int64(1), int32(2), "a"}), data)

			// Zero optional fields are written as nil.
			assert.Equal(t, raw(t, []any{int64(1), int32(2), nil}), write(t, tpl, Point{X: 1, Y: 2}))
			outputs = append(outputs, data)
		})
	}
	require.Len(t, outputs, 2)
	assert.Equal(t, outputs[0], outputs[1])
}

func TestObject_OptionalFields(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Point{})

			// A shorter encoding may omit optional trailing fields.
			var out Point
			require.NoError(t, read(tpl, write(t, build(t, be.object(), Pair{}), Pair{X: 7, Y: 8}), &out))
			assert.Equal(t, Point{X: 7, Y: 8}, out)

			// An explicit nil resets the field.
			stale := Point{Label: "stale"}
			require.NoError(t, read(tpl, raw(t, []any{1, 2, nil}), &stale))
			assert.Equal(t, Point{X: 1, Y: 2}, stale)
		})
	}
}

func TestObject_SurplusElementsAreSkipped(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			data := write(t, build(t, be.object(), Wide{}), Wide{X: 1, Y: 2, Label: "a", Extra: []string{"x", "y"}})

			var out Point
			require.NoError(t, read(build(t, be.object(), Point{}), data, &out))
			assert.Equal(t, Point{X: 1, Y: 2, Label: "a"}, out)
		})
	}
}

func TestObject_MissingRequiredField(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			var out Point
			err := read(build(t, be.object(), Point{}), raw(t, []any{1}), &out)
			assert.ErrorIs(t, err, template.ErrMissingField)
		})
	}
}

func TestObject_Nil(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Point{})
			data := write(t, tpl, (*Point)(nil))
			assert.Equal(t, raw(t, nil), data)

			out := &Point{X: 1}
			require.NoError(t, read(tpl, data, &out))
			assert.Nil(t, out)
		})
	}
}

func TestObject_TypeMismatch(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Point{})

			err := tpl.Write(msgpack.NewEncoder(io.Discard), reflect.ValueOf(Pair{}))
			assert.ErrorIs(t, err, template.ErrTypeMismatch)

			var out Pair
			assert.ErrorIs(t, read(tpl, raw(t, []any{1, 2}), &out), template.ErrTypeMismatch)
		})
	}
}

func TestBeans_RoundTrip(t *testing.T) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.beans(), Account{})

			in := &Account{owner: "ann", balance: 10}
			data := write(t, tpl, in)
			// Properties are ordered by name.
			assert.Equal(t, raw(t, []any{uint32(10), "ann"}), data)

			// Non-addressable values are copied before accessors run.
			assert.Equal(t, data, write(t, tpl, *in))

			var out Account
			require.NoError(t, read(tpl, data, &out))
			assert.Equal(t, "ann", out.GetOwner())
			assert.Equal(t, uint32(10), out.GetBalance())
		})
	}
}

func TestBeans_MissingAccessor(t *testing.T) {
	desc := describe(t, Account{})
	desc.Fields = append(desc.Fields, apis.Field{Name: "Nickname", Type: reflect.TypeOf("")})

	_, err := template.NewCompiledBeans(stubElems{}).BuildTemplate(desc)
	assert.ErrorIs(t, err, template.ErrAccessor)

	tpl, err := template.NewReflectiveBeans(stubElems{}).BuildTemplate(desc)
	require.NoError(t, err)
	err = tpl.Write(msgpack.NewEncoder(io.Discard), reflect.ValueOf(&Account{}))
	assert.ErrorIs(t, err, template.ErrAccessor)
}

func TestBeans_RejectObjects(t *testing.T) {
	for _, be := range backends {
		_, err := be.beans().BuildTemplate(describe(t, Point{}))
		assert.ErrorIs(t, err, template.ErrUnsupportedKind, be.name)
		_, err = be.object().BuildTemplate(describe(t, Account{}))
		assert.ErrorIs(t, err, template.ErrUnsupportedKind, be.name)
	}
}

func TestCompiled_CachesPlans(t *testing.T) {
	b := template.NewCompiled(stubElems{})
	desc := describe(t, Point{})

	first, err := b.BuildTemplate(desc)
	require.NoError(t, err)

	const workers = 16
	got := make([]apis.Template, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		i := i
		go func() {
			defer wg.Done()
			tpl, err := b.BuildTemplate(desc)
			if err != nil {
				t.Errorf("BuildTemplate: %v", err)
				return
			}
			got[i] = tpl
		}()
	}
	wg.Wait()
	for i, tpl := range got {
		assert.Same(t, first, tpl, fmt.Sprint("worker ", i))
	}

	// Another type gets its own plan.
	other, err := b.BuildTemplate(describe(t, Pair{}))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestCompiled_Names(t *testing.T) {
	assert.Equal(t, "generated", template.NewCompiled(stubElems{}).Name())
	assert.Equal(t, "generated-beans", template.NewCompiledBeans(stubElems{}).Name())
	assert.Equal(t, "reflective", template.NewReflective(stubElems{}).Name())
	assert.Equal(t, "reflective-beans", template.NewReflectiveBeans(stubElems{}).Name())
}

type Outer struct {
	Status Color
	Line   Point
	Lines  []Point
	At     *Point
}

func TestObject_FieldsGoThroughChain(t *testing.T) {
	in := Outer{
		Status: Color(2),
		Line:   Point{X: 1, Y: 2, Label: "a"},
		Lines:  []Point{{X: 3, Y: 4}},
	}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Outer{})
			data := write(t, tpl, in)
			// Nested structs are arrays like top-level ones; enums use the
			// ordinal strategy.
			assert.Equal(t, raw(t, []any{
				2,
				[]any{int64(1), int32(2), "a"},
				[]any{[]any{int64(3), int32(4), nil}},
				nil,
			}), data)

			var out Outer
			require.NoError(t, read(tpl, data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestObject_FieldsFollowChainCustomization(t *testing.T) {
	isEnum := func(d apis.TypeDescriptor) bool { return d.Kind == apis.KindEnum }
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			reg, res := be.chain()
			require.NoError(t, reg.InsertBefore(strategy.OrdinalEnumName,
				strategy.Func("enum-by-name", isEnum, template.NewNameEnum())))

			tpl := build(t, be.newObject(res), Outer{})
			in := Outer{Status: Color(1), Line: Point{X: 1}}
			data := write(t, tpl, in)
			assert.Equal(t, raw(t, []any{
				"green",
				[]any{int64(1), int32(0), nil},
				nil,
				nil,
			}), data)

			var out Outer
			require.NoError(t, read(tpl, data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestObject_UnresolvableField(t *testing.T) {
	res := resolver.New(registry.New(), config.DefaultConfig())
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.newObject(res), Outer{})
			err := tpl.Write(msgpack.NewEncoder(io.Discard), reflect.ValueOf(Outer{}))
			assert.ErrorIs(t, err, resolver.ErrNoBuilder)
		})
	}
}

type Tree struct {
	Value int
	Next  *Tree
	Kids  []Tree
}

func TestObject_SelfReferential(t *testing.T) {
	in := Tree{Value: 1, Next: &Tree{Value: 2}, Kids: []Tree{{Value: 3}}}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Tree{})
			data := write(t, tpl, in)
			assert.Equal(t, raw(t, []any{
				1,
				[]any{2, nil, nil},
				[]any{[]any{3, nil, nil}},
			}), data)

			var out Tree
			require.NoError(t, read(tpl, data, &out))
			assert.Equal(t, in, out)
		})
	}
}

type Stamped struct {
	At time.Time
}

func TestObject_SelfEncodingFieldsStayNative(t *testing.T) {
	in := Stamped{At: time.Unix(1700000000, 5).UTC()}
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			tpl := build(t, be.object(), Stamped{})
			data := write(t, tpl, in)
			assert.Equal(t, raw(t, []any{in.At}), data)

			var out Stamped
			require.NoError(t, read(tpl, data, &out))
			assert.True(t, in.At.Equal(out.At))
		})
	}
}
