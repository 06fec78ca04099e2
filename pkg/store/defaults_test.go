package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShallowCopyLeavesPreviousUntouched(t *testing.T) {
	prev := counter{Count: 1, Label: "a"}
	out := ShallowCopy(&prev, func(d any) { d.(*counter).Count = 2 })

	assert.Equal(t, counter{Count: 1, Label: "a"}, prev)
	assert.Equal(t, &counter{Count: 2, Label: "a"}, out)
}

func TestShallowCopyNonPointer(t *testing.T) {
	assert.Equal(t, 3, ShallowCopy(3, func(any) { t.Fatal("patch must not run") }))
}

func TestCustomMutator(t *testing.T) {
	prev := Defaults.Mutator
	calls := 0
	Defaults.Mutator = func(p any, patch func(any)) any {
		calls++
		return ShallowCopy(p, patch)
	}
	defer func() { Defaults.Mutator = prev }()

	inst := GetStore(NewRegistry(), newCounterStore("counter"), GlobalScope)
	inst.Actions().Increment(1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, inst.State().GetState().Count)
}

func TestNilMutatorPatchesCopy(t *testing.T) {
	prev := Defaults.Mutator
	Defaults.Mutator = nil
	defer func() { Defaults.Mutator = prev }()

	inst := GetStore(NewRegistry(), newCounterStore("counter"), GlobalScope)
	inst.Actions().Increment(2)
	assert.Equal(t, 2, inst.State().GetState().Count)
}

func TestInterfaceState(t *testing.T) {
	s := Create(Config[any, struct{}]{InitialState: 1})
	inst := GetStore(NewRegistry(), s, GlobalScope)

	notified := 0
	inst.State().Subscribe(func() { notified++ })

	inst.State().SetState(func(v *any) { *v = "text" })
	assert.Equal(t, "text", inst.State().GetState())
	assert.Equal(t, 1, notified)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(1, 1))
	assert.False(t, Equal("a", "b"))
	assert.True(t, Equal([]int{1, 2}, []int{1, 2}))
	assert.True(t, Equal(map[string]int{"a": 1}, map[string]int{"a": 1}))
	assert.False(t, Equal[any](1, "1"))
	assert.True(t, Equal(counter{Count: 1}, counter{Count: 1}))
}
