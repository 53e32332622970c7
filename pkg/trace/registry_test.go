package trace

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/pkg/dataset"
)

func line(name string, values ...float64) *Trace {
	return NewLine(name, dataset.Arange("x", len(values)), dataset.MustFromValues(name, values))
}

func record(r *Registry) *[]Event {
	var events []Event
	r.Subscribe(func(e Event) { events = append(events, e) })
	return &events
}

func TestPutGetRemove(t *testing.T) {
	r := NewRegistry()
	events := record(r)

	a := line("a", 1, 2)
	r.Put("a", a)
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	r.Remove("missing")
	r.Remove("a")
	_, ok = r.Get("a")
	assert.False(t, ok)

	require.Len(t, *events, 2)
	assert.Equal(t, Added, (*events)[0].Type)
	assert.Equal(t, Removed, (*events)[1].Type)
}

func TestPutReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry()
	events := record(r)
	r.Put("a", line("a", 1))
	r.Put("b", line("b", 2))
	r.Put("a", line("a", 3))

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, Updated, (*events)[2].Type)
	l, _ := r.Traces()[0].Line()
	assert.Equal(t, 3.0, l.Y.Flat(0))
}

func TestRenameMovesToEnd(t *testing.T) {
	r := NewRegistry()
	events := record(r)
	a := line("a", 1)
	r.Put("a", a)
	r.Put("b", line("b", 2))
	r.Put("c", line("c", 3))

	require.NoError(t, r.Rename("a", "z"))
	assert.Equal(t, []string{"b", "c", "z"}, r.Names())

	got, ok := r.Get("z")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, "z", a.Name)

	last := (*events)[len(*events)-1]
	assert.Equal(t, Updated, last.Type)
	assert.Equal(t, "a", last.OldName)
	assert.Equal(t, "z", last.Name)
}

func TestRenameErrors(t *testing.T) {
	r := NewRegistry()
	r.Put("a", line("a", 1))
	r.Put("b", line("b", 2))

	assert.ErrorIs(t, r.Rename("a", "b"), ErrDuplicateName)
	assert.ErrorIs(t, r.Rename("nope", "c"), ErrNotFound)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.NoError(t, r.Rename("a", "a"))
}

func TestClearFiresOneEvent(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("t%d", i)
		r.Put(name, line(name, float64(i)))
	}
	events := record(r)
	r.Clear()

	assert.Equal(t, 0, r.Len())
	require.Len(t, *events, 1)
	assert.Equal(t, Cleared, (*events)[0].Type)
}

func TestSnapshotSurvivesMutationInListener(t *testing.T) {
	r := NewRegistry()
	r.Put("a", line("a", 1))
	r.Put("b", line("b", 2))

	r.Subscribe(func(e Event) {
		if e.Type == Added && e.Name == "c" {
			for _, tr := range r.Traces() {
				if tr.Name != "c" {
					r.Remove(tr.Name)
				}
			}
		}
	})
	r.Put("c", line("c", 3))
	assert.Equal(t, []string{"c"}, r.Names())
}

// TestRegistryIdentity checks random put/remove/rename sequences against
// a plain map model
func TestRegistryIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewRegistry()
	model := map[string]*Trace{}
	names := []string{"a", "b", "c", "d", "e"}

	for step := 0; step < 2000; step++ {
		name := names[rng.Intn(len(names))]
		switch rng.Intn(3) {
		case 0:
			tr := line(name, float64(step))
			r.Put(name, tr)
			model[name] = tr
		case 1:
			r.Remove(name)
			delete(model, name)
		case 2:
			to := names[rng.Intn(len(names))]
			err := r.Rename(name, to)
			_, had := model[name]
			_, taken := model[to]
			switch {
			case !had:
				assert.ErrorIs(t, err, ErrNotFound)
			case to == name:
				assert.NoError(t, err)
			case taken:
				assert.ErrorIs(t, err, ErrDuplicateName)
			default:
				require.NoError(t, err)
				model[to] = model[name]
				delete(model, name)
			}
		}

		require.Equal(t, len(model), r.Len())
		seen := map[string]bool{}
		for _, n := range r.Names() {
			require.False(t, seen[n], "duplicate name %s", n)
			seen[n] = true
			got, ok := r.Get(n)
			require.True(t, ok)
			require.Same(t, model[n], got)
		}
	}
}

func TestUserTraces(t *testing.T) {
	r := NewRegistry()
	r.Put("a", line("a", 1))
	deco := line("fit", 1)
	deco.User = false
	r.Put("fit", deco)
	r.Put("img", NewImage("img", dataset.New("img", 2, 2)))

	got := r.UserTraces(KindLine)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}
