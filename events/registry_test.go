package events

import (
	"testing"

	"github.com/ghetzel/testify/require"
)

func TestRegistryDispatchByGlob(t *testing.T) {
	assert := require.New(t)
	registry := NewRegistry()
	seen := make([]string, 0)

	_, err := registry.Add(`main`, `Scroll.*`, func(event *Event) {
		seen = append(seen, `glob:`+event.Name)
	})

	assert.NoError(err)

	_, err = registry.Add(`main`, `scroll`, func(event *Event) {
		seen = append(seen, `exact:`+event.Name)
	})

	assert.NoError(err)

	_, err = registry.Add(AnyTarget, `*`, func(event *Event) {
		seen = append(seen, `any:`+event.Name)
	})

	assert.NoError(err)

	assert.True(registry.Dispatch(&Event{Name: `scroll`, Target: `main`}))
	assert.True(registry.Dispatch(&Event{Name: `Scroll.afterNavigate`, Target: `main`}))
	assert.True(registry.Dispatch(&Event{Name: `scroll`, Target: `other`}))

	assert.Equal([]string{
		`exact:scroll`,
		`any:scroll`,
		`glob:Scroll.afterNavigate`,
		`any:Scroll.afterNavigate`,
		`any:scroll`,
	}, seen)

	assert.Equal(2, registry.Listening(`main`, `scroll`))
}

func TestRegistryPreventDefault(t *testing.T) {
	assert := require.New(t)
	registry := NewRegistry()

	_, err := registry.Add(`doc`, `Scroll.beforeNavigate`, func(event *Event) {
		assert.Equal(`#about`, event.D().String(`target`))
		event.PreventDefault()
	})

	assert.NoError(err)

	cancelable := NewCancelable(`Scroll.beforeNavigate`, map[string]interface{}{
		`target`: `#about`,
	})

	cancelable.Target = `doc`
	assert.False(registry.Dispatch(cancelable))
	assert.True(cancelable.DefaultPrevented())

	plain := New(`Scroll.beforeNavigate`, map[string]interface{}{
		`target`: `#about`,
	})

	plain.Target = `doc`
	assert.True(registry.Dispatch(plain))
	assert.False(plain.DefaultPrevented())
}

func TestRegistryRemoveAndStopPropagation(t *testing.T) {
	assert := require.New(t)
	registry := NewRegistry()
	var first, second int

	id, err := registry.Add(`a`, `click`, func(event *Event) {
		first += 1
		event.StopPropagation()
	})

	assert.NoError(err)

	_, err = registry.Add(`a`, `click`, func(event *Event) {
		second += 1
	})

	assert.NoError(err)

	registry.Dispatch(&Event{Name: `click`, Target: `a`})
	assert.Equal(1, first)
	assert.Equal(0, second)

	assert.True(registry.Remove(id))
	assert.False(registry.Remove(id))
	assert.Equal(1, registry.Len())

	registry.Dispatch(&Event{Name: `click`, Target: `a`})
	assert.Equal(1, first)
	assert.Equal(1, second)

	_, err = registry.Add(`a`, `click`, nil)
	assert.Error(err)

	_, err = registry.Add(`a`, `[unterminated`, func(*Event) {})
	assert.Error(err)
}
