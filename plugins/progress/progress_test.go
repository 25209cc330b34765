package progress

import (
	"fmt"
	"testing"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-scrollfriend/virtual"
	"github.com/ghetzel/testify/require"
)

func testScroller(t *testing.T, plugin *Plugin) (*virtual.Page, *scroll.Scroller) {
	page := virtual.NewPage(800, 600)

	for i := 0; i < 5; i++ {
		page.MustAdd(virtual.ElementSpec{
			ID: fmt.Sprintf("s%d", i),
			Rect: scroll.Rect{
				Top:    float64(i) * 600,
				Width:  800,
				Height: 600,
			},
		})
	}

	scroller, err := scroll.New(page, nil, nil)
	require.NoError(t, err)
	require.NoError(t, scroller.Plugin(plugin))

	return page, scroller
}

func TestProgressIsReported(t *testing.T) {
	assert := require.New(t)
	changes := make([]Progress, 0)

	plugin := New(&Options{
		OnChange: func(p Progress) {
			changes = append(changes, p)
		},
	})

	page, scroller := testScroller(t, plugin)
	assert.Equal(0.01, plugin.options.Step)
	assert.Equal(0.0, plugin.Progress().Percent)

	scroller.SetPosition(1200)
	page.Frame()

	assert.Len(changes, 1)
	assert.Equal(0.5, changes[0].Percent)
	assert.Equal(1200.0, changes[0].Position)
	assert.Equal(Forward, changes[0].Heading)

	// too small a change to report, but still tracked
	scroller.SetPosition(1190)
	page.Frame()

	assert.Len(changes, 1)
	assert.Equal(Backward, plugin.Progress().Heading)
	assert.Equal(1190.0, plugin.Progress().Position)

	scroller.SetPosition(2400)
	page.Frame()

	assert.Len(changes, 2)
	assert.Equal(1.0, changes[1].Percent)
	assert.Equal(Forward, changes[1].Heading)

	scroller.SetPosition(0)
	page.Frame()

	assert.Len(changes, 3)
	assert.Equal(0.0, changes[2].Percent)
	assert.Equal(Backward, changes[2].Heading)
}

func TestProgressWithoutOverflow(t *testing.T) {
	assert := require.New(t)
	page := virtual.NewPage(800, 600)

	scroller, err := scroll.New(page, nil, nil)
	assert.NoError(err)

	plugin := New(nil)
	assert.NoError(scroller.Plugin(plugin))
	assert.Equal(1.0, plugin.Progress().Percent)
	assert.Equal(Still, plugin.Progress().Heading)
}
