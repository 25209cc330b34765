package term

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/ghetzel/testify/require"
)

func testDemo(t *testing.T) (tcell.SimulationScreen, *Demo) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 25)

	demo, err := NewDemo(screen, &Options{
		Sections:    6,
		SectionRows: 10,
	})

	require.NoError(t, err)
	return screen, demo
}

func line(screen tcell.SimulationScreen, y int) string {
	width, _ := screen.Size()
	var out strings.Builder

	for x := 0; x < width; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		out.WriteRune(r)
	}

	return out.String()
}

func key(k tcell.Key, r rune) *tcell.EventKey {
	return tcell.NewEventKey(k, r, tcell.ModNone)
}

func TestDemoLayout(t *testing.T) {
	assert := require.New(t)
	screen, demo := testDemo(t)
	defer screen.Fini()

	width, height := demo.Page().WindowSize()
	assert.Equal(800.0, width)
	assert.Equal(480.0, height)
	assert.Equal(1200.0, demo.Scroller().ScrollSize())

	_, err := NewDemo(screen, &Options{
		Sections: 12,
	})

	assert.Error(err)

	demo.Step()
	assert.Contains(line(screen, 0), `Section 1`)
	assert.Contains(line(screen, 10), `Section 2`)
	assert.True(strings.HasPrefix(line(screen, 0), `|`))
	assert.Contains(line(screen, 24), `0 / 1,200 px`)
}

func TestDemoKeysAndWheel(t *testing.T) {
	assert := require.New(t)
	screen, demo := testDemo(t)
	defer screen.Fini()

	assert.True(demo.Handle(key(tcell.KeyDown, 0)))
	demo.Step()
	assert.Equal(20.0, demo.Scroller().Position())

	assert.True(demo.Handle(key(tcell.KeyRune, 'j')))
	assert.True(demo.Handle(tcell.NewEventMouse(0, 0, tcell.WheelDown, tcell.ModNone)))
	demo.Step()
	assert.Equal(100.0, demo.Scroller().Position())

	assert.True(demo.Handle(key(tcell.KeyPgDn, 0)))
	demo.Step()
	assert.Equal(580.0, demo.Scroller().Position())
	assert.Contains(line(screen, 24), `forward`)

	assert.True(demo.Handle(key(tcell.KeyRune, 'k')))
	demo.Step()
	assert.Equal(560.0, demo.Scroller().Position())
	assert.Contains(line(screen, 24), `backward`)

	assert.False(demo.Handle(key(tcell.KeyRune, 'q')))
	assert.False(demo.Handle(key(tcell.KeyEscape, 0)))
}

func TestDemoNavigatesToSections(t *testing.T) {
	assert := require.New(t)
	screen, demo := testDemo(t)
	defer screen.Fini()

	assert.True(demo.Handle(key(tcell.KeyRune, '3')))
	assert.True(demo.Scroller().IsAnimating())

	for i := 0; i < 50; i++ {
		demo.Step()
	}

	assert.Equal(400.0, demo.Scroller().Position())
	assert.Contains(line(screen, 0), `Section 3`)
	assert.Contains(line(screen, 24), `arrived at #s3`)
	assert.Equal(`#section-3`, demo.Page().Session().Current().URL)

	assert.True(demo.Handle(key(tcell.KeyRune, 'G')))

	for i := 0; i < 50; i++ {
		demo.Step()
	}

	assert.Equal(720.0, demo.Scroller().Position())

	assert.True(demo.Handle(key(tcell.KeyHome, 0)))

	for i := 0; i < 50; i++ {
		demo.Step()
	}

	assert.Equal(0.0, demo.Scroller().Position())
}

func TestDemoResize(t *testing.T) {
	assert := require.New(t)
	screen, demo := testDemo(t)
	defer screen.Fini()

	screen.SetSize(100, 31)
	assert.True(demo.Handle(tcell.NewEventResize(100, 31)))

	width, height := demo.Page().WindowSize()
	assert.Equal(1000.0, width)
	assert.Equal(600.0, height)
}
