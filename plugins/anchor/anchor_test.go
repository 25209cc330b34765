package anchor

import (
	"testing"
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-scrollfriend/virtual"
	"github.com/ghetzel/testify/require"
)

func testPage(t *testing.T, options *Options) (*virtual.Page, *scroll.Scroller, *Plugin) {
	page := virtual.NewPage(800, 600)

	for i, id := range []string{`home`, `s1`, `s2`, `s3`} {
		spec := virtual.ElementSpec{
			ID:  id,
			Tag: `section`,
			Rect: scroll.Rect{
				Top:    float64(i) * 600,
				Width:  800,
				Height: 600,
			},
		}

		if id == `s3` {
			spec.Attributes = map[string]string{
				`data-id`: `last`,
			}
		}

		page.MustAdd(spec)
	}

	home, _ := page.Get(`home`)

	for id, href := range map[string]string{
		`to-s2`:    `#s2`,
		`to-last`:  `#last`,
		`external`: `/about`,
		`dead`:     `#gone`,
	} {
		home.MustAdd(virtual.ElementSpec{
			ID:      id,
			Tag:     `a`,
			Classes: []string{`flz-scroll-anchor`},
			Attributes: map[string]string{
				`href`: href,
			},
		})
	}

	scroller, err := scroll.New(page, nil, nil)
	require.NoError(t, err)

	plugin, err := New(options)
	require.NoError(t, err)
	require.NoError(t, scroller.Plugin(plugin))

	return page, scroller, plugin
}

func navigations(page *virtual.Page) *[]string {
	seen := make([]string, 0)

	page.AddListener(page.Document(), scroll.EventNavigatePatterns, func(e *events.Event) {
		seen = append(seen, e.Name+` `+e.D().String(`target`))
	})

	return &seen
}

func TestDefaults(t *testing.T) {
	assert := require.New(t)

	plugin, err := New(nil)
	assert.NoError(err)
	assert.Equal(`.flz-scroll-anchor`, plugin.Options().AnchorsSelector)
	assert.Equal(`#home`, plugin.Options().HomeTarget)
	assert.Equal(600*time.Millisecond, plugin.Options().Duration)
	assert.False(plugin.Options().NoHistory)

	_, err = New(&Options{
		Easing: `wobbly`,
	})

	assert.Error(err)
}

func TestClickNavigates(t *testing.T) {
	assert := require.New(t)
	page, scroller, plugin := testPage(t, nil)
	seen := navigations(page)
	clicks := 0

	assert.Len(plugin.Anchors(), 4)

	plugin.OnClick(func(anchor scroll.Element, event *events.Event) {
		assert.Equal(`to-s2`, anchor.ID())
		assert.True(event.DefaultPrevented())
		clicks += 1
	})

	link, _ := page.Get(`to-s2`)
	assert.False(page.Click(link))
	assert.True(scroller.IsAnimating())
	assert.Equal([]string{`Scroll.beforeNavigate #s2`}, *seen)

	page.Run(700 * time.Millisecond)

	assert.Equal(1200.0, scroller.Position())
	assert.Equal(1, clicks)
	assert.Equal([]string{
		`Scroll.beforeNavigate #s2`,
		`Scroll.afterNavigate #s2`,
	}, *seen)

	current := page.Session().Current()
	assert.Equal(`#s2`, current.URL)
	assert.Equal(`#s2`, current.State[`target`])
}

func TestDataIdTargets(t *testing.T) {
	assert := require.New(t)
	page, scroller, _ := testPage(t, nil)
	seen := navigations(page)

	link, _ := page.Get(`to-last`)
	assert.False(page.Click(link))
	page.Run(700 * time.Millisecond)

	assert.Equal(1800.0, scroller.Position())
	assert.Equal(`Scroll.afterNavigate #s3`, (*seen)[1])

	current := page.Session().Current()
	assert.Equal(`#last`, current.URL)
	assert.Equal(`#s3`, current.State[`target`])
}

func TestCancelledNavigation(t *testing.T) {
	assert := require.New(t)
	page, scroller, plugin := testPage(t, nil)
	clicks := 0

	plugin.OnClick(func(scroll.Element, *events.Event) {
		clicks += 1
	})

	page.AddListener(page.Document(), scroll.EventBeforeNavigate, func(e *events.Event) {
		e.PreventDefault()
	})

	link, _ := page.Get(`to-s2`)

	// the click itself is left alone, so the page follows the link on its own
	assert.True(page.Click(link))
	assert.False(scroller.IsAnimating())
	assert.Equal(0, clicks)
	assert.Nil(page.Session().Current().State)
}

func TestOtherLinksAreIgnored(t *testing.T) {
	assert := require.New(t)
	page, scroller, _ := testPage(t, nil)
	seen := navigations(page)

	link, _ := page.Get(`external`)
	assert.True(page.Click(link))
	assert.False(scroller.IsAnimating())
	assert.Empty(*seen)
	assert.Equal(1, page.Session().Len())
}

func TestPopStateRestoresTargets(t *testing.T) {
	assert := require.New(t)
	page, scroller, plugin := testPage(t, nil)

	assert.NoError(plugin.Navigate(`#s2`))
	page.Run(700 * time.Millisecond)
	assert.NoError(plugin.Navigate(`#s1`))
	page.Run(700 * time.Millisecond)

	assert.Equal(600.0, scroller.Position())
	assert.Equal(3, page.Session().Len())

	assert.True(page.Session().Back())
	page.Run(700 * time.Millisecond)
	assert.Equal(1200.0, scroller.Position())

	// the initial entry has no state, so it leads home
	assert.True(page.Session().Back())
	page.Run(700 * time.Millisecond)
	assert.Equal(0.0, scroller.Position())

	assert.Equal(3, page.Session().Len())
	assert.Equal(`#s1`, page.Session().Entries()[2].URL)
}

func TestHomeReplacesHistory(t *testing.T) {
	assert := require.New(t)
	page, scroller, plugin := testPage(t, nil)

	scroller.SetPosition(900)
	assert.NoError(plugin.Navigate(`#home`))
	page.Run(700 * time.Millisecond)

	assert.Equal(0.0, scroller.Position())
	assert.Equal(2, page.Session().Len())

	current := page.Session().Current()
	assert.Equal(`/`, current.URL)
	assert.True(current.Replaced)
	assert.Equal(`#home`, current.State[`target`])
}

func TestNoHistory(t *testing.T) {
	assert := require.New(t)
	page, scroller, plugin := testPage(t, &Options{
		NoHistory: true,
		Duration:  100 * time.Millisecond,
		Easing:    `linear`,
	})

	assert.NoError(plugin.Navigate(`#s1`))
	page.Run(200 * time.Millisecond)

	assert.Equal(600.0, scroller.Position())
	assert.Equal(1, page.Session().Len())
}

func TestMissingTargets(t *testing.T) {
	assert := require.New(t)
	page, scroller, plugin := testPage(t, nil)
	seen := navigations(page)
	clicked := 0

	plugin.OnClick(func(scroll.Element, *events.Event) {
		clicked += 1
	})

	assert.True(virtual.IsNoSuchElementErr(plugin.Navigate(`#nowhere`)))
	assert.False(scroller.IsAnimating())

	link, _ := page.Get(`dead`)
	assert.True(page.Click(link))
	page.Run(time.Second)

	assert.False(scroller.IsAnimating())
	assert.Equal(0.0, scroller.Position())
	assert.Equal(0, clicked)
	assert.Empty(*seen)
	assert.Equal(1, page.Session().Len())
}

func TestCloseRemovesListeners(t *testing.T) {
	assert := require.New(t)
	page, scroller, _ := testPage(t, nil)
	link, _ := page.Get(`to-s2`)

	assert.Equal(1, page.Listeners(link, scroll.EventClick))
	assert.Equal(1, page.Listeners(nil, scroll.EventPopState))

	assert.NoError(scroller.Close())

	assert.Equal(0, page.Listeners(link, scroll.EventClick))
	assert.Equal(0, page.Listeners(nil, scroll.EventPopState))
}
