package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/testify/require"
)

type fakeRuntime struct {
	lock    sync.Mutex
	scripts []string
	values  map[string]interface{}
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		scripts: make([]string, 0),
		values: map[string]interface{}{
			jsCall(`state`): map[string]interface{}{
				`width`:  800,
				`height`: 600,
				`path`:   `/`,
				`document`: map[string]interface{}{
					`width`:        800,
					`height`:       3000,
					`clientWidth`:  800,
					`clientHeight`: 600,
				},
			},
		},
	}
}

func (self *fakeRuntime) set(script string, value interface{}) {
	self.lock.Lock()
	defer self.lock.Unlock()

	self.values[script] = value
}

func (self *fakeRuntime) EvaluateInto(script string, into interface{}) error {
	self.lock.Lock()
	defer self.lock.Unlock()

	self.scripts = append(self.scripts, script)

	if value, ok := self.values[script]; ok {
		if data, err := json.Marshal(value); err == nil {
			return json.Unmarshal(data, into)
		} else {
			return err
		}
	}

	return fmt.Errorf("unexpected script: %v", script)
}

func (self *fakeRuntime) EvaluateAsync(script string) error {
	self.lock.Lock()
	defer self.lock.Unlock()

	self.scripts = append(self.scripts, script)
	return nil
}

func (self *fakeRuntime) ran(script string) bool {
	return self.count(script) > 0
}

func (self *fakeRuntime) count(script string) int {
	self.lock.Lock()
	defer self.lock.Unlock()

	var n int

	for _, s := range self.scripts {
		if s == script {
			n += 1
		}
	}

	return n
}

func (self *fakeRuntime) calls(function string) int {
	self.lock.Lock()
	defer self.lock.Unlock()

	var n int
	prefix := `window.__scrollfriend.` + function + `(`

	for _, s := range self.scripts {
		if strings.HasPrefix(s, prefix) {
			n += 1
		}
	}

	return n
}

func newTestPage(t *testing.T) (*Page, *fakeRuntime) {
	rt := newFakeRuntime()
	page := newPage(rt, NewLoop())

	require.NoError(t, page.install())
	page.loop.Start()

	return page, rt
}

// Run fn on the page's loop and wait for it to return.
func onLoop(t *testing.T, page *Page, fn func()) {
	done := make(chan struct{})

	page.Post(func() {
		defer close(done)
		fn()
	})

	waitFor(t, done)
}

func scrollPayload(target string, seq int64, y float64) string {
	return fmt.Sprintf(
		`{"kind":"event","target":%q,"name":"scroll","scroll":{"seq":%d,"x":0,"y":%v,"width":800,"height":3000,"clientWidth":800,"clientHeight":600}}`,
		target,
		seq,
		y,
	)
}

func TestJsCall(t *testing.T) {
	assert := require.New(t)

	assert.Equal(`window.__scrollfriend.listen("document", "scroll")`, jsCall(`listen`, `document`, `scroll`))
	assert.Equal(`window.__scrollfriend.observer("io1", null, "", [0.1,0.5])`, jsCall(`observer`, `io1`, nil, ``, []float64{0.1, 0.5}))
	assert.Equal(`window.__scrollfriend.state()`, jsCall(`state`))
	assert.Contains(bootstrapScript, `window.`+BindingName+`(JSON.stringify(message))`)
}

func TestPageInstall(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	width, height := page.WindowSize()
	assert.Equal(800.0, width)
	assert.Equal(600.0, height)
	assert.Equal(DocumentID, page.Document().ID())
	assert.Equal(3000.0, page.Document().ScrollSize(scroll.Vertical))
	assert.True(rt.ran(bootstrapScript))

	page.Notify(`{"kind":"resize","width":1024,"height":768}`)

	onLoop(t, page, func() {
		width, height = page.WindowSize()
	})

	assert.Equal(1024.0, width)
	assert.Equal(768.0, height)
}

func TestPageScrollerReceivesScrollNotifications(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	seen := make(chan float64, 10)
	var scroller *scroll.Scroller

	onLoop(t, page, func() {
		var err error

		scroller, err = scroll.New(page, nil, nil)
		assert.NoError(err)

		scroller.OnScroll(func(s *scroll.Scroller) {
			seen <- s.Position()
		})

		scroller.OnScrollForward(func(s *scroll.Scroller) {})
	})

	assert.Equal(1, rt.count(jsCall(`listen`, `document`, `scroll`)))

	page.Notify(scrollPayload(`document`, 0, 120))
	page.Notify(scrollPayload(`document`, 0, 250))

	// both notifications usually land in one frame, but a tick may split them
	for position := 0.0; position != 250; {
		select {
		case position = <-seen:
		case <-time.After(2 * time.Second):
			t.Fatal("scroll handler never saw the final position")
		}
	}

	onLoop(t, page, func() {
		assert.Equal(250.0, scroller.PreviousPosition())
		assert.NoError(scroller.Close())
	})
}

func TestPageIgnoresStaleScrollState(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	document := page.Document()

	onLoop(t, page, func() {
		document.SetScrollOffset(scroll.Vertical, 500)
		assert.Equal(500.0, document.ScrollOffset(scroll.Vertical))
	})

	assert.True(rt.ran(jsCall(`scrollTo`, DocumentID, 0.0, 500.0, 1)))

	page.Notify(scrollPayload(`document`, 0, 100))

	onLoop(t, page, func() {
		assert.Equal(500.0, document.ScrollOffset(scroll.Vertical))
	})

	page.Notify(scrollPayload(`document`, 1, 498))

	onLoop(t, page, func() {
		assert.Equal(498.0, document.ScrollOffset(scroll.Vertical))

		document.SetScrollOffset(scroll.Vertical, 10000)
		assert.Equal(2400.0, document.ScrollOffset(scroll.Vertical))

		document.SetScrollOffset(scroll.Vertical, -20)
		assert.Equal(0.0, document.ScrollOffset(scroll.Vertical))
	})

	assert.Equal(3, rt.calls(`scrollTo`))
}

func TestPageQuery(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	rt.set(jsCall(`query`, `css`, `.anchor`), []map[string]interface{}{
		{`id`: `el1`, `tag`: `a`, `attributes`: map[string]string{`href`: `#s2`}},
		{`id`: `el2`, `tag`: `a`, `attributes`: map[string]string{`href`: `#s3`, `data-id`: `three`}},
	})

	rt.set(jsCall(`query`, `text`, `Nowhere`), []interface{}{})
	rt.set(jsCall(`rect`, `el1`), map[string]interface{}{`top`: 40, `left`: 10, `width`: 100, `height`: 20})

	onLoop(t, page, func() {
		all, err := page.QueryAll(`.anchor`)
		assert.NoError(err)
		assert.Len(all, 2)
		assert.Equal(`el1`, all[0].ID())

		value, ok := all[1].Attribute(`data-id`)
		assert.True(ok)
		assert.Equal(`three`, value)

		first, err := page.Query(`@css[.anchor]`)
		assert.NoError(err)
		assert.True(first == all[0])

		rect, err := first.BoundingRect()
		assert.NoError(err)
		assert.Equal(40.0, rect.Top)
		assert.Equal(20.0, rect.Height)

		_, err = page.Query(`@[Nowhere]`)
		assert.True(IsNoSuchElementErr(err))

		_, err = page.Query(`@bogus[x]`)
		assert.Error(err)
	})
}

func TestPageClickFollowsUnlessPrevented(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	rt.set(jsCall(`query`, `css`, `a`), []map[string]interface{}{
		{`id`: `el1`, `tag`: `a`, `attributes`: map[string]string{`href`: `#s2`}},
		{`id`: `el2`, `tag`: `a`, `attributes`: map[string]string{`href`: `#s3`}},
	})

	clicks := make([]string, 0)

	onLoop(t, page, func() {
		links, err := page.QueryAll(`a`)
		assert.NoError(err)

		for _, link := range links {
			_, err := page.AddListener(link, scroll.EventClick, func(e *events.Event) {
				clicks = append(clicks, e.Target)

				if e.Target == `el2` {
					e.PreventDefault()
				}
			})

			assert.NoError(err)
		}
	})

	assert.True(rt.ran(jsCall(`listen`, `el1`, `click`)))
	assert.True(rt.ran(jsCall(`listen`, `el2`, `click`)))

	page.Notify(`{"kind":"event","target":"el1","name":"click","detail":{"href":"#s2"}}`)
	page.Notify(`{"kind":"event","target":"el2","name":"click","detail":{"href":"#s3"}}`)

	onLoop(t, page, func() {
		assert.Equal([]string{`el1`, `el2`}, clicks)
	})

	assert.True(rt.ran(jsCall(`follow`, `el1`)))
	assert.False(rt.ran(jsCall(`follow`, `el2`)))
}

func TestPageDispatchMirrorsEvents(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	onLoop(t, page, func() {
		_, err := page.AddListener(page.Document(), scroll.EventNavigatePatterns, func(e *events.Event) {
			e.PreventDefault()
		})

		assert.NoError(err)
		assert.False(page.Dispatch(page.Document(), scroll.NewBeforeNavigateEvent(`#s2`)))
		assert.True(page.Dispatch(page.Document(), scroll.NewAfterNavigateEvent(`#s2`)))
	})

	// glob listeners are not forwarded from the page
	assert.Equal(0, rt.calls(`listen`))
	assert.Equal(2, rt.calls(`emit`))
}

func TestPageIntersectionBridge(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	batches := make(chan []scroll.IntersectionEntry, 4)
	var observer scroll.IntersectionObserver

	onLoop(t, page, func() {
		var err error

		observer, err = page.NewIntersectionObserver(func(entries []scroll.IntersectionEntry) {
			batches <- entries
		}, scroll.IntersectionOptions{
			Root:       page.Document(),
			RootMargin: `10px`,
			Threshold:  []float64{0.1},
		})

		assert.NoError(err)
		assert.NoError(observer.Observe(page.element(`el7`)))

		_, err = page.NewIntersectionObserver(func([]scroll.IntersectionEntry) {}, scroll.IntersectionOptions{
			Threshold: []float64{2},
		})

		assert.Error(err)
	})

	assert.True(rt.ran(jsCall(`observer`, `io1`, nil, `10px`, []float64{0.1})))
	assert.True(rt.ran(jsCall(`observe`, `io1`, `el7`)))

	page.Notify(`{"kind":"intersection","observer":"io1","entries":[{"target":"el7","isIntersecting":true,"ratio":0.5,"bounds":{"top":500,"left":0,"width":800,"height":200},"intersection":{"top":500,"left":0,"width":800,"height":100},"root":null,"time":16}]}`)

	select {
	case entries := <-batches:
		assert.Len(entries, 1)
		assert.Equal(`el7`, entries[0].Target.ID())
		assert.True(entries[0].IsIntersecting)
		assert.Equal(0.5, entries[0].Ratio)
		assert.Equal(100.0, entries[0].IntersectionRect.Height)
		assert.Equal(600.0, entries[0].RootRect.Height)
		assert.Equal(16*time.Millisecond, entries[0].Time)
	case <-time.After(2 * time.Second):
		t.Fatal("intersection batch never delivered")
	}

	onLoop(t, page, func() {
		observer.Disconnect()
	})

	assert.True(rt.ran(jsCall(`disconnect`, `io1`)))

	page.Notify(`{"kind":"intersection","observer":"io1","entries":[{"target":"el7","isIntersecting":false}]}`)

	onLoop(t, page, func() {})
	assert.Len(batches, 0)
}

func TestPageHistory(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)
	defer page.Close()

	rt.set(`location.pathname`, `/docs/`)

	history := page.History()
	history.Push(map[string]interface{}{`target`: `#s1`}, `#s1`)
	history.Replace(nil, `/docs/`)

	assert.True(rt.ran(`history.pushState({"target":"#s1"}, '', "#s1")`))
	assert.True(rt.ran(`history.replaceState(null, '', "/docs/")`))
	assert.Equal(`/docs/`, history.Path())
}

func TestPageClose(t *testing.T) {
	assert := require.New(t)
	page, rt := newTestPage(t)

	assert.NoError(page.Close())
	assert.True(rt.ran(jsCall(`reset`)))

	_, err := page.Query(`a`)
	assert.True(IsPageClosedErr(err))
}
