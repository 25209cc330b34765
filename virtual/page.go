// Package virtual implements an in-memory, deterministic scroll.Platform.  Nothing
// happens on its own: callers drive time forward with Advance and render frames
// with Frame (or both with Step and Run).
package virtual

import (
	"sync"
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/log"
)

const DocumentID = `document`
const WindowID = `window`

var FrameInterval = 16 * time.Millisecond

type Page struct {
	width      float64
	height     float64
	root       *Box
	byId       map[string]*Box
	order      []*Box
	anonymous  int
	registry   *events.Registry
	now        time.Duration
	frames     []scroll.FrameFunc
	timers     []*timer
	timerSeq   int
	pending    []*Box
	observers  []*observer
	history    *History
	frameCount int
	tasks      []func()
	tasklock   sync.Mutex
}

func NewPage(width float64, height float64) *Page {
	page := &Page{
		width:    width,
		height:   height,
		byId:     make(map[string]*Box),
		order:    make([]*Box, 0),
		registry: events.NewRegistry(),
		frames:   make([]scroll.FrameFunc, 0),
		timers:   make([]*timer, 0),
		pending:  make([]*Box, 0),
	}

	page.root = &Box{
		page:       page,
		id:         DocumentID,
		tag:        `html`,
		attributes: make(map[string]string),
		layout: scroll.Rect{
			Width:  width,
			Height: height,
		},
		children: make([]*Box, 0),
	}

	page.byId[DocumentID] = page.root
	page.history = newHistory(page, `/`)

	return page
}

func (self *Page) Document() scroll.Container {
	return self.root
}

// The root box of the page, which scrolls with the window.
func (self *Page) Root() *Box {
	return self.root
}

func (self *Page) WindowSize() (float64, float64) {
	return self.width, self.height
}

func (self *Page) Resize(width float64, height float64) {
	self.width = width
	self.height = height
	self.root.layout.Width = width
	self.root.layout.Height = height

	// clamp offsets to the new scrollable range
	for _, box := range self.order {
		box.SetScrollOffset(scroll.Vertical, box.offsetY)
		box.SetScrollOffset(scroll.Horizontal, box.offsetX)
	}

	self.root.SetScrollOffset(scroll.Vertical, self.root.offsetY)
	self.root.SetScrollOffset(scroll.Horizontal, self.root.offsetX)
}

// Add a box to the document.
func (self *Page) Add(spec ElementSpec) (*Box, error) {
	return self.root.Add(spec)
}

func (self *Page) MustAdd(spec ElementSpec) *Box {
	return self.root.MustAdd(spec)
}

func (self *Page) Get(id string) (*Box, bool) {
	box, ok := self.byId[id]
	return box, ok
}

func (self *Page) History() scroll.History {
	return self.history
}

// The concrete session history of this page.
func (self *Page) Session() *History {
	return self.history
}

func (self *Page) targetId(target scroll.Element) string {
	if target == nil {
		return WindowID
	} else {
		return target.ID()
	}
}

func (self *Page) AddListener(target scroll.Element, eventGlob string, handler events.HandlerFunc) (string, error) {
	return self.registry.Add(self.targetId(target), eventGlob, handler)
}

func (self *Page) RemoveListener(id string) {
	self.registry.Remove(id)
}

// Count the listeners registered for an event on the given target.
func (self *Page) Listeners(target scroll.Element, name string) int {
	return self.registry.Listening(self.targetId(target), name)
}

func (self *Page) Dispatch(target scroll.Element, event *events.Event) bool {
	event.Target = self.targetId(target)
	return self.registry.Dispatch(event)
}

func (self *Page) RequestFrame(fn scroll.FrameFunc) {
	if fn != nil {
		self.frames = append(self.frames, fn)
	}
}

func (self *Page) PendingFrames() int {
	return len(self.frames)
}

// Queue fn to run at the start of the next frame.  Safe to call from any goroutine.
func (self *Page) Post(fn func()) {
	if fn == nil {
		return
	}

	self.tasklock.Lock()
	defer self.tasklock.Unlock()

	self.tasks = append(self.tasks, fn)
}

func (self *Page) Now() time.Duration {
	return self.now
}

func (self *Page) FrameCount() int {
	return self.frameCount
}

// Render one frame at the current time: run posted tasks, deliver queued scroll
// events, run the frame callbacks requested so far, then update intersection
// observers.
func (self *Page) Frame() {
	self.frameCount += 1

	self.tasklock.Lock()
	tasks := self.tasks
	self.tasks = nil
	self.tasklock.Unlock()

	for _, task := range tasks {
		task()
	}

	self.flushScrollEvents()

	callbacks := self.frames
	self.frames = make([]scroll.FrameFunc, 0)

	for _, callback := range callbacks {
		callback(self.now)
	}

	for _, observer := range append([]*observer(nil), self.observers...) {
		observer.update(self.now)
	}
}

// Advance the clock by d, then render a frame.
func (self *Page) Step(d time.Duration) {
	self.Advance(d)
	self.Frame()
}

// Render frames every FrameInterval until d has elapsed.
func (self *Page) Run(d time.Duration) {
	deadline := self.now + d

	for self.now < deadline {
		step := FrameInterval

		if remaining := deadline - self.now; remaining < step {
			step = remaining
		}

		self.Step(step)
	}
}

func (self *Page) queueScroll(box *Box) {
	for _, pending := range self.pending {
		if pending == box {
			return
		}
	}

	self.pending = append(self.pending, box)
}

func (self *Page) flushScrollEvents() {
	pending := self.pending
	self.pending = make([]*Box, 0)

	for _, box := range pending {
		self.Dispatch(box, events.New(scroll.EventScroll, map[string]interface{}{
			`x`: box.offsetX,
			`y`: box.offsetY,
		}))
	}
}

// Scroll a box by delta along the axis, as a user would with a wheel or trackpad.
func (self *Page) Wheel(box *Box, direction scroll.Direction, delta float64) {
	if box == nil {
		box = self.root
	}

	box.SetScrollOffset(direction, box.ScrollOffset(direction)+delta)
}

// Dispatch a click on the box.  Unless a listener prevents it, clicking a link to an
// in-page fragment jumps to the matching element and records the fragment in history.
func (self *Page) Click(box *Box) bool {
	event := events.NewCancelable(scroll.EventClick, nil)

	if !self.Dispatch(box, event) {
		return false
	}

	if href, ok := box.Attribute(`href`); ok && len(href) > 1 && href[0] == '#' {
		if target, ok := self.byId[href[1:]]; ok {
			rect, _ := target.BoundingRect()
			self.root.SetScrollOffset(scroll.Vertical, self.root.offsetY+rect.Top)
			self.history.Push(nil, href)

			log.Debugf("[page] followed %v to %v", href, target)
		}
	}

	return true
}
