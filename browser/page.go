package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ghetzel/go-scrollfriend/dom"
	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/log"
)

const DocumentID = `document`
const WindowID = `window`

var _ scroll.Platform = (*Page)(nil)

// The page-side operations a Page needs from its tab.
type Runtime interface {
	EvaluateInto(script string, into interface{}) error
	EvaluateAsync(script string) error
}

type pageState struct {
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Path     string      `json:"path"`
	Document scrollState `json:"document"`
}

type entryState struct {
	Target         string       `json:"target"`
	IsIntersecting bool         `json:"isIntersecting"`
	Ratio          float64      `json:"ratio"`
	Bounds         scroll.Rect  `json:"bounds"`
	Intersection   scroll.Rect  `json:"intersection"`
	Root           *scroll.Rect `json:"root"`
	Time           float64      `json:"time"`
}

type notification struct {
	Kind     string                 `json:"kind"`
	Target   string                 `json:"target"`
	Name     string                 `json:"name"`
	Detail   map[string]interface{} `json:"detail"`
	Scroll   *scrollState           `json:"scroll"`
	Observer string                 `json:"observer"`
	Entries  []entryState           `json:"entries"`
	Width    float64                `json:"width"`
	Height   float64                `json:"height"`
}

// A Page is a scroll.Platform backed by a document loaded in a browser tab.  Every
// callback runs on the page's Loop; methods other than Post and Notify must only be
// called from that goroutine.
type Page struct {
	runtime       Runtime
	tab           *Tab
	loop          *Loop
	registry      *events.Registry
	document      *Element
	elements      map[string]*Element
	forwarding    map[string]bool
	observers     map[string]*pageObserver
	observerSeq   int
	writeSeq      int64
	width         float64
	height        float64
	path          string
	bindingHandle string
	closed        bool
}

func newPage(runtime Runtime, loop *Loop) *Page {
	page := &Page{
		runtime:    runtime,
		loop:       loop,
		registry:   events.NewRegistry(),
		elements:   make(map[string]*Element),
		forwarding: make(map[string]bool),
		observers:  make(map[string]*pageObserver),
	}

	page.document = newElement(page, DocumentID)
	page.document.tag = `html`
	page.elements[DocumentID] = page.document

	return page
}

// Attach to the document currently loaded in the tab and start the page's loop.
func NewPage(tab *Tab) (*Page, error) {
	page := newPage(tab, NewLoop())
	page.tab = tab

	if err := tab.AddBinding(BindingName); err != nil {
		return nil, err
	}

	if id, err := tab.RegisterEventHandler(`Runtime.bindingCalled`, func(event *Event) {
		if event.P().String(`name`) == BindingName {
			page.Notify(event.P().String(`payload`))
		}
	}); err == nil {
		page.bindingHandle = id
	} else {
		return nil, err
	}

	if err := tab.AddScriptToNewDocuments(bootstrapScript); err != nil {
		return nil, err
	}

	if err := page.install(); err != nil {
		return nil, err
	}

	page.loop.Start()

	return page, nil
}

func (self *Page) install() error {
	if err := self.runtime.EvaluateAsync(bootstrapScript); err != nil {
		return err
	}

	var state pageState

	if err := self.runtime.EvaluateInto(jsCall(`state`), &state); err != nil {
		return fmt.Errorf("bootstrap failed: %v", err)
	}

	self.width = state.Width
	self.height = state.Height
	self.path = state.Path
	self.document.applyScroll(state.Document)

	log.Debugf("[page] attached to %v (%vx%v)", self.path, self.width, self.height)
	return nil
}

func (self *Page) Loop() *Loop {
	return self.loop
}

func (self *Page) Document() scroll.Container {
	return self.document
}

func (self *Page) WindowSize() (float64, float64) {
	return self.width, self.height
}

// Query the page for the first element matching selector.  Selectors may carry a
// @css[...], @xpath[...] or @[text] annotation.
func (self *Page) Query(selector string) (scroll.Element, error) {
	if elements, err := self.query(selector); err == nil {
		if len(elements) == 0 {
			return nil, fmt.Errorf("%q: %w", selector, ErrNoSuchElement)
		}

		return elements[0], nil
	} else {
		return nil, err
	}
}

func (self *Page) QueryAll(selector string) ([]scroll.Element, error) {
	if elements, err := self.query(selector); err == nil {
		out := make([]scroll.Element, len(elements))

		for i, el := range elements {
			out[i] = el
		}

		return out, nil
	} else {
		return nil, err
	}
}

func (self *Page) query(selector string) ([]*Element, error) {
	if self.closed {
		return nil, ErrPageClosed
	}

	atype, inner, err := dom.Selector(selector).GetAnnotation()

	if err != nil {
		return nil, err
	}

	var states []elementState

	if err := self.runtime.EvaluateInto(jsCall(`query`, atype, inner), &states); err != nil {
		return nil, err
	}

	elements := make([]*Element, 0, len(states))

	for _, state := range states {
		el := self.element(state.ID)
		el.update(state)
		elements = append(elements, el)
	}

	return elements, nil
}

// Return the element with the given reference, creating a placeholder if the page
// has not described it yet.  The window has no element.
func (self *Page) element(id string) *Element {
	if id == WindowID || id == `` {
		return nil
	}

	if el, ok := self.elements[id]; ok {
		return el
	}

	el := newElement(self, id)
	self.elements[id] = el
	return el
}

func (self *Page) targetId(target scroll.Element) string {
	if target == nil {
		return WindowID
	} else {
		return target.ID()
	}
}

// Register a listener.  Listening for a concrete event name also asks the page to
// forward that DOM event from the target.
func (self *Page) AddListener(target scroll.Element, eventGlob string, handler events.HandlerFunc) (string, error) {
	tid := self.targetId(target)

	if id, err := self.registry.Add(tid, eventGlob, handler); err == nil {
		if !strings.ContainsAny(eventGlob, `*?[{`) {
			self.forward(tid, eventGlob)
		}

		return id, nil
	} else {
		return ``, err
	}
}

func (self *Page) forward(target string, name string) {
	key := target + `/` + name

	if self.forwarding[key] {
		return
	}

	if err := self.runtime.EvaluateAsync(jsCall(`listen`, target, name)); err == nil {
		self.forwarding[key] = true
	} else {
		log.Warningf("[page] cannot forward %v on %v: %v", name, target, err)
	}
}

func (self *Page) RemoveListener(id string) {
	self.registry.Remove(id)
}

// Dispatch an event to listeners registered here, and mirror it into the page as
// a DOM CustomEvent for page scripts.
func (self *Page) Dispatch(target scroll.Element, event *events.Event) bool {
	event.Target = self.targetId(target)
	ok := self.registry.Dispatch(event)

	if !self.closed {
		if err := self.runtime.EvaluateAsync(
			jsCall(`emit`, event.Target, event.Name, event.Detail, event.Cancelable),
		); err != nil {
			log.Debugf("[page] cannot mirror %v: %v", event.Name, err)
		}
	}

	return ok
}

func (self *Page) RequestFrame(fn scroll.FrameFunc) {
	self.loop.RequestFrame(fn)
}

func (self *Page) AfterFunc(delay time.Duration, fn func()) scroll.Timer {
	return self.loop.AfterFunc(delay, fn)
}

func (self *Page) Post(fn func()) {
	self.loop.Post(fn)
}

// Accept a notification payload from the page.  Safe to call from any goroutine;
// the notification is handled on the loop.
func (self *Page) Notify(payload string) {
	var n notification

	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		log.Warningf("[page] malformed notification: %v", err)
		return
	}

	self.loop.Post(func() {
		self.handle(&n)
	})
}

func (self *Page) handle(n *notification) {
	if self.closed {
		return
	}

	switch n.Kind {
	case `event`:
		self.handleEvent(n)

	case `intersection`:
		if observer, ok := self.observers[n.Observer]; ok {
			observer.deliver(n.Entries)
		}

	case `resize`:
		self.width = n.Width
		self.height = n.Height

	default:
		log.Warningf("[page] unknown notification %q", n.Kind)
	}
}

func (self *Page) handleEvent(n *notification) {
	target := self.element(n.Target)

	if n.Scroll != nil {
		scrolled := target

		if scrolled == nil {
			scrolled = self.document
		}

		if !scrolled.applyScroll(*n.Scroll) {
			log.Debugf("[page] ignored stale scroll on %v", scrolled.ID())
		}
	}

	var event *events.Event

	if n.Name == scroll.EventClick {
		event = events.NewCancelable(n.Name, n.Detail)
	} else {
		event = events.New(n.Name, n.Detail)
	}

	event.Target = self.targetId(target)

	if self.registry.Dispatch(event) && n.Name == scroll.EventClick {
		// the page suppressed the default action of in-page links so we could decide
		if href := event.D().String(`href`); href != `` && target != nil {
			if err := self.runtime.EvaluateAsync(jsCall(`follow`, target.ID())); err != nil {
				log.Warningf("[page] cannot follow %v: %v", href, err)
			}
		}
	}
}

func (self *Page) History() scroll.History {
	return &pageHistory{
		page: self,
	}
}

// Detach every forwarded listener and observer from the page and stop the loop.
// Must not be called from the loop goroutine.
func (self *Page) Close() error {
	done := make(chan struct{})

	self.loop.Post(func() {
		defer close(done)

		if self.closed {
			return
		}

		self.closed = true

		if err := self.runtime.EvaluateAsync(jsCall(`reset`)); err != nil {
			log.Debugf("[page] reset failed: %v", err)
		}
	})

	if self.loop.running.Load() {
		select {
		case <-done:
		case <-time.After(DefaultReplyTimeout):
			log.Warningf("[page] timed out waiting for the loop to settle")
		}
	}

	self.loop.Stop()

	if self.tab != nil && self.bindingHandle != `` {
		self.tab.RemoveWaiter(self.bindingHandle)
	}

	return nil
}

type pageHistory struct {
	page *Page
}

func (self *pageHistory) Push(state map[string]interface{}, url string) {
	self.page.runtime.EvaluateAsync(fmt.Sprintf("history.pushState(%s, '', %s)", jsonLiteral(state), jsonLiteral(url)))
}

func (self *pageHistory) Replace(state map[string]interface{}, url string) {
	self.page.runtime.EvaluateAsync(fmt.Sprintf("history.replaceState(%s, '', %s)", jsonLiteral(state), jsonLiteral(url)))
}

func (self *pageHistory) Path() string {
	var path string

	if err := self.page.runtime.EvaluateInto(`location.pathname`, &path); err == nil {
		self.page.path = path
	}

	return self.page.path
}

func jsonLiteral(value interface{}) string {
	if data, err := json.Marshal(value); err == nil {
		return string(data)
	} else {
		return `null`
	}
}
