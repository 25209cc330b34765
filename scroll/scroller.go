package scroll

import (
	"fmt"
	"io"
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-stockutil/log"
)

const (
	EventScroll           = `scroll`
	EventClick            = `click`
	EventPopState         = `popstate`
	EventBeforeNavigate   = `Scroll.beforeNavigate`
	EventAfterNavigate    = `Scroll.afterNavigate`
	EventNavigatePatterns = `Scroll.*Navigate`
)

type Handler func(scroller *Scroller)

// A Scroller turns the raw scroll signal of one container into throttled scroll,
// direction, gesture and viewport callbacks, and drives smooth-scroll animations
// on that container.
//
// A Scroller is not safe for concurrent use; all calls must be made from the
// Platform's callback goroutine (see Platform.Post).
type Scroller struct {
	platform         Platform
	container        Container
	document         bool
	options          Options
	previousPosition float64
	batchPending     bool
	listeners        []string
	scrollListening  bool
	handlers         []Handler
	plugins          []Plugin
	closed           bool
	gesture          gestureTracker
	intersection     intersectionTracker
	animation        *Animation
}

// Create a new Scroller tracking the given container.  The container may be nil (the
// whole document), a Container, or a selector string.
func New(platform Platform, container interface{}, options *Options) (*Scroller, error) {
	if platform == nil {
		return nil, fmt.Errorf("must provide a platform")
	}

	scroller := &Scroller{
		platform: platform,
		handlers: make([]Handler, 0),
		plugins:  make([]Plugin, 0),
	}

	if c, err := resolveContainer(platform, container); err == nil {
		scroller.container = c
		scroller.document = (c.ID() == platform.Document().ID())
	} else {
		return nil, err
	}

	if prepared, err := prepareOptions(options); err == nil {
		scroller.options = prepared
	} else {
		return nil, err
	}

	if scroller.options.Intersection.Root == nil && !scroller.document {
		scroller.options.Intersection.Root = scroller.container
	}

	scroller.previousPosition = scroller.Position()

	log.Debugf(
		"[scroll] tracking %v (%v) from position %v",
		scroller.container.ID(),
		scroller.options.Direction,
		scroller.previousPosition,
	)

	return scroller, nil
}

func resolveContainer(platform Platform, container interface{}) (Container, error) {
	switch c := container.(type) {
	case nil:
		return platform.Document(), nil
	case Container:
		return c, nil
	case string:
		if c == `` {
			return platform.Document(), nil
		}

		if element, err := platform.Query(c); err == nil {
			if scrollable, ok := element.(Container); ok {
				return scrollable, nil
			} else {
				return nil, fmt.Errorf("%q: %w", c, ErrNotScrollable)
			}
		} else {
			return nil, err
		}
	case Element:
		return nil, fmt.Errorf("%v: %w", c.ID(), ErrNotScrollable)
	default:
		return nil, fmt.Errorf("unsupported container type %T", container)
	}
}

func (self *Scroller) Platform() Platform {
	return self.platform
}

func (self *Scroller) Container() Container {
	return self.container
}

// Whether this Scroller tracks the whole document rather than a nested container.
func (self *Scroller) IsDocument() bool {
	return self.document
}

func (self *Scroller) Options() Options {
	return self.options
}

func (self *Scroller) Direction() Direction {
	return self.options.Direction
}

// The offset correction added to the distance of every animation.
func (self *Scroller) Offset() float64 {
	return self.options.Offset
}

func (self *Scroller) SetOffset(offset float64) *Scroller {
	self.options.Offset = offset
	return self
}

func (self *Scroller) Position() float64 {
	return self.container.ScrollOffset(self.options.Direction)
}

// Jump directly to the given position without animating.
func (self *Scroller) SetPosition(position float64) *Scroller {
	self.container.SetScrollOffset(self.options.Direction, position)
	return self
}

// The position committed at the end of the most recent handler batch.
func (self *Scroller) PreviousPosition() float64 {
	return self.previousPosition
}

func (self *Scroller) ScrollSize() float64 {
	return self.container.ScrollSize(self.options.Direction)
}

func (self *Scroller) ViewportSize() float64 {
	if self.document {
		width, height := self.platform.WindowSize()

		if self.options.Direction == Horizontal {
			return width
		} else {
			return height
		}
	}

	if rect, err := self.container.BoundingRect(); err == nil {
		return rect.Extent(self.options.Direction)
	} else {
		log.Warningf("[scroll] cannot measure viewport of %v: %v", self.container.ID(), err)
		return 0
	}
}

func (self *Scroller) Plugins() []Plugin {
	return self.plugins
}

// Register a handler that runs at most once per frame while the container scrolls.
func (self *Scroller) OnScroll(handler Handler) *Scroller {
	if self.closed || handler == nil {
		return self
	}

	self.attachScrollListener()
	self.handlers = append(self.handlers, handler)
	return self
}

// Register a handler that runs when a batch observes the position moving forward
// (increasing) since the previous batch.
func (self *Scroller) OnScrollForward(handler Handler) *Scroller {
	if handler == nil {
		return self
	}

	return self.OnScroll(func(scroller *Scroller) {
		if scroller.Position() > scroller.previousPosition {
			handler(scroller)
		}
	})
}

// Register a handler that runs when a batch observes the position moving backward
// (decreasing) since the previous batch.
func (self *Scroller) OnScrollBackward(handler Handler) *Scroller {
	if handler == nil {
		return self
	}

	return self.OnScroll(func(scroller *Scroller) {
		if scroller.Position() < scroller.previousPosition {
			handler(scroller)
		}
	})
}

func (self *Scroller) attachScrollListener() {
	if self.scrollListening {
		return
	}

	self.scrollListening = true
	self.listen(EventScroll, func(_ *events.Event) {
		self.signal()
	})
}

func (self *Scroller) listen(name string, handler events.HandlerFunc) {
	if id, err := self.platform.AddListener(self.container, name, handler); err == nil {
		self.listeners = append(self.listeners, id)
	} else {
		log.Warningf("[scroll] failed to listen for %v on %v: %v", name, self.container.ID(), err)
	}
}

// Handle one raw scroll signal; handlers run on the next frame regardless of how
// many signals arrive before it.
func (self *Scroller) signal() {
	if self.batchPending || self.closed {
		return
	}

	self.batchPending = true
	self.platform.RequestFrame(self.flush)
}

func (self *Scroller) flush(_ time.Duration) {
	if self.closed {
		self.batchPending = false
		return
	}

	batch := make([]Handler, len(self.handlers))
	copy(batch, self.handlers)

	for _, handler := range batch {
		handler(self)
	}

	// committed only after every handler has seen the old value
	self.previousPosition = self.Position()
	self.batchPending = false
}

// Register a plugin, giving it a reference to this Scroller and binding whichever
// of the optional scroll hooks it implements.
func (self *Scroller) Plugin(plugin Plugin) error {
	if self.closed {
		return ErrClosed
	}

	if isNilPlugin(plugin) {
		return &ContractViolation{
			Reason: `plugin is nil`,
		}
	}

	if bound := plugin.Scroller(); bound == self {
		return &ContractViolation{
			Plugin: plugin,
			Reason: `already registered with this scroller`,
		}
	} else if bound != nil {
		return &ContractViolation{
			Plugin: plugin,
			Reason: `already registered with another scroller`,
		}
	}

	plugin.SetScroller(self)

	if plugin.Scroller() != self {
		return &ContractViolation{
			Plugin: plugin,
			Reason: `plugin did not retain its scroller`,
		}
	}

	handlerCount := len(self.handlers)
	self.plugins = append(self.plugins, plugin)

	if observer, ok := plugin.(ScrollObserver); ok {
		self.OnScroll(observer.OnScroll)
	}

	if observer, ok := plugin.(ForwardObserver); ok {
		self.OnScrollForward(observer.OnScrollForward)
	}

	if observer, ok := plugin.(BackwardObserver); ok {
		self.OnScrollBackward(observer.OnScrollBackward)
	}

	if initializer, ok := plugin.(Initializer); ok {
		if err := initializer.Init(); err != nil {
			// undo the registration so the plugin sees nothing and may be retried
			self.handlers = self.handlers[:handlerCount]
			self.plugins = self.plugins[:len(self.plugins)-1]

			if binding, ok := plugin.(unbinder); ok {
				binding.unbind()
			}

			return fmt.Errorf("plugin %T: %w", plugin, err)
		}
	}

	log.Debugf("[scroll] registered plugin %T", plugin)
	return nil
}

// Smoothly scroll to the target, which may be a number (an absolute position), an
// Element, or a selector string.  Any animation already running on this Scroller is
// cancelled.  The returned animation runs on subsequent frames.
func (self *Scroller) ScrollTo(target interface{}, options *ScrollToOptions) (*Animation, error) {
	if self.closed {
		return nil, ErrClosed
	}

	if animation, err := newAnimation(self, target, prepareScrollToOptions(options)); err == nil {
		self.StopAnimation()
		self.animation = animation
		animation.start()

		return animation, nil
	} else {
		return nil, err
	}
}

// The most recently started animation, which may have already finished.
func (self *Scroller) Animation() *Animation {
	return self.animation
}

func (self *Scroller) IsAnimating() bool {
	return self.animation != nil && self.animation.IsActive()
}

// Cancel the running animation, if any.  Its completion callback will not run.
func (self *Scroller) StopAnimation() {
	if self.animation != nil {
		self.animation.Cancel()
	}
}

// Detach every listener, close plugins that implement io.Closer, stop gesture
// tracking without firing end handlers, disconnect the viewport observer and cancel
// any running animation.
func (self *Scroller) Close() error {
	if self.closed {
		return nil
	}

	self.closed = true

	for _, id := range self.listeners {
		self.platform.RemoveListener(id)
	}

	self.listeners = nil

	for _, plugin := range self.plugins {
		if closer, ok := plugin.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warningf("[scroll] plugin %T did not close cleanly: %v", plugin, err)
			}
		}
	}

	self.gesture.stop()
	self.intersection.disconnect()
	self.StopAnimation()

	log.Debugf("[scroll] closed scroller on %v", self.container.ID())
	return nil
}

func (self *Scroller) IsClosed() bool {
	return self.closed
}
