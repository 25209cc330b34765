package scroll

import (
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
)

type Direction string

const (
	Vertical   Direction = `vertical`
	Horizontal Direction = `horizontal`
)

func (self Direction) IsValid() bool {
	switch self {
	case Vertical, Horizontal:
		return true
	default:
		return false
	}
}

// A Rect describes an element's box relative to the visible viewport.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (self Rect) Bottom() float64 {
	return self.Top + self.Height
}

func (self Rect) Right() float64 {
	return self.Left + self.Width
}

// Return the leading edge of the rect along the given axis.
func (self Rect) Edge(direction Direction) float64 {
	if direction == Horizontal {
		return self.Left
	} else {
		return self.Top
	}
}

// Return the size of the rect along the given axis.
func (self Rect) Extent(direction Direction) float64 {
	if direction == Horizontal {
		return self.Width
	} else {
		return self.Height
	}
}

func (self Rect) Area() float64 {
	if self.Width <= 0 || self.Height <= 0 {
		return 0
	}

	return self.Width * self.Height
}

// Return the overlapping region of two rects, or a zero-sized rect if they do not overlap.
func (self Rect) Intersect(other Rect) Rect {
	top := max(self.Top, other.Top)
	left := max(self.Left, other.Left)
	bottom := min(self.Bottom(), other.Bottom())
	right := min(self.Right(), other.Right())

	if bottom < top || right < left {
		return Rect{}
	}

	return Rect{
		Top:    top,
		Left:   left,
		Width:  right - left,
		Height: bottom - top,
	}
}

type Element interface {
	ID() string
	Attribute(name string) (string, bool)
	BoundingRect() (Rect, error)
}

// A Container is an element whose content can be scrolled along either axis.
type Container interface {
	Element
	ScrollOffset(direction Direction) float64
	SetScrollOffset(direction Direction, offset float64)
	ScrollSize(direction Direction) float64
}

type Timer interface {
	Stop() bool
}

type FrameFunc func(now time.Duration)

type IntersectionOptions struct {
	Root       Element
	RootMargin string
	Threshold  []float64
}

type IntersectionEntry struct {
	Target           Element
	IsIntersecting   bool
	Ratio            float64
	BoundingRect     Rect
	IntersectionRect Rect
	RootRect         Rect
	Time             time.Duration
}

type IntersectionObserver interface {
	Observe(target Element) error
	Unobserve(target Element)
	Disconnect()
}

type History interface {
	Push(state map[string]interface{}, url string)
	Replace(state map[string]interface{}, url string)
	Path() string
}

// A Platform supplies everything the scroll engine needs from its host surface.
// All callbacks a Platform invokes (listeners, frames, timers, intersection batches
// and posted tasks) must be run serially on a single goroutine.
type Platform interface {
	// The container representing the whole scrollable document.
	Document() Container

	// The size of the visible window.
	WindowSize() (width float64, height float64)

	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)

	// Register a listener for events matching eventGlob on target.  A nil target
	// refers to the window.
	AddListener(target Element, eventGlob string, handler events.HandlerFunc) (string, error)
	RemoveListener(id string)

	// Dispatch an event on target (nil for the window), returning false if a
	// listener prevented the default action.
	Dispatch(target Element, event *events.Event) bool

	// Schedule fn to run once before the next frame is drawn.
	RequestFrame(fn FrameFunc)

	AfterFunc(delay time.Duration, fn func()) Timer
	NewIntersectionObserver(callback func(entries []IntersectionEntry), options IntersectionOptions) (IntersectionObserver, error)
	History() History

	// Run fn on the platform's callback goroutine.
	Post(fn func())
}
