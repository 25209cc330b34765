package browser

import (
	"fmt"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/mathutil"
)

type scrollState struct {
	Seq          int64   `json:"seq"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ClientWidth  float64 `json:"clientWidth"`
	ClientHeight float64 `json:"clientHeight"`
}

type elementState struct {
	ID         string            `json:"id"`
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes"`
	Scroll     *scrollState      `json:"scroll"`
}

// An Element is a reference to a DOM element on a Page.  Scroll offsets and sizes
// are cached from the page's scroll notifications, so reading them never waits on
// the browser; bounding rects are always fetched fresh.
type Element struct {
	page       *Page
	id         string
	tag        string
	attributes map[string]string
	scroll     scrollState
	writeSeq   int64
}

func newElement(page *Page, id string) *Element {
	return &Element{
		page:       page,
		id:         id,
		attributes: make(map[string]string),
	}
}

func (self *Element) ID() string {
	return self.id
}

func (self *Element) Tag() string {
	return self.tag
}

// Return the attribute as it was when the element was last queried.
func (self *Element) Attribute(name string) (string, bool) {
	value, ok := self.attributes[name]
	return value, ok
}

func (self *Element) BoundingRect() (scroll.Rect, error) {
	var rect *scroll.Rect

	if err := self.page.runtime.EvaluateInto(jsCall(`rect`, self.id), &rect); err != nil {
		return scroll.Rect{}, err
	} else if rect == nil {
		return scroll.Rect{}, fmt.Errorf("%v: %w", self.id, ErrNoSuchElement)
	}

	return *rect, nil
}

func (self *Element) ScrollOffset(direction scroll.Direction) float64 {
	if direction == scroll.Horizontal {
		return self.scroll.X
	} else {
		return self.scroll.Y
	}
}

func (self *Element) ScrollSize(direction scroll.Direction) float64 {
	if direction == scroll.Horizontal {
		return self.scroll.Width
	} else {
		return self.scroll.Height
	}
}

func (self *Element) clientSize(direction scroll.Direction) float64 {
	if direction == scroll.Horizontal {
		return self.scroll.ClientWidth
	} else {
		return self.scroll.ClientHeight
	}
}

// Set the scroll offset along the axis.  The cached offset is updated immediately
// and the write is sent to the page without waiting for it to apply.
func (self *Element) SetScrollOffset(direction scroll.Direction, offset float64) {
	upper := max(offset, 0)

	if client := self.clientSize(direction); client > 0 {
		upper = max(0, self.ScrollSize(direction)-client)
	}

	offset = mathutil.Clamp(offset, 0, upper)

	if offset == self.ScrollOffset(direction) {
		return
	}

	if direction == scroll.Horizontal {
		self.scroll.X = offset
	} else {
		self.scroll.Y = offset
	}

	self.page.writeSeq += 1
	self.writeSeq = self.page.writeSeq

	if err := self.page.runtime.EvaluateAsync(
		jsCall(`scrollTo`, self.id, self.scroll.X, self.scroll.Y, self.writeSeq),
	); err != nil {
		log.Warningf("[page] scroll %v: %v", self.id, err)
	}
}

func (self *Element) update(state elementState) {
	if state.Tag != `` {
		self.tag = state.Tag
	}

	if state.Attributes != nil {
		self.attributes = state.Attributes
	}

	if state.Scroll != nil {
		self.applyScroll(*state.Scroll)
	}
}

// Accept a scroll state reported by the page unless it predates our latest write.
func (self *Element) applyScroll(state scrollState) bool {
	if state.Seq < self.writeSeq {
		return false
	}

	self.scroll = state
	return true
}

func (self *Element) String() string {
	if self.tag == `` {
		return fmt.Sprintf("<#%s>", self.id)
	}

	return fmt.Sprintf("<%s#%s>", self.tag, self.id)
}
