package virtual

import (
	"fmt"
	"strings"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/mathutil"
	"github.com/ghetzel/go-stockutil/sliceutil"
)

type ElementSpec struct {
	ID         string
	Tag        string
	Classes    []string
	Attributes map[string]string
	Text       string

	// Position and size within the parent's scrollable content.
	Rect scroll.Rect

	// Minimum content size; content also grows to fit all children.
	ContentWidth  float64
	ContentHeight float64
}

// A Box is an element on a virtual Page.  Every box can scroll its own content
// once that content is larger than the box itself.
type Box struct {
	page          *Page
	parent        *Box
	id            string
	tag           string
	classes       []string
	attributes    map[string]string
	text          string
	layout        scroll.Rect
	contentWidth  float64
	contentHeight float64
	offsetX       float64
	offsetY       float64
	children      []*Box
}

func (self *Box) ID() string {
	return self.id
}

func (self *Box) Tag() string {
	return self.tag
}

func (self *Box) Text() string {
	return self.text
}

func (self *Box) Parent() *Box {
	return self.parent
}

func (self *Box) Children() []*Box {
	return self.children
}

func (self *Box) HasClass(class string) bool {
	return sliceutil.ContainsString(self.classes, class)
}

func (self *Box) Attribute(name string) (string, bool) {
	switch name {
	case `id`:
		return self.id, (self.id != ``)
	case `class`:
		return strings.Join(self.classes, ` `), (len(self.classes) > 0)
	}

	value, ok := self.attributes[name]
	return value, ok
}

func (self *Box) SetAttribute(name string, value string) {
	self.attributes[name] = value
}

// The layout rect of this box within its parent's content.
func (self *Box) Layout() scroll.Rect {
	return self.layout
}

func (self *Box) isRoot() bool {
	return self.parent == nil
}

// Return the box's rect relative to the top-left corner of the window.
func (self *Box) BoundingRect() (scroll.Rect, error) {
	if self.isRoot() {
		return scroll.Rect{
			Top:    -self.offsetY,
			Left:   -self.offsetX,
			Width:  self.ScrollSize(scroll.Horizontal),
			Height: self.ScrollSize(scroll.Vertical),
		}, nil
	}

	originLeft, originTop := self.parent.contentOrigin()

	return scroll.Rect{
		Top:    originTop + self.layout.Top,
		Left:   originLeft + self.layout.Left,
		Width:  self.layout.Width,
		Height: self.layout.Height,
	}, nil
}

// Return the window coordinates of the top-left corner of this box's content.
func (self *Box) contentOrigin() (float64, float64) {
	if self.isRoot() {
		return -self.offsetX, -self.offsetY
	}

	rect, _ := self.BoundingRect()
	return rect.Left - self.offsetX, rect.Top - self.offsetY
}

// The visible size of the box along the axis.
func (self *Box) ClientSize(direction scroll.Direction) float64 {
	if self.isRoot() {
		if direction == scroll.Horizontal {
			return self.page.width
		} else {
			return self.page.height
		}
	}

	return self.layout.Extent(direction)
}

func (self *Box) ScrollSize(direction scroll.Direction) float64 {
	var size float64

	if direction == scroll.Horizontal {
		size = self.contentWidth
	} else {
		size = self.contentHeight
	}

	size = max(size, self.ClientSize(direction))

	for _, child := range self.children {
		size = max(size, child.layout.Edge(direction)+child.layout.Extent(direction))
	}

	return size
}

func (self *Box) MaxScrollOffset(direction scroll.Direction) float64 {
	return max(0, self.ScrollSize(direction)-self.ClientSize(direction))
}

func (self *Box) IsScrollable() bool {
	return self.MaxScrollOffset(scroll.Vertical) > 0 || self.MaxScrollOffset(scroll.Horizontal) > 0
}

func (self *Box) ScrollOffset(direction scroll.Direction) float64 {
	if direction == scroll.Horizontal {
		return self.offsetX
	} else {
		return self.offsetY
	}
}

// Set the scroll offset along the axis, clamped to the scrollable range.  A change
// in offset queues a scroll event for the next frame.
func (self *Box) SetScrollOffset(direction scroll.Direction, offset float64) {
	offset = mathutil.Clamp(offset, 0, self.MaxScrollOffset(direction))

	var current *float64

	if direction == scroll.Horizontal {
		current = &self.offsetX
	} else {
		current = &self.offsetY
	}

	if *current != offset {
		*current = offset
		self.page.queueScroll(self)
	}
}

// Add a child box laid out within this box's content.
func (self *Box) Add(spec ElementSpec) (*Box, error) {
	if spec.ID != `` {
		if _, ok := self.page.byId[spec.ID]; ok {
			return nil, fmt.Errorf("duplicate element id %q", spec.ID)
		}
	}

	if spec.Tag == `` {
		spec.Tag = `div`
	}

	box := &Box{
		page:          self.page,
		parent:        self,
		id:            spec.ID,
		tag:           strings.ToLower(spec.Tag),
		classes:       append([]string(nil), spec.Classes...),
		attributes:    make(map[string]string),
		text:          spec.Text,
		layout:        spec.Rect,
		contentWidth:  spec.ContentWidth,
		contentHeight: spec.ContentHeight,
		children:      make([]*Box, 0),
	}

	for k, v := range spec.Attributes {
		box.attributes[k] = v
	}

	if box.id == `` {
		self.page.anonymous += 1
		box.id = fmt.Sprintf("_box%d", self.page.anonymous)
	}

	self.children = append(self.children, box)
	self.page.byId[box.id] = box
	self.page.order = append(self.page.order, box)

	return box, nil
}

// Like Add, but panics on error.  Intended for building fixtures.
func (self *Box) MustAdd(spec ElementSpec) *Box {
	if box, err := self.Add(spec); err == nil {
		return box
	} else {
		panic(err.Error())
	}
}

func (self *Box) String() string {
	return fmt.Sprintf("<%s#%s>", self.tag, self.id)
}
