package dom

import (
	"github.com/ghetzel/go-scrollfriend/scroll"
)

// Dimensions is the wire form of an element's bounding box, relative to the viewport.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func DimensionsFromRect(rect scroll.Rect) Dimensions {
	return Dimensions{
		Width:  rect.Width,
		Height: rect.Height,
		Top:    rect.Top,
		Left:   rect.Left,
		Right:  rect.Right(),
		Bottom: rect.Bottom(),
	}
}

func (self Dimensions) Rect() scroll.Rect {
	return scroll.Rect{
		Top:    self.Top,
		Left:   self.Left,
		Width:  self.Width,
		Height: self.Height,
	}
}

// Element describes a page element as reported by a remote page.
type Element struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Text       string            `json:"text,omitempty"`
	Position   Dimensions        `json:"position"`
}
