package virtual

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ghetzel/go-scrollfriend/scroll"
)

type marginValue struct {
	amount  float64
	percent bool
}

func (self marginValue) resolve(basis float64) float64 {
	if self.percent {
		return basis * self.amount / 100
	} else {
		return self.amount
	}
}

// Parse a CSS-style margin shorthand ("10px", "10px 20%", ...) into top, right,
// bottom and left values.
func parseRootMargin(margin string) ([4]marginValue, error) {
	var out [4]marginValue
	values := make([]marginValue, 0, 4)

	for _, part := range strings.Fields(margin) {
		var value marginValue
		var number string

		switch {
		case strings.HasSuffix(part, `px`):
			number = strings.TrimSuffix(part, `px`)
		case strings.HasSuffix(part, `%`):
			number = strings.TrimSuffix(part, `%`)
			value.percent = true
		case part == `0`:
			number = part
		default:
			return out, fmt.Errorf("invalid root margin %q: values must be in px or %%", margin)
		}

		if v, err := strconv.ParseFloat(number, 64); err == nil {
			value.amount = v
		} else {
			return out, fmt.Errorf("invalid root margin %q: %v", margin, err)
		}

		values = append(values, value)
	}

	switch len(values) {
	case 0:
		return out, nil
	case 1:
		return [4]marginValue{values[0], values[0], values[0], values[0]}, nil
	case 2:
		return [4]marginValue{values[0], values[1], values[0], values[1]}, nil
	case 3:
		return [4]marginValue{values[0], values[1], values[2], values[1]}, nil
	case 4:
		return [4]marginValue{values[0], values[1], values[2], values[3]}, nil
	default:
		return out, fmt.Errorf("invalid root margin %q: too many values", margin)
	}
}

type observation struct {
	target       scroll.Element
	reported     bool
	intersecting bool
	index        int
}

type observer struct {
	page         *Page
	callback     func([]scroll.IntersectionEntry)
	root         scroll.Element
	margin       [4]marginValue
	thresholds   []float64
	observations []*observation
	disconnected bool
}

func (self *Page) NewIntersectionObserver(callback func([]scroll.IntersectionEntry), options scroll.IntersectionOptions) (scroll.IntersectionObserver, error) {
	if callback == nil {
		return nil, fmt.Errorf("must provide an intersection callback")
	}

	obs := &observer{
		page:       self,
		callback:   callback,
		root:       options.Root,
		thresholds: append([]float64(nil), options.Threshold...),
	}

	if len(obs.thresholds) == 0 {
		obs.thresholds = []float64{0}
	}

	for _, t := range obs.thresholds {
		if t < 0 || t > 1 {
			return nil, fmt.Errorf("threshold %v is outside of the range [0, 1]", t)
		}
	}

	sort.Float64s(obs.thresholds)

	if margin, err := parseRootMargin(options.RootMargin); err == nil {
		obs.margin = margin
	} else {
		return nil, err
	}

	self.observers = append(self.observers, obs)
	return obs, nil
}

// The number of connected intersection observers on the page.
func (self *Page) ObserverCount() int {
	return len(self.observers)
}

func (self *observer) Observe(target scroll.Element) error {
	if self.disconnected {
		return fmt.Errorf("observer is disconnected")
	} else if target == nil {
		return fmt.Errorf("cannot observe a nil target")
	}

	for _, o := range self.observations {
		if o.target.ID() == target.ID() {
			return nil
		}
	}

	self.observations = append(self.observations, &observation{
		target: target,
	})

	return nil
}

func (self *observer) Unobserve(target scroll.Element) {
	for i, o := range self.observations {
		if o.target.ID() == target.ID() {
			self.observations = append(self.observations[:i], self.observations[i+1:]...)
			return
		}
	}
}

func (self *observer) Disconnect() {
	self.disconnected = true
	self.observations = nil

	for i, o := range self.page.observers {
		if o == self {
			self.page.observers = append(self.page.observers[:i], self.page.observers[i+1:]...)
			break
		}
	}
}

func (self *observer) rootRect() scroll.Rect {
	rect := scroll.Rect{
		Width:  self.page.width,
		Height: self.page.height,
	}

	// the document root is clipped to the window like an implicit root
	if self.root != nil && self.root.ID() != DocumentID {
		if r, err := self.root.BoundingRect(); err == nil {
			rect = r
		}
	}

	top := self.margin[0].resolve(rect.Height)
	right := self.margin[1].resolve(rect.Width)
	bottom := self.margin[2].resolve(rect.Height)
	left := self.margin[3].resolve(rect.Width)

	return scroll.Rect{
		Top:    rect.Top - top,
		Left:   rect.Left - left,
		Width:  rect.Width + left + right,
		Height: rect.Height + top + bottom,
	}
}

// The index of the highest threshold reached by ratio, or -1 if none are reached.
func (self *observer) thresholdIndex(ratio float64) int {
	index := -1

	for i, t := range self.thresholds {
		if ratio >= t {
			index = i
		}
	}

	return index
}

func (self *observer) update(now time.Duration) {
	if self.disconnected || len(self.observations) == 0 {
		return
	}

	rootRect := self.rootRect()
	entries := make([]scroll.IntersectionEntry, 0)

	for _, o := range self.observations {
		bounds, err := o.target.BoundingRect()

		if err != nil {
			continue
		}

		overlap := bounds.Intersect(rootRect)
		overlaps := overlap.Width > 0 && overlap.Height > 0
		var ratio float64

		if area := bounds.Area(); area > 0 {
			ratio = overlap.Area() / area
		} else if bounds.Top >= rootRect.Top && bounds.Top <= rootRect.Bottom() && bounds.Left >= rootRect.Left && bounds.Left <= rootRect.Right() {
			ratio = 1
			overlaps = true
		}

		index := self.thresholdIndex(ratio)
		intersecting := overlaps && index >= 0

		// a zero threshold counts any overlap as intersecting
		if self.thresholds[0] == 0 && !overlaps {
			intersecting = false
			index = -1
		}

		if !o.reported || index != o.index || intersecting != o.intersecting {
			o.reported = true
			o.index = index
			o.intersecting = intersecting

			entries = append(entries, scroll.IntersectionEntry{
				Target:           o.target,
				IsIntersecting:   intersecting,
				Ratio:            ratio,
				BoundingRect:     bounds,
				IntersectionRect: overlap,
				RootRect:         rootRect,
				Time:             now,
			})
		}
	}

	if len(entries) > 0 {
		self.callback(entries)
	}
}
