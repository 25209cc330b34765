package browser

import (
	"fmt"
	"time"

	"github.com/ghetzel/go-scrollfriend/scroll"
)

// Bridges a page IntersectionObserver.  Batches arrive as notifications and are
// delivered on the loop.
type pageObserver struct {
	id           string
	page         *Page
	callback     func([]scroll.IntersectionEntry)
	disconnected bool
}

func (self *Page) NewIntersectionObserver(callback func([]scroll.IntersectionEntry), options scroll.IntersectionOptions) (scroll.IntersectionObserver, error) {
	if callback == nil {
		return nil, fmt.Errorf("must provide an intersection callback")
	} else if self.closed {
		return nil, ErrPageClosed
	}

	thresholds := options.Threshold

	if len(thresholds) == 0 {
		thresholds = []float64{0}
	}

	for _, t := range thresholds {
		if t < 0 || t > 1 {
			return nil, fmt.Errorf("threshold %v is outside of the range [0, 1]", t)
		}
	}

	var root interface{}

	if options.Root != nil && options.Root.ID() != DocumentID {
		root = options.Root.ID()
	}

	self.observerSeq += 1

	observer := &pageObserver{
		id:       fmt.Sprintf("io%d", self.observerSeq),
		page:     self,
		callback: callback,
	}

	if err := self.runtime.EvaluateAsync(
		jsCall(`observer`, observer.id, root, options.RootMargin, thresholds),
	); err != nil {
		return nil, err
	}

	self.observers[observer.id] = observer
	return observer, nil
}

func (self *pageObserver) Observe(target scroll.Element) error {
	if self.disconnected {
		return fmt.Errorf("observer is disconnected")
	} else if target == nil {
		return fmt.Errorf("cannot observe a nil target")
	}

	return self.page.runtime.EvaluateAsync(jsCall(`observe`, self.id, target.ID()))
}

func (self *pageObserver) Unobserve(target scroll.Element) {
	if self.disconnected || target == nil {
		return
	}

	self.page.runtime.EvaluateAsync(jsCall(`unobserve`, self.id, target.ID()))
}

func (self *pageObserver) Disconnect() {
	if self.disconnected {
		return
	}

	self.disconnected = true
	delete(self.page.observers, self.id)
	self.page.runtime.EvaluateAsync(jsCall(`disconnect`, self.id))
}

func (self *pageObserver) deliver(states []entryState) {
	if self.disconnected || len(states) == 0 {
		return
	}

	entries := make([]scroll.IntersectionEntry, 0, len(states))

	for _, state := range states {
		entry := scroll.IntersectionEntry{
			Target:           self.page.element(state.Target),
			IsIntersecting:   state.IsIntersecting,
			Ratio:            state.Ratio,
			BoundingRect:     state.Bounds,
			IntersectionRect: state.Intersection,
			Time:             time.Duration(state.Time * float64(time.Millisecond)),
		}

		if state.Root != nil {
			entry.RootRect = *state.Root
		} else {
			width, height := self.page.WindowSize()

			entry.RootRect = scroll.Rect{
				Width:  width,
				Height: height,
			}
		}

		entries = append(entries, entry)
	}

	self.callback(entries)
}
