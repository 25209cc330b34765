package scroll

import (
	"fmt"

	"github.com/ghetzel/go-stockutil/log"
)

type IntersectionHandler func(entry IntersectionEntry)

type targetHandler struct {
	target  Element
	handler IntersectionHandler
}

type intersectionTracker struct {
	observer                IntersectionObserver
	observerReady           bool
	firstObservationPending bool
	observed                map[string]bool
	enterHandlers           []targetHandler
	leaveHandlers           []targetHandler
}

// Register a handler that runs whenever the target enters the viewport.  The target
// may be an Element, a slice of Elements, or a selector matching one or more elements.
func (self *Scroller) OnScrollIn(target interface{}, handler IntersectionHandler) error {
	return self.registerIntersection(target, handler, true)
}

// Register a handler that runs whenever the target leaves the viewport.  Targets that
// are outside of the viewport when first observed do not trigger this handler.
func (self *Scroller) OnScrollOut(target interface{}, handler IntersectionHandler) error {
	return self.registerIntersection(target, handler, false)
}

func (self *Scroller) registerIntersection(target interface{}, handler IntersectionHandler, entering bool) error {
	if self.closed {
		return ErrClosed
	} else if handler == nil {
		return fmt.Errorf("must provide an intersection handler")
	}

	targets, err := self.resolveTargets(target)

	if err != nil {
		return err
	}

	if err := self.ensureObserver(); err != nil {
		return err
	}

	for _, element := range targets {
		th := targetHandler{
			target:  element,
			handler: handler,
		}

		if entering {
			self.intersection.enterHandlers = append(self.intersection.enterHandlers, th)
		} else {
			self.intersection.leaveHandlers = append(self.intersection.leaveHandlers, th)
		}

		if !self.intersection.observed[element.ID()] {
			if err := self.intersection.observer.Observe(element); err != nil {
				return err
			}

			self.intersection.observed[element.ID()] = true
		}
	}

	return nil
}

func (self *Scroller) ensureObserver() error {
	if self.intersection.observerReady {
		return nil
	}

	config := self.options.Intersection

	if observer, err := self.platform.NewIntersectionObserver(self.intersected, IntersectionOptions{
		Root:       config.Root,
		RootMargin: config.RootMargin,
		Threshold:  config.Threshold,
	}); err == nil {
		self.intersection.observer = observer
		self.intersection.observerReady = true
		self.intersection.firstObservationPending = true
		self.intersection.observed = make(map[string]bool)

		log.Debugf("[scroll] created intersection observer (threshold=%v margin=%q)", config.Threshold, config.RootMargin)
		return nil
	} else {
		return err
	}
}

func (self *Scroller) intersected(entries []IntersectionEntry) {
	if self.closed {
		return
	}

	for _, entry := range entries {
		if entry.Target == nil {
			continue
		}

		if entry.IsIntersecting {
			for _, th := range self.intersection.handlersFor(self.intersection.enterHandlers, entry.Target) {
				th.handler(entry)
			}
		} else if !self.intersection.firstObservationPending {
			for _, th := range self.intersection.handlersFor(self.intersection.leaveHandlers, entry.Target) {
				th.handler(entry)
			}
		}
	}

	self.intersection.firstObservationPending = false
}

func (self *intersectionTracker) handlersFor(handlers []targetHandler, target Element) []targetHandler {
	matched := make([]targetHandler, 0)

	for _, th := range handlers {
		if th.target.ID() == target.ID() {
			matched = append(matched, th)
		}
	}

	return matched
}

func (self *intersectionTracker) disconnect() {
	if self.observer != nil {
		self.observer.Disconnect()
	}
}

func (self *Scroller) resolveTargets(target interface{}) ([]Element, error) {
	switch t := target.(type) {
	case nil:
		return nil, ErrNoTarget
	case Element:
		return []Element{t}, nil
	case []Element:
		if len(t) == 0 {
			return nil, ErrNoTarget
		}

		return t, nil
	case string:
		if elements, err := self.platform.QueryAll(t); err == nil {
			if len(elements) == 0 {
				return nil, fmt.Errorf("%q: %w", t, ErrNoTarget)
			}

			return elements, nil
		} else {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported target type %T", target)
	}
}
