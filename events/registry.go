package events

import (
	"fmt"
	"sync"

	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/stringutil"
	"github.com/gobwas/glob"
)

// Any target; listeners registered against it see events dispatched to every target.
const AnyTarget = `*`

type HandlerFunc func(event *Event)

type listener struct {
	id      string
	target  string
	name    string
	pattern glob.Glob
	handler HandlerFunc
}

func (self *listener) Match(event *Event) bool {
	if self.target != AnyTarget && self.target != event.Target {
		return false
	}

	return self.pattern.Match(event.Name)
}

// A Registry routes dispatched events to listeners whose target matches and whose
// glob pattern matches the event name.
type Registry struct {
	listeners []*listener
	lock      sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		listeners: make([]*listener, 0),
	}
}

// Register a handler for events on the given target whose name matches eventGlob.
// Returns an identifier that can be passed to Remove.
func (self *Registry) Add(target string, eventGlob string, handler HandlerFunc) (string, error) {
	if handler == nil {
		return ``, fmt.Errorf("must provide a handler for %q", eventGlob)
	}

	if pattern, err := glob.Compile(eventGlob); err == nil {
		l := &listener{
			id:      stringutil.UUID().String(),
			target:  target,
			name:    eventGlob,
			pattern: pattern,
			handler: handler,
		}

		self.lock.Lock()
		self.listeners = append(self.listeners, l)
		self.lock.Unlock()

		log.Debugf("[events] registered %v for %v on %q", l.id, eventGlob, target)
		return l.id, nil
	} else {
		return ``, err
	}
}

// Remove a listener by its identifier.  Returns whether a listener was removed.
func (self *Registry) Remove(id string) bool {
	self.lock.Lock()
	defer self.lock.Unlock()

	for i, l := range self.listeners {
		if l.id == id {
			self.listeners = append(self.listeners[:i], self.listeners[i+1:]...)
			return true
		}
	}

	return false
}

func (self *Registry) Len() int {
	self.lock.Lock()
	defer self.lock.Unlock()

	return len(self.listeners)
}

// Count the listeners that would receive an event with the given name on target.
func (self *Registry) Listening(target string, name string) int {
	return len(self.matching(&Event{Name: name, Target: target}))
}

// Deliver an event to every matching listener, in registration order.  Listeners
// added or removed while dispatching do not affect the current delivery. Returns
// false if the event was cancelable and a listener prevented its default action.
func (self *Registry) Dispatch(event *Event) bool {
	for _, l := range self.matching(event) {
		if event.PropagationStopped() {
			break
		}

		l.handler(event)
	}

	return !event.DefaultPrevented()
}

func (self *Registry) matching(event *Event) []*listener {
	self.lock.Lock()
	defer self.lock.Unlock()

	matched := make([]*listener, 0)

	for _, l := range self.listeners {
		if l.Match(event) {
			matched = append(matched, l)
		}
	}

	return matched
}
