package events

import (
	"fmt"
	"time"

	"github.com/ghetzel/go-stockutil/maputil"
)

// An Event is a named occurrence dispatched against a target.  Events flagged as
// Cancelable may have their default action suppressed by any listener.
type Event struct {
	Name       string                 `json:"event"`
	Target     string                 `json:"target,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	Cancelable bool                   `json:"cancelable,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	prevented  bool
	stopped    bool
}

func New(name string, detail map[string]interface{}) *Event {
	return &Event{
		Name:      name,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

func NewCancelable(name string, detail map[string]interface{}) *Event {
	event := New(name, detail)
	event.Cancelable = true
	return event
}

func (self *Event) D() *maputil.Map {
	return maputil.M(self.Detail)
}

// Suppress the default action of a cancelable event.  Has no effect on events
// that are not cancelable.
func (self *Event) PreventDefault() {
	if self.Cancelable {
		self.prevented = true
	}
}

func (self *Event) DefaultPrevented() bool {
	return self.prevented
}

// Prevent any further listeners from receiving this event.
func (self *Event) StopPropagation() {
	self.stopped = true
}

func (self *Event) PropagationStopped() bool {
	return self.stopped
}

func (self *Event) String() string {
	if self.Target != `` {
		return fmt.Sprintf("%s@%s", self.Name, self.Target)
	} else {
		return self.Name
	}
}
