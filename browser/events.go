package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/maputil"
	"github.com/ghetzel/go-stockutil/stringutil"
	"github.com/gobwas/glob"
)

type EventCallbackFunc func(event *Event)

// An EventWaiter receives every protocol event whose method name matches its pattern.
type EventWaiter struct {
	Pattern glob.Glob
	Events  chan *Event
	id      string
	tab     *Tab
}

func NewEventWaiter(tab *Tab, eventGlob string) (*EventWaiter, error) {
	if pattern, err := glob.Compile(eventGlob); err == nil {
		return &EventWaiter{
			Pattern: pattern,
			Events:  make(chan *Event, MaxUnreadEvents),
			id:      stringutil.UUID().String(),
			tab:     tab,
		}, nil
	} else {
		return nil, err
	}
}

func (self *EventWaiter) ID() string {
	return self.id
}

func (self *EventWaiter) Match(event *Event) bool {
	return self.Pattern.Match(event.Name)
}

func (self *EventWaiter) Wait(ctx context.Context) (*Event, error) {
	select {
	case event, ok := <-self.Events:
		if !ok {
			return nil, fmt.Errorf("tab disconnected")
		}

		log.Debugf("[tab] wait over; got %v", event)
		return event, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out waiting for event: %v", ctx.Err())
	}
}

func (self *EventWaiter) Remove() {
	if self.tab != nil {
		self.tab.RemoveWaiter(self.id)
	}
}

// An Event is a protocol notification received from a tab.
type Event struct {
	ID        int64
	Name      string
	Params    *maputil.Map
	Error     error
	Timestamp time.Time
}

func (self *Event) P() *maputil.Map {
	return self.Params
}

func (self *Event) String() string {
	if self.Error != nil {
		return self.Error.Error()
	} else {
		return self.Name
	}
}

func eventFromRpcResponse(resp *RpcMessage) *Event {
	return &Event{
		ID:        resp.ID,
		Name:      resp.Method,
		Params:    maputil.M(resp.Params),
		Timestamp: time.Now(),
		Error:     resp.Err(),
	}
}
