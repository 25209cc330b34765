package scroll

import (
	"reflect"

	"github.com/ghetzel/go-scrollfriend/events"
)

// A Plugin is a reusable behavior attached to a single Scroller.  Plugins may also
// implement any of ScrollObserver, ForwardObserver, BackwardObserver and Initializer.
type Plugin interface {
	Scroller() *Scroller
	SetScroller(scroller *Scroller)
}

type ScrollObserver interface {
	OnScroll(scroller *Scroller)
}

type ForwardObserver interface {
	OnScrollForward(scroller *Scroller)
}

type BackwardObserver interface {
	OnScrollBackward(scroller *Scroller)
}

// Implemented by plugins that need to set themselves up once they are bound to a Scroller.
type Initializer interface {
	Init() error
}

// BasePlugin can be embedded to satisfy the binding half of the Plugin interface.
type BasePlugin struct {
	scroller *Scroller
}

func (self *BasePlugin) Scroller() *Scroller {
	return self.scroller
}

// Bind the plugin to a scroller.  Only the first call has any effect.
func (self *BasePlugin) SetScroller(scroller *Scroller) {
	if self.scroller == nil {
		self.scroller = scroller
	}
}

type unbinder interface {
	unbind()
}

func (self *BasePlugin) unbind() {
	self.scroller = nil
}

func isNilPlugin(plugin Plugin) bool {
	if plugin == nil {
		return true
	}

	value := reflect.ValueOf(plugin)

	switch value.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return value.IsNil()
	default:
		return false
	}
}

// Build the cancelable event dispatched on a scroll container before navigating to target.
func NewBeforeNavigateEvent(target string) *events.Event {
	return events.NewCancelable(EventBeforeNavigate, map[string]interface{}{
		`target`: target,
	})
}

// Build the event dispatched on a scroll container once navigation to target has completed.
func NewAfterNavigateEvent(target string) *events.Event {
	return events.New(EventAfterNavigate, map[string]interface{}{
		`target`: target,
	})
}
