package scroll

import (
	"fmt"
	"reflect"
	"time"

	"github.com/ghetzel/go-stockutil/log"
)

type AnimationState int

const (
	Created AnimationState = iota
	Running
	Done
	Cancelled
)

func (self AnimationState) String() string {
	switch self {
	case Created:
		return `created`
	case Running:
		return `running`
	case Done:
		return `done`
	case Cancelled:
		return `cancelled`
	default:
		return fmt.Sprintf("AnimationState(%d)", int(self))
	}
}

// An Animation tweens a Scroller's position from where it was when the animation
// was created to a target position over a fixed duration, one frame at a time.
type Animation struct {
	scroller  *Scroller
	target    interface{}
	from      float64
	to        float64
	distance  float64
	duration  time.Duration
	easing    Easing
	complete  func()
	state     AnimationState
	started   bool
	timeStart time.Duration
	elapsed   time.Duration
	current   float64
}

func newAnimation(scroller *Scroller, target interface{}, options ScrollToOptions) (*Animation, error) {
	animation := &Animation{
		scroller: scroller,
		target:   target,
		duration: options.Duration,
		easing:   options.Easing,
		complete: options.Complete,
		state:    Created,
	}

	animation.from = scroller.Position()
	animation.current = animation.from

	if stop, err := animation.resolveStop(target); err == nil {
		animation.to = stop
	} else {
		return nil, err
	}

	animation.distance = animation.to - animation.from + scroller.Offset()

	return animation, nil
}

func (self *Animation) resolveStop(target interface{}) (float64, error) {
	if position, ok := numericTarget(target); ok {
		return position, nil
	}

	var element Element

	switch t := target.(type) {
	case Element:
		element = t
	case string:
		if el, err := self.scroller.platform.Query(t); err == nil {
			element = el
		} else {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("unsupported scroll target type %T", target)
	}

	if element == nil {
		return 0, ErrNoTarget
	}

	if rect, err := element.BoundingRect(); err == nil {
		return rect.Edge(self.scroller.Direction()) + self.from, nil
	} else {
		return 0, err
	}
}

func numericTarget(target interface{}) (float64, bool) {
	if target == nil {
		return 0, false
	}

	value := reflect.ValueOf(target)

	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(value.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(value.Uint()), true
	case reflect.Float32, reflect.Float64:
		return value.Float(), true
	default:
		return 0, false
	}
}

func (self *Animation) From() float64 {
	return self.from
}

// The resolved stop position, not including the scroller's offset correction.
func (self *Animation) To() float64 {
	return self.to
}

func (self *Animation) Distance() float64 {
	return self.distance
}

// The position the animation will leave the scroller at once it completes.
func (self *Animation) Destination() float64 {
	return self.from + self.distance
}

func (self *Animation) Duration() time.Duration {
	return self.duration
}

func (self *Animation) Elapsed() time.Duration {
	return self.elapsed
}

func (self *Animation) State() AnimationState {
	return self.state
}

func (self *Animation) IsActive() bool {
	return self.state == Created || self.state == Running
}

// Stop the animation where it is.  The completion callback will not run.
func (self *Animation) Cancel() {
	if self.IsActive() {
		self.state = Cancelled
		log.Debugf("[animation] cancelled at %v (%v of %v)", self.current, self.elapsed, self.duration)
	}
}

func (self *Animation) start() {
	self.state = Running

	log.Debugf(
		"[animation] %v -> %v (distance %v) over %v",
		self.from,
		self.Destination(),
		self.distance,
		self.duration,
	)

	self.scroller.platform.RequestFrame(self.tick)
}

func (self *Animation) tick(now time.Duration) {
	if self.state != Running {
		return
	}

	if !self.started {
		self.started = true
		self.timeStart = now
	}

	self.elapsed = now - self.timeStart

	if self.duration > 0 {
		self.write(self.easing(
			millis(min(self.elapsed, self.duration)),
			self.from,
			self.distance,
			millis(self.duration),
		))
	}

	if self.elapsed < self.duration {
		self.scroller.platform.RequestFrame(self.tick)
	} else {
		self.done()
	}
}

func (self *Animation) done() {
	// the final frame rarely lands exactly on the duration
	self.write(self.from + self.distance)
	self.state = Done

	log.Debugf("[animation] finished at %v after %v", self.current, self.elapsed)

	if self.complete != nil {
		self.complete()
	}
}

func (self *Animation) write(position float64) {
	self.current = position
	self.scroller.SetPosition(position)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
