package scroll

import (
	"strings"

	"github.com/charmbracelet/harmonica"
)

// An Easing maps elapsed time t to a position, given the start value b, the total
// change c and the duration d.  Units of t and d only need to agree.
type Easing func(t float64, b float64, c float64, d float64) float64

var DefaultEasing Easing = EaseInOutQuad

func Linear(t, b, c, d float64) float64 {
	return c*t/d + b
}

func EaseInQuad(t, b, c, d float64) float64 {
	t /= d
	return c*t*t + b
}

func EaseOutQuad(t, b, c, d float64) float64 {
	t /= d
	return -c*t*(t-2) + b
}

func EaseInOutQuad(t, b, c, d float64) float64 {
	t /= d / 2

	if t < 1 {
		return c/2*t*t + b
	}

	t -= 1
	return -c/2*(t*(t-2)-1) + b
}

func EaseInCubic(t, b, c, d float64) float64 {
	t /= d
	return c*t*t*t + b
}

func EaseOutCubic(t, b, c, d float64) float64 {
	t = t/d - 1
	return c*(t*t*t+1) + b
}

func EaseInOutCubic(t, b, c, d float64) float64 {
	t /= d / 2

	if t < 1 {
		return c/2*t*t*t + b
	}

	t -= 2
	return c/2*(t*t*t+2) + b
}

// Simulated frames per animation duration used by spring easings.
var SpringSteps = 120

// Return an easing that follows a damped spring settling on the target.  The whole
// animation duration is treated as one second of spring time, so underdamped
// springs (damping < 1) overshoot before settling.
func NewSpringEasing(frequency float64, damping float64) Easing {
	return func(t, b, c, d float64) float64 {
		if d <= 0 || t >= d {
			return b + c
		}

		spring := harmonica.NewSpring(harmonica.FPS(SpringSteps), frequency, damping)
		steps := int(t / d * float64(SpringSteps))

		var pos, vel float64

		for i := 0; i < steps; i++ {
			pos, vel = spring.Update(pos, vel, 1.0)
		}

		return b + c*pos
	}
}

var easings = map[string]Easing{
	`linear`:         Linear,
	`easeinquad`:     EaseInQuad,
	`easeoutquad`:    EaseOutQuad,
	`easeinoutquad`:  EaseInOutQuad,
	`easeincubic`:    EaseInCubic,
	`easeoutcubic`:   EaseOutCubic,
	`easeinoutcubic`: EaseInOutCubic,
	`spring`:         NewSpringEasing(8, 0.6),
}

// Retrieve a stock easing by name (e.g.: "easeInOutQuad", "ease-in-out-quad", "spring").
func EasingByName(name string) (Easing, bool) {
	key := strings.ToLower(name)
	key = strings.NewReplacer(`-`, ``, `_`, ``, ` `, ``).Replace(key)

	if key == `` {
		return DefaultEasing, true
	}

	easing, ok := easings[key]
	return easing, ok
}

func EasingNames() []string {
	return []string{
		`linear`,
		`easeInQuad`,
		`easeOutQuad`,
		`easeInOutQuad`,
		`easeInCubic`,
		`easeOutCubic`,
		`easeInOutCubic`,
		`spring`,
	}
}
