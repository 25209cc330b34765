package scroll

import (
	"fmt"
	"time"

	defaults "github.com/ghetzel/go-defaults"
)

var DefaultThreshold = []float64{0.1}

type IntersectionConfig struct {
	Threshold  []float64 `json:"threshold,omitempty" toml:"threshold"`
	RootMargin string    `json:"root_margin,omitempty" toml:"root_margin"`
	Root       Element   `json:"-" toml:"-"`
}

type Options struct {
	Direction    Direction          `json:"direction" toml:"direction" default:"vertical"`
	Offset       float64            `json:"offset" toml:"offset"`
	Intersection IntersectionConfig `json:"intersection" toml:"intersection"`
}

// Return a copy of the given options (or empty options) with all defaults applied.
func prepareOptions(options *Options) (Options, error) {
	var prepared Options

	if options != nil {
		prepared = *options
	}

	defaults.SetDefaults(&prepared)

	if !prepared.Direction.IsValid() {
		return prepared, fmt.Errorf("invalid scroll direction %q", prepared.Direction)
	}

	if len(prepared.Intersection.Threshold) == 0 {
		prepared.Intersection.Threshold = append([]float64(nil), DefaultThreshold...)
	}

	return prepared, nil
}

type ScrollToOptions struct {
	Duration time.Duration `json:"duration" default:"600ms"`
	Easing   Easing        `json:"-"`
	Complete func()        `json:"-"`
}

func prepareScrollToOptions(options *ScrollToOptions) ScrollToOptions {
	var prepared ScrollToOptions

	if options != nil {
		prepared = *options
	}

	defaults.SetDefaults(&prepared)

	if prepared.Easing == nil {
		prepared.Easing = DefaultEasing
	}

	return prepared
}
