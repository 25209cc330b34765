// Package progress reports how far through its content a scroller has been read.
package progress

import (
	"math"

	defaults "github.com/ghetzel/go-defaults"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/log"
	"github.com/ghetzel/go-stockutil/mathutil"
)

type Heading string

const (
	Still    Heading = ``
	Forward  Heading = `forward`
	Backward Heading = `backward`
)

type Progress struct {
	Percent  float64 `json:"percent"`
	Position float64 `json:"position"`
	Heading  Heading `json:"heading,omitempty"`
}

type Options struct {
	// The smallest change in Percent that is reported to OnChange.
	Step     float64        `json:"step" toml:"step" default:"0.01"`
	OnChange func(Progress) `json:"-" toml:"-"`
}

type Plugin struct {
	scroll.BasePlugin
	options  Options
	current  Progress
	reported *Progress
}

func New(options *Options) *Plugin {
	plugin := &Plugin{}

	if options != nil {
		plugin.options = *options
	}

	defaults.SetDefaults(&plugin.options)

	return plugin
}

func (self *Plugin) Progress() Progress {
	return self.current
}

func (self *Plugin) Init() error {
	self.current = self.measure(self.Scroller())

	// registered last so it sees the heading set by this batch's direction hooks
	self.Scroller().OnScroll(self.report)
	return nil
}

func (self *Plugin) OnScroll(scroller *scroll.Scroller) {
	heading := self.current.Heading
	self.current = self.measure(scroller)
	self.current.Heading = heading
}

func (self *Plugin) OnScrollForward(scroller *scroll.Scroller) {
	self.current.Heading = Forward
}

func (self *Plugin) OnScrollBackward(scroller *scroll.Scroller) {
	self.current.Heading = Backward
}

func (self *Plugin) measure(scroller *scroll.Scroller) Progress {
	position := scroller.Position()
	span := scroller.ScrollSize() - scroller.ViewportSize()

	// content that fits entirely in view has been read in full
	if span <= 0 {
		return Progress{
			Percent:  1,
			Position: position,
		}
	}

	return Progress{
		Percent:  mathutil.Clamp(position/span, 0, 1),
		Position: position,
	}
}

func (self *Plugin) report(_ *scroll.Scroller) {
	if self.reported != nil && math.Abs(self.current.Percent-self.reported.Percent) < self.options.Step {
		return
	}

	reported := self.current
	self.reported = &reported

	log.Debugf("[progress] %.0f%% (%v)", reported.Percent*100, reported.Heading)

	if self.options.OnChange != nil {
		self.options.OnChange(reported)
	}
}
