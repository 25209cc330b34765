// Package anchor adds smooth-scroll navigation to in-page links.
package anchor

import (
	"fmt"
	"strings"
	"time"

	defaults "github.com/ghetzel/go-defaults"
	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/log"
)

type ClickHandler func(anchor scroll.Element, event *events.Event)

type Options struct {
	// Selects the links that navigate by scrolling.
	AnchorsSelector string `json:"anchors_selector" toml:"anchors_selector" default:".flz-scroll-anchor"`

	// Navigating back to this target replaces the history entry with the bare path.
	HomeTarget string `json:"home_target" toml:"home_target" default:"#home"`

	// Leave the page's history untouched when navigating.
	NoHistory bool          `json:"no_history" toml:"no_history"`
	Duration  time.Duration `json:"duration" toml:"duration" default:"600ms"`
	Easing    string        `json:"easing" toml:"easing"`
}

// A Plugin that turns clicks on anchors linking to "#fragment" targets into smooth
// scrolls, recording each destination in the page history and following popstate
// back to earlier destinations.
type Plugin struct {
	scroll.BasePlugin
	options       Options
	easing        scroll.Easing
	anchors       []scroll.Element
	listeners     []string
	clickHandlers []ClickHandler
}

func New(options *Options) (*Plugin, error) {
	plugin := &Plugin{
		listeners:     make([]string, 0),
		clickHandlers: make([]ClickHandler, 0),
	}

	if options != nil {
		plugin.options = *options
	}

	defaults.SetDefaults(&plugin.options)

	if name := plugin.options.Easing; name != `` {
		if easing, ok := scroll.EasingByName(name); ok {
			plugin.easing = easing
		} else {
			return nil, fmt.Errorf("unknown easing %q", name)
		}
	}

	return plugin, nil
}

func (self *Plugin) Options() Options {
	return self.options
}

// The anchors found when the plugin was registered.
func (self *Plugin) Anchors() []scroll.Element {
	return self.anchors
}

// Add a handler that runs whenever an anchor click is turned into a navigation.
func (self *Plugin) OnClick(handler ClickHandler) *Plugin {
	if handler != nil {
		self.clickHandlers = append(self.clickHandlers, handler)
	}

	return self
}

func (self *Plugin) Init() error {
	scroller := self.Scroller()
	platform := scroller.Platform()

	if anchors, err := platform.QueryAll(self.options.AnchorsSelector); err == nil {
		self.anchors = anchors
	} else {
		return err
	}

	for _, anchor := range self.anchors {
		anchor := anchor

		if err := self.listen(anchor, scroll.EventClick, func(event *events.Event) {
			self.handleClick(anchor, event)
		}); err != nil {
			return err
		}
	}

	if err := self.listen(nil, scroll.EventPopState, self.handlePopState); err != nil {
		return err
	}

	log.Debugf("[anchor] bound %d anchors matching %q", len(self.anchors), self.options.AnchorsSelector)
	return nil
}

func (self *Plugin) listen(target scroll.Element, name string, handler events.HandlerFunc) error {
	if id, err := self.Scroller().Platform().AddListener(target, name, handler); err == nil {
		self.listeners = append(self.listeners, id)
		return nil
	} else {
		return err
	}
}

// Remove every listener the plugin registered.
func (self *Plugin) Close() error {
	if scroller := self.Scroller(); scroller != nil {
		for _, id := range self.listeners {
			scroller.Platform().RemoveListener(id)
		}
	}

	self.listeners = nil
	return nil
}

// Scroll to the target (a "#fragment" selector) and record it in the history.
func (self *Plugin) Navigate(target string) error {
	return self.navigate(target, nil, !self.options.NoHistory)
}

func (self *Plugin) handleClick(anchor scroll.Element, event *events.Event) {
	href, _ := anchor.Attribute(`href`)

	if !strings.HasPrefix(href, `#`) {
		return
	}

	if err := self.navigate(href, func() {
		event.PreventDefault()
		event.StopPropagation()

		for _, handler := range self.clickHandlers {
			handler(anchor, event)
		}
	}, !self.options.NoHistory); err != nil {
		log.Warningf("[anchor] cannot navigate to %v: %v", href, err)
	}
}

func (self *Plugin) handlePopState(event *events.Event) {
	target := event.D().String(`state.target`)

	if target == `` {
		target = self.options.HomeTarget
	}

	if err := self.navigate(target, nil, false); err != nil {
		log.Warningf("[anchor] cannot restore %v: %v", target, err)
	}
}

func (self *Plugin) navigate(target string, action func(), updateHistory bool) error {
	scroller := self.Scroller()

	if scroller == nil {
		return fmt.Errorf("plugin is not registered with a scroller")
	}

	platform := scroller.Platform()
	target = self.resolveTarget(target)

	if _, err := platform.Query(target); err != nil {
		return err
	}

	if !platform.Dispatch(scroller.Container(), scroll.NewBeforeNavigateEvent(target)) {
		log.Debugf("[anchor] navigation to %v was cancelled", target)
		return nil
	}

	if action != nil {
		action()
	}

	_, err := scroller.ScrollTo(target, &scroll.ScrollToOptions{
		Duration: self.options.Duration,
		Easing:   self.easing,
		Complete: func() {
			if updateHistory {
				self.updateHistory(target)
			}

			platform.Dispatch(scroller.Container(), scroll.NewAfterNavigateEvent(target))
		},
	})

	return err
}

// Rewrite a "#x" target naming an element by its data-id to that element's own id.
func (self *Plugin) resolveTarget(target string) string {
	if !strings.HasPrefix(target, `#`) {
		return target
	}

	if candidates, err := self.Scroller().Platform().QueryAll(`[data-id]`); err == nil {
		for _, candidate := range candidates {
			if dataId, _ := candidate.Attribute(`data-id`); `#`+dataId == target {
				if id, ok := candidate.Attribute(`id`); ok && id != `` {
					return `#` + id
				}
			}
		}
	}

	return target
}

func (self *Plugin) updateHistory(target string) {
	history := self.Scroller().Platform().History()
	state := map[string]interface{}{
		`target`: target,
	}

	url := target

	if element, err := self.Scroller().Platform().Query(target); err == nil {
		if dataId, ok := element.Attribute(`data-id`); ok && dataId != `` {
			url = `#` + dataId
		}
	}

	history.Push(state, url)

	if strings.EqualFold(target, self.options.HomeTarget) {
		history.Replace(state, history.Path())
	}

	log.Debugf("[anchor] updated history to %v", url)
}
