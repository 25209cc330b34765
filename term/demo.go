// Package term renders a virtual page in a terminal and scrolls it with the keyboard
// and mouse wheel.
package term

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	defaults "github.com/ghetzel/go-defaults"
	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-scrollfriend/plugins/anchor"
	"github.com/ghetzel/go-scrollfriend/plugins/progress"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-scrollfriend/virtual"
	"github.com/ghetzel/go-stockutil/log"
)

// The height of one terminal row in page pixels.
var RowHeight = 20.0

// The width of one terminal column in page pixels.
var CellWidth = 10.0

var FrameInterval = virtual.FrameInterval

var palette = []tcell.Color{
	tcell.ColorNavy,
	tcell.ColorDarkGreen,
	tcell.ColorMaroon,
	tcell.ColorPurple,
	tcell.ColorTeal,
	tcell.ColorOlive,
}

type Options struct {
	Sections    int `json:"sections" toml:"sections" default:"6"`
	SectionRows int `json:"section_rows" toml:"section_rows" default:"12"`
}

// A Demo is a page of coloured sections drawn on a terminal screen.  Arrow keys,
// page keys and the mouse wheel scroll it; digits jump to a section through the
// anchor plugin; g and G animate to the top and bottom.
type Demo struct {
	screen   tcell.Screen
	options  Options
	page     *virtual.Page
	scroller *scroll.Scroller
	anchors  *anchor.Plugin
	progress *progress.Plugin
	links    []*virtual.Box
	visible  map[string]bool
	message  string
}

func NewDemo(screen tcell.Screen, options *Options) (*Demo, error) {
	demo := &Demo{
		screen:  screen,
		links:   make([]*virtual.Box, 0),
		visible: make(map[string]bool),
	}

	if options != nil {
		demo.options = *options
	}

	defaults.SetDefaults(&demo.options)

	if demo.options.Sections < 1 || demo.options.Sections > 9 {
		return nil, fmt.Errorf("sections must be between 1 and 9")
	}

	width, height := screen.Size()
	demo.page = virtual.NewPage(viewport(width, height))

	if err := demo.build(); err != nil {
		return nil, err
	}

	if scroller, err := scroll.New(demo.page, nil, nil); err == nil {
		demo.scroller = scroller
	} else {
		return nil, err
	}

	if plugin, err := anchor.New(nil); err == nil {
		demo.anchors = plugin
	} else {
		return nil, err
	}

	demo.progress = progress.New(nil)

	for _, plugin := range []scroll.Plugin{demo.anchors, demo.progress} {
		if err := demo.scroller.Plugin(plugin); err != nil {
			return nil, err
		}
	}

	demo.anchors.OnClick(func(link scroll.Element, _ *events.Event) {
		href, _ := link.Attribute(`href`)
		demo.message = `navigating to ` + href
	})

	demo.page.AddListener(demo.page.Document(), scroll.EventAfterNavigate, func(event *events.Event) {
		demo.message = `arrived at ` + event.D().String(`target`)
	})

	demo.scroller.OnScrollStart(func(s *scroll.Scroller) {
		log.Debugf("[term] scrolling from %v", s.Position())
	})

	demo.scroller.OnScrollEnd(func(s *scroll.Scroller) {
		log.Debugf("[term] settled at %v", s.Position())
	})

	if err := demo.scroller.OnScrollIn(`.section`, func(entry scroll.IntersectionEntry) {
		demo.visible[entry.Target.ID()] = true
	}); err != nil {
		return nil, err
	}

	if err := demo.scroller.OnScrollOut(`.section`, func(entry scroll.IntersectionEntry) {
		delete(demo.visible, entry.Target.ID())
	}); err != nil {
		return nil, err
	}

	return demo, nil
}

func viewport(width int, height int) (float64, float64) {
	return float64(width) * CellWidth, float64(max(height-1, 1)) * RowHeight
}

func sectionID(index int) string {
	if index == 0 {
		return `home`
	} else {
		return fmt.Sprintf("s%d", index+1)
	}
}

func (self *Demo) sectionHeight() float64 {
	return float64(self.options.SectionRows) * RowHeight
}

func (self *Demo) build() error {
	width, _ := self.page.WindowSize()

	for i := 0; i < self.options.Sections; i++ {
		if _, err := self.page.Add(virtual.ElementSpec{
			ID:      sectionID(i),
			Tag:     `section`,
			Classes: []string{`section`},
			Text:    fmt.Sprintf("Section %d", i+1),
			Attributes: map[string]string{
				`data-id`: fmt.Sprintf("section-%d", i+1),
			},
			Rect: scroll.Rect{
				Top:    float64(i) * self.sectionHeight(),
				Width:  width,
				Height: self.sectionHeight(),
			},
		}); err != nil {
			return err
		}
	}

	home, _ := self.page.Get(sectionID(0))

	nav, err := home.Add(virtual.ElementSpec{
		ID:  `nav`,
		Tag: `nav`,
	})

	if err != nil {
		return err
	}

	for i := 0; i < self.options.Sections; i++ {
		if link, err := nav.Add(virtual.ElementSpec{
			ID:      `to-` + sectionID(i),
			Tag:     `a`,
			Classes: []string{`flz-scroll-anchor`},
			Attributes: map[string]string{
				`href`: `#` + sectionID(i),
			},
		}); err == nil {
			self.links = append(self.links, link)
		} else {
			return err
		}
	}

	return nil
}

func (self *Demo) Page() *virtual.Page {
	return self.page
}

func (self *Demo) Scroller() *scroll.Scroller {
	return self.scroller
}

// Draw frames and handle input until the context is cancelled or the user quits.
// Every page callback runs on the calling goroutine.
func (self *Demo) Run(ctx context.Context) error {
	input := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			event := self.screen.PollEvent()

			if event == nil {
				return
			}

			select {
			case input <- event:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	self.Draw()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-input:
			if !self.Handle(event) {
				return nil
			}

		case <-ticker.C:
			self.Step()
		}
	}
}

// Advance the page by one frame and redraw it.
func (self *Demo) Step() {
	self.page.Step(FrameInterval)
	self.Draw()
}

// Apply one input event, returning false when the user asked to quit.
func (self *Demo) Handle(event tcell.Event) bool {
	_, rows := self.page.WindowSize()

	switch ev := event.(type) {
	case *tcell.EventResize:
		self.page.Resize(viewport(ev.Size()))
		self.screen.Sync()

	case *tcell.EventMouse:
		buttons := ev.Buttons()

		if buttons&tcell.WheelUp != 0 {
			self.wheel(-3 * RowHeight)
		} else if buttons&tcell.WheelDown != 0 {
			self.wheel(3 * RowHeight)
		}

	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			self.wheel(-RowHeight)
		case tcell.KeyDown:
			self.wheel(RowHeight)
		case tcell.KeyPgUp:
			self.wheel(-rows)
		case tcell.KeyPgDn:
			self.wheel(rows)
		case tcell.KeyHome:
			self.animate(0)
		case tcell.KeyEnd:
			self.animate(self.scroller.ScrollSize() - rows)
		case tcell.KeyRune:
			switch r := ev.Rune(); r {
			case 'q':
				return false
			case 'k':
				self.wheel(-RowHeight)
			case 'j':
				self.wheel(RowHeight)
			case 'g':
				self.animate(0)
			case 'G':
				self.animate(self.scroller.ScrollSize() - rows)
			default:
				if r >= '1' && r <= '9' {
					if i := int(r - '1'); i < len(self.links) {
						self.page.Click(self.links[i])
					}
				}
			}
		}
	}

	return true
}

func (self *Demo) wheel(delta float64) {
	self.scroller.StopAnimation()
	self.page.Wheel(nil, scroll.Vertical, delta)
}

func (self *Demo) animate(position float64) {
	if _, err := self.scroller.ScrollTo(max(position, 0), nil); err != nil {
		log.Warningf("[term] %v", err)
	}
}

func (self *Demo) Draw() {
	self.screen.Clear()

	width, height := self.screen.Size()
	position := self.scroller.Position()
	sectionHeight := self.sectionHeight()

	for row := 0; row < height-1; row++ {
		y := position + float64(row)*RowHeight
		index := int(y / sectionHeight)

		if index >= self.options.Sections {
			break
		}

		style := tcell.StyleDefault.Background(palette[index%len(palette)]).Foreground(tcell.ColorWhite)

		for x := 0; x < width; x++ {
			self.screen.SetContent(x, row, ' ', nil, style)
		}

		if self.visible[sectionID(index)] {
			self.screen.SetContent(0, row, '|', nil, style.Bold(true))
		}

		// label the first row of each section
		if y-float64(index)*sectionHeight < RowHeight {
			self.text(2, row, fmt.Sprintf("Section %d", index+1), style.Bold(true))
		}
	}

	gesture := `idle`

	if self.scroller.IsScrolling() {
		gesture = `scrolling`
	} else if self.scroller.IsAnimating() {
		gesture = `animating`
	}

	reading := self.progress.Progress()

	self.text(0, height-1, fmt.Sprintf(
		" %s / %s px  %3.0f%%  %-8s %-9s %s",
		humanize.Comma(int64(position)),
		humanize.Comma(int64(self.scroller.ScrollSize())),
		reading.Percent*100,
		reading.Heading,
		gesture,
		self.message,
	), tcell.StyleDefault.Reverse(true))

	self.screen.Show()
}

func (self *Demo) text(x int, y int, text string, style tcell.Style) {
	width, _ := self.screen.Size()

	for _, r := range text {
		if x >= width {
			return
		}

		self.screen.SetContent(x, y, r, nil, style)
		x += 1
	}
}
